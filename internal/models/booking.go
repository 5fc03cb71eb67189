package models

import "time"

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusHeld      SeatStatus = "HELD"
	SeatStatusSold      SeatStatus = "SOLD"
)

// Seat with no stored state is AVAILABLE.
type Seat struct {
	ID            string     `json:"id"`
	Status        SeatStatus `json:"status"`
	ReservationID string     `json:"reservation_id,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "RESERVED"
	ReservationStatusPaid      ReservationStatus = "PAID"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	SeatID    string            `json:"seat_id"`
	Price     int64             `json:"price"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Payment struct {
	ID            string    `json:"id"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}
