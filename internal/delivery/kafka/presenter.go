package kafka

import "time"

// Events published BY the concert service

type TokenIssuedEvent struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Position  int64     `json:"position"`
	IssuedAt  time.Time `json:"issued_at"`
	Timestamp time.Time `json:"timestamp"`
}

type TokenActivatedEvent struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	ActivatedAt time.Time `json:"activated_at"`
	Timestamp   time.Time `json:"timestamp"`
}

type TokenExpiredEvent struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id,omitempty"`
	Reason    string    `json:"reason"` // ttl, completed
	ExpiredAt time.Time `json:"expired_at"`
	Timestamp time.Time `json:"timestamp"`
}

type TokenCompletedEvent struct {
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
	Timestamp   time.Time `json:"timestamp"`
}

type SeatReservedEvent struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	SeatID        string    `json:"seat_id"`
	Price         int64     `json:"price"`
	ReservedAt    time.Time `json:"reserved_at"`
	Timestamp     time.Time `json:"timestamp"`
}

type PaymentSucceededEvent struct {
	PaymentID     string    `json:"payment_id"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	SeatID        string    `json:"seat_id"`
	Amount        int64     `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// Events consumed BY the concert service (from the reservation service)

type ReservationCancelledEvent struct {
	Token         string    `json:"token"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

type ReservationExpiredEvent struct {
	Token         string    `json:"token"`
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	ExpiredAt     time.Time `json:"expired_at"`
	Timestamp     time.Time `json:"timestamp"`
}
