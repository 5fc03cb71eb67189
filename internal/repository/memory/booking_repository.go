package memory

import (
	"context"
	"sync"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
)

type memoryBookingRepository struct {
	mu           sync.RWMutex
	balances     map[string]int64
	seats        map[string]models.Seat
	reservations map[string]models.Reservation
	payments     map[string]models.Payment
}

func NewBookingRepository() repository.BookingRepository {
	return &memoryBookingRepository{
		balances:     make(map[string]int64),
		seats:        make(map[string]models.Seat),
		reservations: make(map[string]models.Reservation),
		payments:     make(map[string]models.Payment),
	}
}

func (r *memoryBookingRepository) GetBalance(_ context.Context, userID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.balances[userID], nil
}

func (r *memoryBookingRepository) AddBalance(_ context.Context, userID string, delta int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.balances[userID] += delta
	return r.balances[userID], nil
}

func (r *memoryBookingRepository) GetSeat(_ context.Context, seatID string) (*models.Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seat, ok := r.seats[seatID]
	if !ok {
		return &models.Seat{ID: seatID, Status: models.SeatStatusAvailable}, nil
	}
	return &seat, nil
}

func (r *memoryBookingRepository) SaveSeat(_ context.Context, seat *models.Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seats[seat.ID] = *seat
	return nil
}

func (r *memoryBookingRepository) GetReservation(_ context.Context, reservationID string) (*models.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.reservations[reservationID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *memoryBookingRepository) SaveReservation(_ context.Context, res *models.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reservations[res.ID] = *res
	return nil
}

func (r *memoryBookingRepository) SavePayment(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[p.ID] = *p
	return nil
}
