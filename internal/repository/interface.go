package repository

import (
	"context"
	"errors"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
)

var (
	// ErrTokenNotWaiting is returned by ActivateToken for a token that is not in the queue.
	ErrTokenNotWaiting = errors.New("token is not in the waiting queue")
	// ErrActiveSetFull is returned by ActivateToken when the active set is at capacity.
	ErrActiveSetFull = errors.New("active set is full")
)

// TokenRepository is the durable state behind the admission queue.
// Every method is safe for concurrent use from multiple processes.
type TokenRepository interface {
	Save(ctx context.Context, tok *models.WaitingToken) error
	// FindByToken returns nil, nil for an unknown token.
	FindByToken(ctx context.Context, token string) (*models.WaitingToken, error)
	// FindByUser returns the user's most recently saved token that still has a record.
	FindByUser(ctx context.Context, userID string) (*models.WaitingToken, error)
	GetTokenStatus(ctx context.Context, token string) (models.TokenStatus, error)

	AddToWaitingQueue(ctx context.Context, token string) error
	// GetNextTokensFromQueue returns up to n tokens from the queue head in arrival order.
	GetNextTokensFromQueue(ctx context.Context, n int64) ([]string, error)
	// GetQueuePosition returns the 0-based index of token or -1.
	GetQueuePosition(ctx context.Context, token string) (int64, error)
	GetQueueSize(ctx context.Context) (int64, error)

	// ActivateToken moves token from the queue into the active set and stamps
	// its activation time in one atomic step.
	ActivateToken(ctx context.Context, token string) error
	// ExpireToken removes every trace of token. Expiring an unknown token is a no-op.
	ExpireToken(ctx context.Context, token string) error
	CountActiveTokens(ctx context.Context) (int64, error)
	// FindExpiredActiveTokens returns active tokens whose activation is older than the TTL.
	FindExpiredActiveTokens(ctx context.Context) ([]string, error)
}

// BookingRepository persists seats, reservations, payments and balances.
// It does no locking of its own; callers mutate inside the matching lock.
type BookingRepository interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	AddBalance(ctx context.Context, userID string, delta int64) (int64, error)

	// GetSeat returns an AVAILABLE seat for a seat with no stored state.
	GetSeat(ctx context.Context, seatID string) (*models.Seat, error)
	SaveSeat(ctx context.Context, seat *models.Seat) error

	// GetReservation returns nil, nil for an unknown reservation.
	GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error)
	SaveReservation(ctx context.Context, r *models.Reservation) error

	SavePayment(ctx context.Context, p *models.Payment) error
}
