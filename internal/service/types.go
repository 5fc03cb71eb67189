package service

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
)

// TokenOutput is returned by Issue and Status. QueuePosition (1-based) and
// EstimatedWaitingTimeMinutes are only set while the token is WAITING.
type TokenOutput struct {
	Token                       string             `json:"token"`
	Status                      models.TokenStatus `json:"status"`
	QueuePosition               *int64             `json:"queue_position,omitempty"`
	EstimatedWaitingTimeMinutes *int64             `json:"estimated_waiting_time_minutes,omitempty"`
	Message                     string             `json:"message"`
}

type CompleteResult struct {
	Promotion    models.SweepResult
	PromotionErr error
}

type ReserveSeatInput struct {
	Token  string `json:"token"`
	SeatID string `json:"seat_id"`
	Price  int64  `json:"price"`
}

type PayInput struct {
	Token         string `json:"token"`
	ReservationID string `json:"reservation_id"`
}

type CancelReservationInput struct {
	Token         string `json:"token"`
	ReservationID string `json:"reservation_id"`
}

type SchedulerStatus struct {
	IsRunning     bool      `json:"is_running"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	LastPromotion time.Time `json:"last_promotion,omitempty"`
	LastCleanup   time.Time `json:"last_cleanup,omitempty"`
	TotalPromoted int64     `json:"total_promoted"`
	TotalExpired  int64     `json:"total_expired"`
	ErrorCount    int64     `json:"error_count"`
}

func toTokenOutput(qs *models.QueueStatus) *TokenOutput {
	return &TokenOutput{
		Token:                       qs.Token,
		Status:                      qs.Status,
		QueuePosition:               qs.Position,
		EstimatedWaitingTimeMinutes: qs.EstimatedWaitingMinutes,
		Message:                     qs.Message,
	}
}
