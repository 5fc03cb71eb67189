package models

import "time"

// WaitingToken is one user's admission ticket into the booking flow.
// Its status is not a field: it is derived from which store collection holds it.
type WaitingToken struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenStatus string

const (
	TokenStatusWaiting TokenStatus = "WAITING"
	TokenStatusActive  TokenStatus = "ACTIVE"
	TokenStatusExpired TokenStatus = "EXPIRED"
)

func (s TokenStatus) IsLive() bool {
	return s == TokenStatusWaiting || s == TokenStatusActive
}

// QueueStatus is a read-only view of one token's place in the admission flow.
// Position is 1-based and, like EstimatedWaitingMinutes, only set while WAITING.
type QueueStatus struct {
	Token                   string      `json:"token"`
	Status                  TokenStatus `json:"status"`
	Position                *int64      `json:"queue_position,omitempty"`
	EstimatedWaitingMinutes *int64      `json:"estimated_waiting_time_minutes,omitempty"`
	Message                 string      `json:"message"`
}

type QueueInfo struct {
	QueueSize       int64 `json:"queue_size"`
	ActiveCount     int64 `json:"active_count"`
	MaxActiveTokens int64 `json:"max_active_tokens"`
	AvailableSlots  int64 `json:"available_slots"`
}
