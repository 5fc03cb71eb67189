package domain

import (
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
)

const (
	DefaultMaxActiveTokens = 100

	// Estimated minutes a waiting user spends per place in line.
	minutesPerPosition = 2

	MessageWaiting = "You are in the waiting queue. Please wait for your turn."
	MessageActive  = "Your token is active. You may proceed with your reservation."
	MessageExpired = "Your token has expired. Please request a new token."
)

// TokenDomainService holds the token business rules. It performs no I/O.
type TokenDomainService struct {
	maxActive int64
}

func NewTokenDomainService(maxActive int) *TokenDomainService {
	if maxActive <= 0 {
		maxActive = DefaultMaxActiveTokens
	}
	return &TokenDomainService{maxActive: int64(maxActive)}
}

func (s *TokenDomainService) MaxActiveTokens() int64 {
	return s.maxActive
}

// ValidateTokenActivation allows only a WAITING token to be promoted.
func (s *TokenDomainService) ValidateTokenActivation(token string, status models.TokenStatus) error {
	if status != models.TokenStatusWaiting {
		return errs.TokenActivation("token %s cannot be activated from status %s", token, status)
	}
	return nil
}

// ValidateActiveToken checks for a missing token before checking status, so
// callers can tell "never existed" from "exists in the wrong state".
func (s *TokenDomainService) ValidateActiveToken(tok *models.WaitingToken, status models.TokenStatus) (*models.WaitingToken, error) {
	if tok == nil {
		return nil, errs.ErrTokenNotFound
	}
	if status != models.TokenStatusActive {
		return nil, errs.TokenActivation("token %s is %s, not ACTIVE", tok.Token, status)
	}
	return tok, nil
}

// CalculateWaitingTime estimates the wait in minutes for a 1-based queue position.
func (s *TokenDomainService) CalculateWaitingTime(position int64) int64 {
	return position * minutesPerPosition
}

// CalculateAvailableSlots may return a negative number when the active set
// is over capacity.
func (s *TokenDomainService) CalculateAvailableSlots(activeCount int64) int64 {
	return s.maxActive - activeCount
}

func (s *TokenDomainService) StatusMessage(status models.TokenStatus) string {
	switch status {
	case models.TokenStatusWaiting:
		return MessageWaiting
	case models.TokenStatusActive:
		return MessageActive
	default:
		return MessageExpired
	}
}

// QueueStatusMessage ignores position: it only affects the wait estimate.
func (s *TokenDomainService) QueueStatusMessage(status models.TokenStatus, position int64) string {
	return s.StatusMessage(status)
}
