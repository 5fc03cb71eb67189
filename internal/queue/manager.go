package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

// Manager is the admission-control policy over a TokenRepository.
type Manager struct {
	repo   repository.TokenRepository
	domain *domain.TokenDomainService
	l      logger.Logger
}

func NewManager(
	repo repository.TokenRepository,
	domain *domain.TokenDomainService,
	l logger.Logger,
) *Manager {
	return &Manager{
		repo:   repo,
		domain: domain,
		l:      l,
	}
}

func (m *Manager) AddToQueue(ctx context.Context, token string) error {
	return m.repo.AddToWaitingQueue(ctx, token)
}

// CalculateAvailableSlots may return a non-positive number; callers treat it as zero work.
func (m *Manager) CalculateAvailableSlots(ctx context.Context) (int64, error) {
	active, err := m.repo.CountActiveTokens(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count active tokens: %w", err)
	}

	return m.domain.CalculateAvailableSlots(active), nil
}

func (m *Manager) GetNextTokensFromQueue(ctx context.Context, n int64) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	return m.repo.GetNextTokensFromQueue(ctx, n)
}

// ProcessQueueAutomatically promotes up to the free slot count from the queue head.
// The returned error covers only the slot count and head fetch; per-token
// activation failures are reported in the SweepResult and never stop the batch.
func (m *Manager) ProcessQueueAutomatically(ctx context.Context) (models.SweepResult, error) {
	var res models.SweepResult

	slots, err := m.CalculateAvailableSlots(ctx)
	if err != nil {
		return res, err
	}
	if slots <= 0 {
		return res, nil
	}

	tokens, err := m.GetNextTokensFromQueue(ctx, slots)
	if err != nil {
		return res, fmt.Errorf("failed to get next tokens: %w", err)
	}

	for _, tok := range tokens {
		err := m.activate(ctx, tok)
		if err != nil {
			m.l.Warnf(ctx, "queue.Manager.ProcessQueueAutomatically: token=%s: %v", tok, err)
		}
		res.Add(tok, err)
	}

	if n := len(res.Succeeded()); n > 0 {
		m.l.Infof(ctx, "queue.Manager.ProcessQueueAutomatically: promoted=%d failed=%d", n, len(res.Failed()))
	}

	return res, nil
}

func (m *Manager) activate(ctx context.Context, token string) error {
	err := m.repo.ActivateToken(ctx, token)
	if !errors.Is(err, repository.ErrTokenNotWaiting) {
		return err
	}

	// Another sweep won the race or the token was expired meanwhile.
	status, serr := m.repo.GetTokenStatus(ctx, token)
	if serr != nil {
		return fmt.Errorf("failed to get token status: %w", serr)
	}
	if verr := m.domain.ValidateTokenActivation(token, status); verr != nil {
		return verr
	}
	return errs.TokenActivation("token %s is no longer waiting", token)
}

// GetQueueStatus builds a read-only snapshot for one token. Unknown tokens are EXPIRED.
func (m *Manager) GetQueueStatus(ctx context.Context, token string) (*models.QueueStatus, error) {
	status, err := m.repo.GetTokenStatus(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get token status: %w", err)
	}

	qs := &models.QueueStatus{
		Token:   token,
		Status:  status,
		Message: m.domain.StatusMessage(status),
	}

	if status != models.TokenStatusWaiting {
		return qs, nil
	}

	pos, err := m.repo.GetQueuePosition(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue position: %w", err)
	}

	// Promoted between the two reads; report what the store says now.
	if pos < 0 {
		status, err = m.repo.GetTokenStatus(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to get token status: %w", err)
		}
		qs.Status = status
		qs.Message = m.domain.StatusMessage(status)
		return qs, nil
	}

	position := pos + 1
	wait := m.domain.CalculateWaitingTime(position)
	qs.Position = &position
	qs.EstimatedWaitingMinutes = &wait
	qs.Message = m.domain.QueueStatusMessage(status, position)

	return qs, nil
}

// GetQueueInfo returns the aggregate view of the queue and active set.
func (m *Manager) GetQueueInfo(ctx context.Context) (*models.QueueInfo, error) {
	size, err := m.repo.GetQueueSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get queue size: %w", err)
	}

	active, err := m.repo.CountActiveTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active tokens: %w", err)
	}

	return &models.QueueInfo{
		QueueSize:       size,
		ActiveCount:     active,
		MaxActiveTokens: m.domain.MaxActiveTokens(),
		AvailableSlots:  m.domain.CalculateAvailableSlots(active),
	}, nil
}

func (m *Manager) GetQueuePosition(ctx context.Context, token string) (int64, error) {
	return m.repo.GetQueuePosition(ctx, token)
}
