package service

import (
	"context"
	"fmt"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

// TokenLifecycle orchestrates the token store and the queue manager across
// save, expiry, cleanup and completion.
type TokenLifecycle interface {
	SaveToken(ctx context.Context, tok *models.WaitingToken) error
	GetTokenStatus(ctx context.Context, token string) (models.TokenStatus, error)
	FindToken(ctx context.Context, token string) (*models.WaitingToken, error)
	FindUserToken(ctx context.Context, userID string) (*models.WaitingToken, error)
	ExpireToken(ctx context.Context, token string) error
	// CleanupExpiredTokens expires every TTL-expired active token. A token
	// that fails to expire stays eligible and is retried on the next sweep.
	CleanupExpiredTokens(ctx context.Context) (models.SweepResult, error)
	// CompleteToken expires token and then runs a promotion sweep. The error
	// is only the expire failure, in which case no sweep runs. A failed
	// sweep is reported in CompleteResult and does not undo the expire.
	CompleteToken(ctx context.Context, token string) (CompleteResult, error)
}

type tokenLifecycle struct {
	repo  repository.TokenRepository
	queue *queue.Manager
	l     logger.Logger
}

func NewTokenLifecycle(repo repository.TokenRepository, qm *queue.Manager, l logger.Logger) TokenLifecycle {
	return &tokenLifecycle{
		repo:  repo,
		queue: qm,
		l:     l,
	}
}

func (s *tokenLifecycle) SaveToken(ctx context.Context, tok *models.WaitingToken) error {
	return s.repo.Save(ctx, tok)
}

func (s *tokenLifecycle) GetTokenStatus(ctx context.Context, token string) (models.TokenStatus, error) {
	return s.repo.GetTokenStatus(ctx, token)
}

func (s *tokenLifecycle) FindToken(ctx context.Context, token string) (*models.WaitingToken, error) {
	return s.repo.FindByToken(ctx, token)
}

func (s *tokenLifecycle) FindUserToken(ctx context.Context, userID string) (*models.WaitingToken, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *tokenLifecycle) ExpireToken(ctx context.Context, token string) error {
	return s.repo.ExpireToken(ctx, token)
}

func (s *tokenLifecycle) CleanupExpiredTokens(ctx context.Context) (models.SweepResult, error) {
	var res models.SweepResult

	tokens, err := s.repo.FindExpiredActiveTokens(ctx)
	if err != nil {
		s.l.Errorf(ctx, "service.tokenLifecycle.CleanupExpiredTokens: %v", err)
		return res, fmt.Errorf("failed to find expired tokens: %w", err)
	}

	for _, tok := range tokens {
		err := s.repo.ExpireToken(ctx, tok)
		if err != nil {
			s.l.Warnf(ctx, "service.tokenLifecycle.CleanupExpiredTokens: token=%s: %v", tok, err)
		}
		res.Add(tok, err)
	}

	if len(tokens) > 0 {
		s.l.Infof(ctx, "service.tokenLifecycle.CleanupExpiredTokens: expired=%d failed=%d",
			len(res.Succeeded()), len(res.Failed()))
	}

	return res, nil
}

func (s *tokenLifecycle) CompleteToken(ctx context.Context, token string) (CompleteResult, error) {
	if err := s.repo.ExpireToken(ctx, token); err != nil {
		s.l.Errorf(ctx, "service.tokenLifecycle.CompleteToken: %v", err)
		return CompleteResult{}, fmt.Errorf("failed to expire token: %w", err)
	}

	promo, err := s.queue.ProcessQueueAutomatically(ctx)
	if err != nil {
		s.l.Warnf(ctx, "service.tokenLifecycle.CompleteToken: promotion after completing %s: %v", token, err)
	}

	return CompleteResult{Promotion: promo, PromotionErr: err}, nil
}
