package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/lock"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/jwt"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
)

type TokenService interface {
	// Issue returns the user's live token if there is one, otherwise a new WAITING token.
	Issue(ctx context.Context, userID string) (*TokenOutput, error)
	Status(ctx context.Context, token string) (*TokenOutput, error)
	ValidateActive(ctx context.Context, token string) (*models.WaitingToken, error)
	Complete(ctx context.Context, token string) error
	QueueInfo(ctx context.Context) (*models.QueueInfo, error)
}

type tokenService struct {
	lc       TokenLifecycle
	queue    *queue.Manager
	domain   *domain.TokenDomainService
	locker   lock.Locker
	lockConf config.LockConfig
	jwt      *jwt.Service
	prod     producer.Producer
	m        *metrics.Metrics
	l        logger.Logger
	report   *sweepReporter
	now      func() time.Time
}

func NewTokenService(
	lc TokenLifecycle,
	qm *queue.Manager,
	domain *domain.TokenDomainService,
	locker lock.Locker,
	lockConf config.LockConfig,
	jwtSvc *jwt.Service,
	prod producer.Producer,
	m *metrics.Metrics,
	l logger.Logger,
) TokenService {
	return &tokenService{
		lc:       lc,
		queue:    qm,
		domain:   domain,
		locker:   locker,
		lockConf: lockConf,
		jwt:      jwtSvc,
		prod:     prod,
		m:        m,
		l:        l,
		report:   newSweepReporter(lc, prod, m, l),
		now:      time.Now,
	}
}

func (s *tokenService) Issue(ctx context.Context, userID string) (*TokenOutput, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	return lock.Execute(ctx, s.locker, lock.TokenIssueKey(userID), s.lockConf.HoldTimeout, s.lockConf.WaitTimeout,
		func(ctx context.Context) (*TokenOutput, error) {
			out, err := s.existing(ctx, userID)
			if err != nil || out != nil {
				return out, err
			}
			return s.issueNew(ctx, userID)
		})
}

// existing returns the user's live token, or nil when a new one must be issued.
func (s *tokenService) existing(ctx context.Context, userID string) (*TokenOutput, error) {
	tok, err := s.lc.FindUserToken(ctx, userID)
	if err != nil {
		s.l.Errorf(ctx, "service.tokenService.Issue: %v", err)
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}

	qs, err := s.queue.GetQueueStatus(ctx, tok.Token)
	if err != nil {
		return nil, err
	}
	if qs.Status.IsLive() {
		s.l.Debugf(ctx, "service.tokenService.Issue: reusing token for user_id=%s status=%s", userID, qs.Status)
		return toTokenOutput(qs), nil
	}

	// A record without queue or active membership is left over from an
	// interrupted issue. Clear it so the user gets a fresh place in line.
	if err := s.lc.ExpireToken(ctx, tok.Token); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *tokenService) issueNew(ctx context.Context, userID string) (*TokenOutput, error) {
	tokStr, err := s.jwt.GenerateToken(userID)
	if err != nil {
		s.l.Errorf(ctx, "service.tokenService.Issue: %v", err)
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	tok := &models.WaitingToken{
		Token:     tokStr,
		UserID:    userID,
		CreatedAt: s.now(),
	}

	if err := s.lc.SaveToken(ctx, tok); err != nil {
		return nil, fmt.Errorf("failed to save token: %w", err)
	}

	if err := s.queue.AddToQueue(ctx, tok.Token); err != nil {
		return nil, fmt.Errorf("failed to enqueue token: %w", err)
	}

	qs, err := s.queue.GetQueueStatus(ctx, tok.Token)
	if err != nil {
		return nil, err
	}

	s.m.TokenIssued()

	var pos int64
	if qs.Position != nil {
		pos = *qs.Position
	}
	if err := s.prod.PublishTokenIssued(ctx, kafka.TokenIssuedEvent{
		Token:    tok.Token,
		UserID:   userID,
		Position: pos,
		IssuedAt: tok.CreatedAt,
	}); err != nil {
		s.l.Errorf(ctx, "service.tokenService.Issue: %v", err)
	}

	return toTokenOutput(qs), nil
}

func (s *tokenService) Status(ctx context.Context, token string) (*TokenOutput, error) {
	if _, err := s.find(ctx, token); err != nil {
		return nil, err
	}

	qs, err := s.queue.GetQueueStatus(ctx, token)
	if err != nil {
		return nil, err
	}

	return toTokenOutput(qs), nil
}

func (s *tokenService) ValidateActive(ctx context.Context, token string) (*models.WaitingToken, error) {
	if !s.verify(ctx, token) {
		return nil, errs.TokenNotFound(token)
	}

	tok, err := s.lc.FindToken(ctx, token)
	if err != nil {
		return nil, err
	}

	status, err := s.lc.GetTokenStatus(ctx, token)
	if err != nil {
		return nil, err
	}

	return s.domain.ValidateActiveToken(tok, status)
}

func (s *tokenService) Complete(ctx context.Context, token string) error {
	tok, err := s.find(ctx, token)
	if err != nil {
		return err
	}

	res, err := s.lc.CompleteToken(ctx, token)
	if err != nil {
		return err
	}

	s.m.TokensExpired(metrics.ExpiredByCompletion, 1)
	if err := s.prod.PublishTokenCompleted(ctx, kafka.TokenCompletedEvent{
		Token:       token,
		UserID:      tok.UserID,
		CompletedAt: s.now(),
	}); err != nil {
		s.l.Errorf(ctx, "service.tokenService.Complete: %v", err)
	}

	if res.PromotionErr != nil {
		s.l.Warnf(ctx, "service.tokenService.Complete: token completed, promotion deferred to next sweep: %v", res.PromotionErr)
		return nil
	}
	s.report.promoted(ctx, res.Promotion)

	return nil
}

func (s *tokenService) QueueInfo(ctx context.Context) (*models.QueueInfo, error) {
	return s.queue.GetQueueInfo(ctx)
}

// find returns the stored token, or TokenNotFound for a forged or unknown one.
func (s *tokenService) find(ctx context.Context, token string) (*models.WaitingToken, error) {
	if !s.verify(ctx, token) {
		return nil, errs.TokenNotFound(token)
	}

	tok, err := s.lc.FindToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, errs.TokenNotFound(token)
	}

	return tok, nil
}

func (s *tokenService) verify(ctx context.Context, token string) bool {
	if _, err := s.jwt.ValidateToken(token); err != nil {
		s.l.Debugf(ctx, "service.tokenService.verify: %v", err)
		return false
	}
	return true
}
