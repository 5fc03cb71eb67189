package service

import (
	"context"
	"time"

	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
)

// sweepReporter turns sweep results into metrics and Kafka events.
// Publishing failures are logged only; the store change already happened.
type sweepReporter struct {
	lc   TokenLifecycle
	prod producer.Producer
	m    *metrics.Metrics
	l    logger.Logger
	now  func() time.Time
}

func newSweepReporter(lc TokenLifecycle, prod producer.Producer, m *metrics.Metrics, l logger.Logger) *sweepReporter {
	return &sweepReporter{lc: lc, prod: prod, m: m, l: l, now: time.Now}
}

func (r *sweepReporter) promoted(ctx context.Context, res models.SweepResult) int {
	ok := res.Succeeded()
	r.m.TokensPromoted(len(ok))
	r.m.SweepFailures(metrics.SweepPromotion, len(res.Failed()))

	for _, token := range ok {
		var userID string
		if tok, err := r.lc.FindToken(ctx, token); err == nil && tok != nil {
			userID = tok.UserID
		}

		if err := r.prod.PublishTokenActivated(ctx, kafka.TokenActivatedEvent{
			Token:       token,
			UserID:      userID,
			ActivatedAt: r.now(),
		}); err != nil {
			r.l.Warnf(ctx, "service.sweepReporter.promoted: %v", err)
		}
	}

	return len(ok)
}

// expired reports TTL expiry. User ids are gone with the record by now.
func (r *sweepReporter) expired(ctx context.Context, res models.SweepResult) int {
	ok := res.Succeeded()
	r.m.TokensExpired(metrics.ExpiredByTTL, len(ok))
	r.m.SweepFailures(metrics.SweepCleanup, len(res.Failed()))

	for _, token := range ok {
		if err := r.prod.PublishTokenExpired(ctx, kafka.TokenExpiredEvent{
			Token:     token,
			Reason:    kafka.ExpireReasonTTL,
			ExpiredAt: r.now(),
		}); err != nil {
			r.l.Warnf(ctx, "service.sweepReporter.expired: %v", err)
		}
	}

	return len(ok)
}
