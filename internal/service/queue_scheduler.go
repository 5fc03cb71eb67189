package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
)

// QueueScheduler runs the promotion and cleanup sweeps on fixed intervals.
// Sweeps only go through atomic store primitives, so several instances may
// run side by side.
type QueueScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RunPromotion(ctx context.Context)
	RunCleanup(ctx context.Context)
	GetStatus() SchedulerStatus
}

type SchedulerConfig struct {
	PromoteInterval time.Duration
	CleanupInterval time.Duration
	ShutdownTimeout time.Duration
	// MaxSweepDuration is the per-tick budget before a warning is logged.
	MaxSweepDuration time.Duration
}

type queueScheduler struct {
	// Dependencies
	lc     TokenLifecycle
	queue  *queue.Manager
	m      *metrics.Metrics
	l      logger.Logger
	report *sweepReporter

	// Configuration
	config SchedulerConfig

	// State management
	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	// Status
	lastPromotion time.Time
	lastCleanup   time.Time
	totalPromoted int64
	totalExpired  int64
	errorCount    int64
}

func NewQueueScheduler(
	lc TokenLifecycle,
	qm *queue.Manager,
	prod producer.Producer,
	m *metrics.Metrics,
	l logger.Logger,
	cfg config.QueueConfig,
) QueueScheduler {
	return &queueScheduler{
		lc:     lc,
		queue:  qm,
		m:      m,
		l:      l,
		report: newSweepReporter(lc, prod, m, l),
		config: SchedulerConfig{
			PromoteInterval:  cfg.PromoteInterval,
			CleanupInterval:  cfg.CleanupInterval,
			ShutdownTimeout:  cfg.ShutdownTimeout,
			MaxSweepDuration: 10 * time.Second,
		},
	}
}

func (qs *queueScheduler) Start(ctx context.Context) error {
	qs.mu.Lock()
	defer qs.mu.Unlock()

	if qs.isRunning {
		return ErrSchedulerRunning
	}

	qs.l.Infof(ctx, "Starting queue scheduler: promote_interval=%s cleanup_interval=%s",
		qs.config.PromoteInterval, qs.config.CleanupInterval)

	runCtx, cancel := context.WithCancel(ctx)
	qs.cancel = cancel
	qs.done = make(chan struct{})
	qs.isRunning = true
	qs.startedAt = time.Now()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		qs.loop(gctx, "promotion", qs.config.PromoteInterval, qs.RunPromotion)
		return nil
	})
	g.Go(func() error {
		qs.loop(gctx, "cleanup", qs.config.CleanupInterval, func(ctx context.Context) {
			qs.RunCleanup(ctx)
			qs.RunPromotion(ctx)
		})
		return nil
	})

	// The loops also end when ctx is cancelled without a Stop call.
	done := qs.done
	go func() {
		_ = g.Wait()
		qs.mu.Lock()
		if qs.done == done {
			qs.isRunning = false
		}
		qs.mu.Unlock()
		close(done)
	}()

	return nil
}

func (qs *queueScheduler) Stop() error {
	qs.mu.Lock()
	if !qs.isRunning {
		qs.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	cancel, done := qs.cancel, qs.done
	qs.mu.Unlock()

	ctx := context.Background()
	qs.l.Info(ctx, "Stopping queue scheduler...")

	cancel()

	// A tick in progress finishes its batch before the loop sees the cancel.
	// The wait happens without qs.mu since sweeps update status under it.
	select {
	case <-done:
		qs.l.Info(ctx, "Queue scheduler stopped gracefully")
	case <-time.After(qs.config.ShutdownTimeout):
		qs.l.Warn(ctx, "Queue scheduler shutdown timeout exceeded")
	}

	qs.mu.Lock()
	if qs.done == done {
		qs.isRunning = false
	}
	qs.mu.Unlock()
	return nil
}

func (qs *queueScheduler) loop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	qs.l.Debugf(ctx, "Queue scheduler %s loop started", name)

	for {
		select {
		case <-ctx.Done():
			qs.l.Debugf(ctx, "Queue scheduler %s loop stopped: %v", name, ctx.Err())
			return
		case <-ticker.C:
			// Sweeps have no cancellation: each tick runs its batch to completion.
			sweepCtx := context.WithoutCancel(ctx)
			start := time.Now()
			sweep(sweepCtx)
			if d := time.Since(start); d > qs.config.MaxSweepDuration {
				qs.l.Warnf(sweepCtx, "Queue scheduler %s sweep took %s", name, d)
			}
		}
	}
}

func (qs *queueScheduler) RunPromotion(ctx context.Context) {
	res, err := qs.queue.ProcessQueueAutomatically(ctx)

	qs.mu.Lock()
	qs.lastPromotion = time.Now()
	qs.mu.Unlock()

	if err != nil {
		qs.incrementErrorCount()
		qs.l.Errorf(ctx, "service.queueScheduler.RunPromotion: %v", err)
		return
	}

	for _, f := range res.Failed() {
		qs.l.Warnf(ctx, "service.queueScheduler.RunPromotion: token=%s: %v", f.Token, f.Err)
	}

	n := qs.report.promoted(ctx, res)

	qs.mu.Lock()
	qs.totalPromoted += int64(n)
	qs.mu.Unlock()

	qs.refreshGauges(ctx)
}

func (qs *queueScheduler) RunCleanup(ctx context.Context) {
	res, err := qs.lc.CleanupExpiredTokens(ctx)

	qs.mu.Lock()
	qs.lastCleanup = time.Now()
	qs.mu.Unlock()

	if err != nil {
		qs.incrementErrorCount()
		qs.l.Errorf(ctx, "service.queueScheduler.RunCleanup: %v", err)
		return
	}

	for _, f := range res.Failed() {
		qs.l.Warnf(ctx, "service.queueScheduler.RunCleanup: token=%s: %v", f.Token, f.Err)
	}

	n := qs.report.expired(ctx, res)

	qs.mu.Lock()
	qs.totalExpired += int64(n)
	qs.mu.Unlock()
}

func (qs *queueScheduler) refreshGauges(ctx context.Context) {
	info, err := qs.queue.GetQueueInfo(ctx)
	if err != nil {
		qs.l.Warnf(ctx, "service.queueScheduler.refreshGauges: %v", err)
		return
	}
	qs.m.SetQueueState(info.QueueSize, info.ActiveCount)
}

func (qs *queueScheduler) incrementErrorCount() {
	qs.mu.Lock()
	defer qs.mu.Unlock()
	qs.errorCount++
}

func (qs *queueScheduler) GetStatus() SchedulerStatus {
	qs.mu.RLock()
	defer qs.mu.RUnlock()

	return SchedulerStatus{
		IsRunning:     qs.isRunning,
		StartedAt:     qs.startedAt,
		LastPromotion: qs.lastPromotion,
		LastCleanup:   qs.lastCleanup,
		TotalPromoted: qs.totalPromoted,
		TotalExpired:  qs.totalExpired,
		ErrorCount:    qs.errorCount,
	}
}
