package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	"github.com/vogiaan1904/ticketbottle-concert/internal/lock"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository/memory"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/jwt"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/metrics"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var testLockConf = config.LockConfig{
	HoldTimeout:   3 * time.Second,
	WaitTimeout:   5 * time.Second,
	RetryInterval: time.Millisecond,
}

type harness struct {
	clock    *testClock
	repo     repository.TokenRepository
	booking  repository.BookingRepository
	queue    *queue.Manager
	lc       TokenLifecycle
	tokens   TokenService
	bookings BookingService
	metrics  *metrics.Metrics
	jwt      *jwt.Service
}

func newHarness(t *testing.T, maxActive int) *harness {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	l := logger.NewNopLogger()

	repo := memory.NewTokenRepository(memory.Options{
		MaxActiveTokens: maxActive,
		TokenTTL:        10 * time.Minute,
		Now:             clock.Now,
	})
	booking := memory.NewBookingRepository()
	dom := domain.NewTokenDomainService(maxActive)
	qm := queue.NewManager(repo, dom, l)
	lc := NewTokenLifecycle(repo, qm, l)

	jwtSvc, err := jwt.NewService("test-secret", "ticketbottle-concert")
	require.NoError(t, err)

	m := metrics.New()
	locker := lock.WithObserver(lock.NewLocalLocker(time.Millisecond), m)
	prod := producer.NewNopProducer()

	tokens := NewTokenService(lc, qm, dom, locker, testLockConf, jwtSvc, prod, m, l)
	bookings := NewBookingService(booking, tokens, locker, testLockConf, prod, l)

	return &harness{
		clock:    clock,
		repo:     repo,
		booking:  booking,
		queue:    qm,
		lc:       lc,
		tokens:   tokens,
		bookings: bookings,
		metrics:  m,
		jwt:      jwtSvc,
	}
}

// issueActive issues a token for userID and promotes it.
func (h *harness) issueActive(t *testing.T, userID string) string {
	t.Helper()
	ctx := context.Background()

	out, err := h.tokens.Issue(ctx, userID)
	require.NoError(t, err)

	_, err = h.queue.ProcessQueueAutomatically(ctx)
	require.NoError(t, err)

	_, err = h.tokens.ValidateActive(ctx, out.Token)
	require.NoError(t, err, "token for %s should be active", userID)

	return out.Token
}
