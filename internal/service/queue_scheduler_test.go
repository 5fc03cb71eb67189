package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

func newTestScheduler(h *harness, promote, cleanup time.Duration) QueueScheduler {
	return NewQueueScheduler(h.lc, h.queue, producer.NewNopProducer(), h.metrics, logger.NewNopLogger(), config.QueueConfig{
		PromoteInterval: promote,
		CleanupInterval: cleanup,
		ShutdownTimeout: time.Second,
	})
}

func TestQueueScheduler_StartStop(t *testing.T) {
	h := newHarness(t, 10)
	qs := newTestScheduler(h, time.Hour, time.Hour)
	ctx := context.Background()

	assert.ErrorIs(t, qs.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, qs.Start(ctx))
	assert.True(t, qs.GetStatus().IsRunning)
	assert.False(t, qs.GetStatus().StartedAt.IsZero())
	assert.ErrorIs(t, qs.Start(ctx), ErrSchedulerRunning)

	require.NoError(t, qs.Stop())
	assert.False(t, qs.GetStatus().IsRunning)
	assert.ErrorIs(t, qs.Stop(), ErrSchedulerNotRunning)

	// Restartable after a stop.
	require.NoError(t, qs.Start(ctx))
	require.NoError(t, qs.Stop())
}

func TestQueueScheduler_ParentContextCancelled(t *testing.T) {
	h := newHarness(t, 10)
	qs := newTestScheduler(h, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, qs.Start(ctx))
	cancel()

	assert.Eventually(t, func() bool {
		return !qs.GetStatus().IsRunning
	}, time.Second, time.Millisecond)
	assert.ErrorIs(t, qs.Stop(), ErrSchedulerNotRunning)

	require.NoError(t, qs.Start(context.Background()))
	assert.True(t, qs.GetStatus().IsRunning)
	require.NoError(t, qs.Stop())
}

func TestQueueScheduler_CleanupThenPromotion(t *testing.T) {
	h := newHarness(t, 1)
	qs := newTestScheduler(h, time.Hour, time.Hour)
	ctx := context.Background()

	stale := h.issueActive(t, "u1")
	next, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	// Nothing has expired yet and the active set is full.
	qs.RunCleanup(ctx)
	qs.RunPromotion(ctx)
	st := qs.GetStatus()
	assert.Zero(t, st.TotalExpired)
	assert.Zero(t, st.TotalPromoted)

	h.clock.Advance(11 * time.Minute)

	qs.RunCleanup(ctx)
	qs.RunPromotion(ctx)

	st = qs.GetStatus()
	assert.Equal(t, int64(1), st.TotalExpired)
	assert.Equal(t, int64(1), st.TotalPromoted)
	assert.Zero(t, st.ErrorCount)
	assert.False(t, st.LastCleanup.IsZero())
	assert.False(t, st.LastPromotion.IsZero())

	_, err = h.tokens.Status(ctx, stale)
	assert.Error(t, err)

	out, err := h.tokens.Status(ctx, next.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusActive, out.Status)

	expected := `
# HELP concert_active_tokens Tokens currently in the active set.
# TYPE concert_active_tokens gauge
concert_active_tokens 1
# HELP concert_queue_size Tokens waiting in the admission queue.
# TYPE concert_queue_size gauge
concert_queue_size 0
`
	assert.NoError(t, testutil.GatherAndCompare(h.metrics.Registry(), strings.NewReader(expected),
		"concert_active_tokens", "concert_queue_size"))
}

func TestQueueScheduler_LoopPromotesWaitingTokens(t *testing.T) {
	h := newHarness(t, 2)
	qs := newTestScheduler(h, 5*time.Millisecond, 10*time.Millisecond)
	ctx := context.Background()

	var tokens []string
	for _, u := range []string{"u1", "u2", "u3"} {
		out, err := h.tokens.Issue(ctx, u)
		require.NoError(t, err)
		tokens = append(tokens, out.Token)
	}

	require.NoError(t, qs.Start(ctx))
	t.Cleanup(func() { _ = qs.Stop() })

	assert.Eventually(t, func() bool {
		return qs.GetStatus().TotalPromoted == 2
	}, 2*time.Second, 5*time.Millisecond)

	for _, tok := range tokens[:2] {
		_, err := h.tokens.ValidateActive(ctx, tok)
		assert.NoError(t, err)
	}

	st, err := h.tokens.Status(ctx, tokens[2])
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusWaiting, st.Status)
	assert.Equal(t, int64(1), *st.QueuePosition)
}
