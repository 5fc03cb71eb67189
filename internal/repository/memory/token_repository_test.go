package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
)

func seed(t *testing.T, r repository.TokenRepository, tokens ...string) {
	t.Helper()
	ctx := context.Background()
	for i, tok := range tokens {
		require.NoError(t, r.Save(ctx, &models.WaitingToken{Token: tok, UserID: fmt.Sprintf("u%d", i)}))
		require.NoError(t, r.AddToWaitingQueue(ctx, tok))
	}
}

func TestMemoryTokenRepository_QueueOrderAndActivation(t *testing.T) {
	r := NewTokenRepository(Options{MaxActiveTokens: 2})
	ctx := context.Background()

	seed(t, r, "T1", "T2", "T3", "T4")

	next, err := r.GetNextTokensFromQueue(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, next)

	require.NoError(t, r.ActivateToken(ctx, "T2"))

	pos, err := r.GetQueuePosition(ctx, "T3")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pos)

	pos, err = r.GetQueuePosition(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), pos)

	require.NoError(t, r.ActivateToken(ctx, "T1"))
	assert.ErrorIs(t, r.ActivateToken(ctx, "T3"), repository.ErrActiveSetFull)
	assert.ErrorIs(t, r.ActivateToken(ctx, "T1"), repository.ErrTokenNotWaiting)

	st, err := r.GetTokenStatus(ctx, "T3")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusWaiting, st)
}

func TestMemoryTokenRepository_ConcurrentActivation(t *testing.T) {
	r := NewTokenRepository(Options{MaxActiveTokens: 5})
	ctx := context.Background()

	tokens := make([]string, 50)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("T%02d", i)
	}
	seed(t, r, tokens...)

	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_ = r.ActivateToken(ctx, tok)
		}(tok)
	}
	wg.Wait()

	count, err := r.CountActiveTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	size, err := r.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(45), size)
}

func TestMemoryTokenRepository_ExpireAndTTL(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	r := NewTokenRepository(Options{
		TokenTTL: 10 * time.Minute,
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	seed(t, r, "T1", "T2")
	require.NoError(t, r.ActivateToken(ctx, "T1"))

	now = now.Add(11 * time.Minute)
	require.NoError(t, r.ActivateToken(ctx, "T2"))

	expired, err := r.FindExpiredActiveTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, expired)

	require.NoError(t, r.ExpireToken(ctx, "T1"))
	require.NoError(t, r.ExpireToken(ctx, "T1"))

	tok, err := r.FindByToken(ctx, "T1")
	require.NoError(t, err)
	assert.Nil(t, tok)

	byUser, err := r.FindByUser(ctx, "u0")
	require.NoError(t, err)
	assert.Nil(t, byUser)

	count, err := r.CountActiveTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
