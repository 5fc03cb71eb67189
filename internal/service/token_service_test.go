package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
)

func TestTokenService_Issue(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()

	first, err := h.tokens.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusWaiting, first.Status)
	require.NotNil(t, first.QueuePosition)
	assert.Equal(t, int64(1), *first.QueuePosition)
	require.NotNil(t, first.EstimatedWaitingTimeMinutes)
	assert.Equal(t, int64(2), *first.EstimatedWaitingTimeMinutes)
	assert.Equal(t, domain.MessageWaiting, first.Message)

	second, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), *second.QueuePosition)
	assert.Equal(t, int64(4), *second.EstimatedWaitingTimeMinutes)

	again, err := h.tokens.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.Token, again.Token, "a user with a live token gets it back")

	_, err = h.tokens.Issue(ctx, "")
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

func TestTokenService_IssueConcurrentSameUser(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()

	const n = 10
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.tokens.Issue(ctx, "u1")
			if assert.NoError(t, err) {
				tokens[i] = out.Token
			}
		}(i)
	}
	wg.Wait()

	for _, tok := range tokens {
		assert.Equal(t, tokens[0], tok)
	}

	size, err := h.repo.GetQueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestTokenService_IssueAfterCompletionGivesNewToken(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()

	tok := h.issueActive(t, "u1")
	require.NoError(t, h.tokens.Complete(ctx, tok))

	out, err := h.tokens.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, tok, out.Token)
	assert.Equal(t, models.TokenStatusWaiting, out.Status)
}

func TestTokenService_Status(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	a := h.issueActive(t, "u1")
	b, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	st, err := h.tokens.Status(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusActive, st.Status)
	assert.Nil(t, st.QueuePosition)
	assert.Nil(t, st.EstimatedWaitingTimeMinutes)

	st, err = h.tokens.Status(ctx, b.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusWaiting, st.Status)
	assert.Equal(t, int64(1), *st.QueuePosition)

	// Signed by us but never stored.
	unknown, err := h.jwt.GenerateToken("u3")
	require.NoError(t, err)

	for name, tok := range map[string]string{"unknown": unknown, "forged": "not-a-token"} {
		_, err := h.tokens.Status(ctx, tok)
		assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err), name)
	}
}

func TestTokenService_ValidateActive(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	active := h.issueActive(t, "u1")
	waiting, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	tok, err := h.tokens.ValidateActive(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, "u1", tok.UserID)

	_, err = h.tokens.ValidateActive(ctx, waiting.Token)
	assert.Equal(t, errs.KindTokenActivation, errs.KindOf(err))

	_, err = h.tokens.ValidateActive(ctx, "garbage")
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))
}

func TestTokenService_CompletePromotesNext(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	a := h.issueActive(t, "u1")
	b, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	require.NoError(t, h.tokens.Complete(ctx, a))

	_, err = h.tokens.Status(ctx, a)
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))

	st, err := h.tokens.Status(ctx, b.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusActive, st.Status)

	err = h.tokens.Complete(ctx, a)
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))
}

func TestTokenService_ActiveSetNeverExceedsCapacity(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.tokens.Issue(ctx, fmt.Sprintf("u%d", i))
			assert.NoError(t, err)
			_, err = h.queue.ProcessQueueAutomatically(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	info, err := h.tokens.QueueInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.ActiveCount)
	assert.Equal(t, int64(17), info.QueueSize)
	assert.Zero(t, info.AvailableSlots)
}
