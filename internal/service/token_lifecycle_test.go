package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vogiaan1904/ticketbottle-concert/internal/domain"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/queue"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository/mock"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

func newMockLifecycle(t *testing.T) (TokenLifecycle, *mock.MockTokenRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mock.NewMockTokenRepository(ctrl)
	l := logger.NewNopLogger()
	qm := queue.NewManager(repo, domain.NewTokenDomainService(100), l)
	return NewTokenLifecycle(repo, qm, l), repo
}

func TestTokenLifecycle_CleanupContinuesPastFailures(t *testing.T) {
	lc, repo := newMockLifecycle(t)
	boom := errors.New("timeout")

	repo.EXPECT().FindExpiredActiveTokens(gomock.Any()).Return([]string{"a", "b", "c"}, nil)
	repo.EXPECT().ExpireToken(gomock.Any(), "a").Return(nil)
	repo.EXPECT().ExpireToken(gomock.Any(), "b").Return(boom)
	repo.EXPECT().ExpireToken(gomock.Any(), "c").Return(nil)

	res, err := lc.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, res.Succeeded())
	require.Len(t, res.Failed(), 1)
	assert.Equal(t, "b", res.Failed()[0].Token)
	assert.ErrorIs(t, res.Err(), boom)
}

func TestTokenLifecycle_CleanupFindFailure(t *testing.T) {
	lc, repo := newMockLifecycle(t)
	repo.EXPECT().FindExpiredActiveTokens(gomock.Any()).Return(nil, errors.New("down"))

	res, err := lc.CleanupExpiredTokens(context.Background())
	assert.Error(t, err)
	assert.Empty(t, res.Items)
}

func TestTokenLifecycle_CleanupReprocessingIsIdempotent(t *testing.T) {
	h := newHarness(t, 100)
	ctx := context.Background()

	h.issueActive(t, "u1")
	h.clock.Advance(11 * time.Minute)

	first, err := h.lc.CleanupExpiredTokens(ctx)
	require.NoError(t, err)
	require.Len(t, first.Succeeded(), 1)
	expired := first.Succeeded()[0]

	// A second sweep handed the same stale id must not fail.
	lc, repo := newMockLifecycle(t)
	repo.EXPECT().FindExpiredActiveTokens(gomock.Any()).Return([]string{expired}, nil).Times(2)
	repo.EXPECT().ExpireToken(gomock.Any(), expired).DoAndReturn(h.repo.ExpireToken).Times(2)

	for range 2 {
		res, err := lc.CleanupExpiredTokens(ctx)
		require.NoError(t, err)
		assert.NoError(t, res.Err())
	}

	count, err := h.repo.CountActiveTokens(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTokenLifecycle_CompleteSkipsSweepWhenExpireFails(t *testing.T) {
	lc, repo := newMockLifecycle(t)
	repo.EXPECT().ExpireToken(gomock.Any(), "t1").Return(errors.New("down"))

	// No CountActiveTokens expectation: a sweep would fail the test.
	_, err := lc.CompleteToken(context.Background(), "t1")
	assert.Error(t, err)
}

func TestTokenLifecycle_CompleteKeepsExpireWhenSweepFails(t *testing.T) {
	lc, repo := newMockLifecycle(t)
	sweepErr := errors.New("count failed")

	gomock.InOrder(
		repo.EXPECT().ExpireToken(gomock.Any(), "t1").Return(nil),
		repo.EXPECT().CountActiveTokens(gomock.Any()).Return(int64(0), sweepErr),
	)

	res, err := lc.CompleteToken(context.Background(), "t1")
	require.NoError(t, err)
	assert.ErrorIs(t, res.PromotionErr, sweepErr)
}

func TestTokenLifecycle_CompleteRunsSweep(t *testing.T) {
	lc, repo := newMockLifecycle(t)

	gomock.InOrder(
		repo.EXPECT().ExpireToken(gomock.Any(), "t1").Return(nil),
		repo.EXPECT().CountActiveTokens(gomock.Any()).Return(int64(99), nil),
		repo.EXPECT().GetNextTokensFromQueue(gomock.Any(), int64(1)).Return([]string{"t2"}, nil),
		repo.EXPECT().ActivateToken(gomock.Any(), "t2").Return(nil),
	)

	res, err := lc.CompleteToken(context.Background(), "t1")
	require.NoError(t, err)
	assert.NoError(t, res.PromotionErr)
	assert.Equal(t, []string{"t2"}, res.Promotion.Succeeded())
}

func TestTokenLifecycle_PassThroughs(t *testing.T) {
	lc, repo := newMockLifecycle(t)
	ctx := context.Background()
	tok := &models.WaitingToken{Token: "t1", UserID: "u1"}

	repo.EXPECT().Save(gomock.Any(), tok).Return(nil)
	repo.EXPECT().FindByToken(gomock.Any(), "t1").Return(tok, nil)
	repo.EXPECT().FindByUser(gomock.Any(), "u1").Return(tok, nil)
	repo.EXPECT().GetTokenStatus(gomock.Any(), "t1").Return(models.TokenStatusWaiting, nil)
	repo.EXPECT().ExpireToken(gomock.Any(), "t1").Return(nil)

	require.NoError(t, lc.SaveToken(ctx, tok))

	got, err := lc.FindToken(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, tok, got)

	got, err = lc.FindUserToken(ctx, "u1")
	require.NoError(t, err)
	assert.Same(t, tok, got)

	st, err := lc.GetTokenStatus(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusWaiting, st)

	require.NoError(t, lc.ExpireToken(ctx, "t1"))
}
