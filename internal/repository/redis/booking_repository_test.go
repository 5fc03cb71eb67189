package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	repo "github.com/vogiaan1904/ticketbottle-concert/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

func setupBookingRepo(t *testing.T) (repository.BookingRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return repo.NewRedisBookingRepository(client, logger.NewNopLogger(), "test"), mr
}

func TestRedisBookingRepository_Balance(t *testing.T) {
	r, _ := setupBookingRepo(t)
	ctx := context.Background()

	bal, err := r.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, bal)

	bal, err = r.AddBalance(ctx, "u1", 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), bal)

	bal, err = r.AddBalance(ctx, "u1", -1200)
	require.NoError(t, err)
	assert.Equal(t, int64(3800), bal)

	bal, err = r.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3800), bal)
}

func TestRedisBookingRepository_SeatDefaultsToAvailable(t *testing.T) {
	r, _ := setupBookingRepo(t)
	ctx := context.Background()

	seat, err := r.GetSeat(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.ReservationID)

	require.NoError(t, r.SaveSeat(ctx, &models.Seat{ID: "42", Status: models.SeatStatusHeld, ReservationID: "r1", UpdatedAt: time.Now()}))

	seat, err = r.GetSeat(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusHeld, seat.Status)
	assert.Equal(t, "r1", seat.ReservationID)
}

func TestRedisBookingRepository_ReservationAndPayment(t *testing.T) {
	r, mr := setupBookingRepo(t)
	ctx := context.Background()

	missing, err := r.GetReservation(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	now := time.UnixMilli(time.Now().UnixMilli())
	require.NoError(t, r.SaveReservation(ctx, &models.Reservation{
		ID: "r1", UserID: "u1", SeatID: "42", Price: 1000,
		Status: models.ReservationStatusReserved, CreatedAt: now, UpdatedAt: now,
	}))

	got, err := r.GetReservation(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(1000), got.Price)
	assert.Equal(t, models.ReservationStatusReserved, got.Status)
	assert.True(t, now.Equal(got.CreatedAt))

	require.NoError(t, r.SavePayment(ctx, &models.Payment{ID: "p1", ReservationID: "r1", UserID: "u1", Amount: 1000, PaidAt: now}))
	assert.True(t, mr.Exists("test:payment:p1"))

	ids, err := mr.List("test:user_payments:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}
