package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/lock"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

var errStoreDown = errors.New("store down")

// failingBookingRepository fails one write step of a payment.
type failingBookingRepository struct {
	repository.BookingRepository
	failOn string
}

func (r *failingBookingRepository) SaveReservation(ctx context.Context, res *models.Reservation) error {
	if r.failOn == "reservation" && res.Status == models.ReservationStatusPaid {
		return errStoreDown
	}
	return r.BookingRepository.SaveReservation(ctx, res)
}

func (r *failingBookingRepository) SaveSeat(ctx context.Context, seat *models.Seat) error {
	if r.failOn == "seat" && seat.Status == models.SeatStatusSold {
		return errStoreDown
	}
	return r.BookingRepository.SaveSeat(ctx, seat)
}

func (r *failingBookingRepository) SavePayment(ctx context.Context, p *models.Payment) error {
	if r.failOn == "payment" {
		return errStoreDown
	}
	return r.BookingRepository.SavePayment(ctx, p)
}

func TestBookingService_ChargeBalance(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	bal, err := h.bookings.ChargeBalance(ctx, "u1", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal)

	for _, amount := range []int64{0, -10} {
		_, err := h.bookings.ChargeBalance(ctx, "u1", amount)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	}

	_, err = h.bookings.ChargeBalance(ctx, "", 10)
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

func TestBookingService_ConcurrentChargesAreSerialised(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.bookings.ChargeBalance(ctx, "u1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bal, err := h.bookings.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), bal)
}

func TestBookingService_ReserveSeatRequiresActiveToken(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	h.issueActive(t, "u1")
	waiting, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	_, err = h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: waiting.Token, SeatID: "42", Price: 100})
	assert.Equal(t, errs.KindTokenActivation, errs.KindOf(err))

	_, err = h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: "bogus", SeatID: "42", Price: 100})
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))

	seat, err := h.booking.GetSeat(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
}

func TestBookingService_ConcurrentReserveOneWinner(t *testing.T) {
	const users = 10
	h := newHarness(t, users)
	ctx := context.Background()

	tokens := make([]string, users)
	for i := range users {
		tokens[i] = h.issueActive(t, fmt.Sprintf("u%d", i))
	}

	var (
		wg          sync.WaitGroup
		wins        atomic.Int32
		unavailable atomic.Int32
	)
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "42", Price: 100})
			switch {
			case err == nil:
				wins.Add(1)
			case assert.ErrorIs(t, err, errs.ErrSeatUnavailable):
				unavailable.Add(1)
			}
		}(tok)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(users-1), unavailable.Load())

	seat, err := h.booking.GetSeat(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusHeld, seat.Status)
}

func TestBookingService_PayFlow(t *testing.T) {
	h := newHarness(t, 1)
	ctx := context.Background()

	tok := h.issueActive(t, "u1")
	next, err := h.tokens.Issue(ctx, "u2")
	require.NoError(t, err)

	res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "7", Price: 300})
	require.NoError(t, err)

	_, err = h.bookings.Pay(ctx, PayInput{Token: tok, ReservationID: res.ID})
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)

	_, err = h.bookings.ChargeBalance(ctx, "u1", 1000)
	require.NoError(t, err)

	p, err := h.bookings.Pay(ctx, PayInput{Token: tok, ReservationID: res.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(300), p.Amount)
	assert.Equal(t, res.ID, p.ReservationID)

	bal, err := h.bookings.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(700), bal)

	stored, err := h.booking.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPaid, stored.Status)

	seat, err := h.booking.GetSeat(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusSold, seat.Status)

	// Paying completes the token and hands the slot to the next user.
	_, err = h.tokens.Status(ctx, tok)
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))

	st, err := h.tokens.Status(ctx, next.Token)
	require.NoError(t, err)
	assert.Equal(t, models.TokenStatusActive, st.Status)
}

func TestBookingService_PayFailureRestoresState(t *testing.T) {
	for _, step := range []string{"reservation", "seat", "payment"} {
		t.Run(step, func(t *testing.T) {
			h := newHarness(t, 10)
			ctx := context.Background()

			tok := h.issueActive(t, "u1")
			_, err := h.bookings.ChargeBalance(ctx, "u1", 100)
			require.NoError(t, err)
			res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "5", Price: 60})
			require.NoError(t, err)

			broken := NewBookingService(
				&failingBookingRepository{BookingRepository: h.booking, failOn: step},
				h.tokens, lock.NewLocalLocker(time.Millisecond), testLockConf,
				producer.NewNopProducer(), logger.NewNopLogger(),
			)

			_, err = broken.Pay(ctx, PayInput{Token: tok, ReservationID: res.ID})
			assert.ErrorIs(t, err, errStoreDown)

			bal, err := h.bookings.GetBalance(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, int64(100), bal)

			stored, err := h.booking.GetReservation(ctx, res.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ReservationStatusReserved, stored.Status)

			seat, err := h.booking.GetSeat(ctx, "5")
			require.NoError(t, err)
			assert.Equal(t, models.SeatStatusHeld, seat.Status)

			// The token stays active so the user can retry.
			_, err = h.tokens.ValidateActive(ctx, tok)
			require.NoError(t, err)

			_, err = h.bookings.Pay(ctx, PayInput{Token: tok, ReservationID: res.ID})
			require.NoError(t, err)

			bal, err = h.bookings.GetBalance(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, int64(40), bal)
		})
	}
}

func TestBookingService_PayRejectsForeignAndUnknownReservations(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	owner := h.issueActive(t, "u1")
	other := h.issueActive(t, "u2")

	res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: owner, SeatID: "1", Price: 10})
	require.NoError(t, err)

	_, err = h.bookings.Pay(ctx, PayInput{Token: other, ReservationID: res.ID})
	assert.ErrorIs(t, err, errs.ErrReservationNotOwned)

	_, err = h.bookings.Pay(ctx, PayInput{Token: other, ReservationID: "missing"})
	assert.ErrorIs(t, err, errs.ErrReservationNotFound)

	_, err = h.bookings.Pay(ctx, PayInput{Token: other})
	assert.ErrorIs(t, err, ErrReservationIDRequired)
}

func TestBookingService_ConcurrentPayChargesOnce(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	tok := h.issueActive(t, "u1")
	res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "9", Price: 100})
	require.NoError(t, err)
	_, err = h.bookings.ChargeBalance(ctx, "u1", 1000)
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.bookings.Pay(ctx, PayInput{Token: tok, ReservationID: res.ID}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())

	bal, err := h.bookings.GetBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), bal)
}

func TestBookingService_CancelReservation(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	tok := h.issueActive(t, "u1")
	res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "3", Price: 50})
	require.NoError(t, err)

	cancelled, err := h.bookings.CancelReservation(ctx, CancelReservationInput{Token: tok, ReservationID: res.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, cancelled.Status)

	seat, err := h.booking.GetSeat(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, models.SeatStatusAvailable, seat.Status)
	assert.Empty(t, seat.ReservationID)

	_, err = h.tokens.ValidateActive(ctx, tok)
	assert.Equal(t, errs.KindTokenNotFound, errs.KindOf(err))

	// The seat is free for the next active user.
	again := h.issueActive(t, "u2")
	_, err = h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: again, SeatID: "3", Price: 50})
	assert.NoError(t, err)
}

func TestBookingService_CancelRejectsSettledReservation(t *testing.T) {
	h := newHarness(t, 10)
	ctx := context.Background()

	tok := h.issueActive(t, "u1")
	res, err := h.bookings.ReserveSeat(ctx, ReserveSeatInput{Token: tok, SeatID: "8", Price: 50})
	require.NoError(t, err)

	res.Status = models.ReservationStatusPaid
	require.NoError(t, h.booking.SaveReservation(ctx, res))

	_, err = h.bookings.CancelReservation(ctx, CancelReservationInput{Token: tok, ReservationID: res.ID})
	assert.ErrorIs(t, err, errs.ErrReservationNotCancellable)
}
