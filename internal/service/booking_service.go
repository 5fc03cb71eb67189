package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vogiaan1904/ticketbottle-concert/config"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka/producer"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/lock"
	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

// BookingService mutates seats, reservations and balances. Every mutation
// happens inside the lock for the entity it touches.
type BookingService interface {
	ChargeBalance(ctx context.Context, userID string, amount int64) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	ReserveSeat(ctx context.Context, in ReserveSeatInput) (*models.Reservation, error)
	Pay(ctx context.Context, in PayInput) (*models.Payment, error)
	CancelReservation(ctx context.Context, in CancelReservationInput) (*models.Reservation, error)
}

type bookingService struct {
	repo     repository.BookingRepository
	tokens   TokenService
	locker   lock.Locker
	lockConf config.LockConfig
	prod     producer.Producer
	l        logger.Logger
	now      func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	tokens TokenService,
	locker lock.Locker,
	lockConf config.LockConfig,
	prod producer.Producer,
	l logger.Logger,
) BookingService {
	return &bookingService{
		repo:     repo,
		tokens:   tokens,
		locker:   locker,
		lockConf: lockConf,
		prod:     prod,
		l:        l,
		now:      time.Now,
	}
}

func (s *bookingService) ChargeBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	if amount <= 0 {
		return 0, errs.ErrInvalidAmount
	}

	return lock.Execute(ctx, s.locker, lock.BalanceKey(userID), s.lockConf.HoldTimeout, s.lockConf.WaitTimeout,
		func(ctx context.Context) (int64, error) {
			return s.repo.AddBalance(ctx, userID, amount)
		})
}

func (s *bookingService) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserIDRequired
	}
	return s.repo.GetBalance(ctx, userID)
}

func (s *bookingService) ReserveSeat(ctx context.Context, in ReserveSeatInput) (*models.Reservation, error) {
	if in.SeatID == "" {
		return nil, ErrSeatIDRequired
	}
	if in.Price <= 0 {
		return nil, errs.ErrInvalidAmount
	}

	tok, err := s.tokens.ValidateActive(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	res, err := lock.Execute(ctx, s.locker, lock.SeatKey(in.SeatID), s.lockConf.HoldTimeout, s.lockConf.WaitTimeout,
		func(ctx context.Context) (*models.Reservation, error) {
			seat, err := s.repo.GetSeat(ctx, in.SeatID)
			if err != nil {
				return nil, err
			}
			if seat.Status != models.SeatStatusAvailable {
				return nil, errs.ErrSeatUnavailable
			}

			now := s.now()
			res := &models.Reservation{
				ID:        uuid.NewString(),
				UserID:    tok.UserID,
				SeatID:    in.SeatID,
				Price:     in.Price,
				Status:    models.ReservationStatusReserved,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.repo.SaveReservation(ctx, res); err != nil {
				return nil, fmt.Errorf("failed to save reservation: %w", err)
			}

			seat.Status = models.SeatStatusHeld
			seat.ReservationID = res.ID
			seat.UpdatedAt = now
			if err := s.repo.SaveSeat(ctx, seat); err != nil {
				return nil, fmt.Errorf("failed to hold seat: %w", err)
			}

			return res, nil
		})
	if err != nil {
		s.l.Warnf(ctx, "service.bookingService.ReserveSeat: seat_id=%s: %v", in.SeatID, err)
		return nil, err
	}

	if err := s.prod.PublishSeatReserved(ctx, kafka.SeatReservedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		SeatID:        res.SeatID,
		Price:         res.Price,
		ReservedAt:    res.CreatedAt,
	}); err != nil {
		s.l.Errorf(ctx, "service.bookingService.ReserveSeat: %v", err)
	}

	return res, nil
}

func (s *bookingService) Pay(ctx context.Context, in PayInput) (*models.Payment, error) {
	if in.ReservationID == "" {
		return nil, ErrReservationIDRequired
	}

	tok, err := s.tokens.ValidateActive(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	keys := []string{lock.BalanceKey(tok.UserID), lock.ReservationKey(in.ReservationID)}

	type paid struct {
		payment *models.Payment
		seatID  string
	}

	out, err := lock.ExecuteMulti(ctx, s.locker, keys, s.lockConf.HoldTimeout, s.lockConf.WaitTimeout,
		func(ctx context.Context) (paid, error) {
			res, err := s.ownedReservation(ctx, in.ReservationID, tok.UserID)
			if err != nil {
				return paid{}, err
			}
			if res.Status != models.ReservationStatusReserved {
				return paid{}, errs.ErrReservationNotPayable
			}

			bal, err := s.repo.GetBalance(ctx, tok.UserID)
			if err != nil {
				return paid{}, err
			}
			if bal < res.Price {
				return paid{}, errs.ErrInsufficientBalance
			}

			p, err := s.settle(ctx, res)
			if err != nil {
				return paid{}, err
			}

			return paid{payment: p, seatID: res.SeatID}, nil
		})
	if err != nil {
		s.l.Warnf(ctx, "service.bookingService.Pay: reservation_id=%s: %v", in.ReservationID, err)
		return nil, err
	}

	if err := s.prod.PublishPaymentSucceeded(ctx, kafka.PaymentSucceededEvent{
		PaymentID:     out.payment.ID,
		ReservationID: out.payment.ReservationID,
		UserID:        out.payment.UserID,
		SeatID:        out.seatID,
		Amount:        out.payment.Amount,
		PaidAt:        out.payment.PaidAt,
	}); err != nil {
		s.l.Errorf(ctx, "service.bookingService.Pay: %v", err)
	}

	s.complete(ctx, in.Token)

	return out.payment, nil
}

// settle charges the reservation price and records the sale. A failure after
// the charge undoes every write made so far, so a retry starts from a
// RESERVED reservation and an untouched balance.
func (s *bookingService) settle(ctx context.Context, res *models.Reservation) (p *models.Payment, err error) {
	var undo []func(ctx context.Context) error
	defer func() {
		if err != nil {
			s.rollback(ctx, res.ID, undo)
		}
	}()

	if _, err := s.repo.AddBalance(ctx, res.UserID, -res.Price); err != nil {
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}
	undo = append(undo, func(ctx context.Context) error {
		_, err := s.repo.AddBalance(ctx, res.UserID, res.Price)
		return err
	})

	now := s.now()
	prevRes := *res
	paidRes := *res
	paidRes.Status = models.ReservationStatusPaid
	paidRes.UpdatedAt = now
	if err := s.repo.SaveReservation(ctx, &paidRes); err != nil {
		return nil, fmt.Errorf("failed to mark reservation paid: %w", err)
	}
	undo = append(undo, func(ctx context.Context) error {
		return s.repo.SaveReservation(ctx, &prevRes)
	})

	// The seat is HELD by this reservation, so it only changes under
	// the reservation lock held by the caller.
	seat, err := s.repo.GetSeat(ctx, res.SeatID)
	if err != nil {
		return nil, err
	}
	prevSeat := *seat
	seat.Status = models.SeatStatusSold
	seat.ReservationID = res.ID
	seat.UpdatedAt = now
	if err := s.repo.SaveSeat(ctx, seat); err != nil {
		return nil, fmt.Errorf("failed to mark seat sold: %w", err)
	}
	undo = append(undo, func(ctx context.Context) error {
		return s.repo.SaveSeat(ctx, &prevSeat)
	})

	p = &models.Payment{
		ID:            uuid.NewString(),
		ReservationID: res.ID,
		UserID:        res.UserID,
		Amount:        res.Price,
		PaidAt:        now,
	}
	if err := s.repo.SavePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	*res = paidRes
	return p, nil
}

// rollback runs undo steps newest first. It keeps going past a failed step so
// the balance refund is always attempted.
func (s *bookingService) rollback(ctx context.Context, reservationID string, undo []func(ctx context.Context) error) {
	rctx := context.WithoutCancel(ctx)
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](rctx); err != nil {
			s.l.Errorf(ctx, "service.bookingService.rollback: reservation_id=%s step=%d: %v", reservationID, i, err)
		}
	}
}

func (s *bookingService) CancelReservation(ctx context.Context, in CancelReservationInput) (*models.Reservation, error) {
	if in.ReservationID == "" {
		return nil, ErrReservationIDRequired
	}

	tok, err := s.tokens.ValidateActive(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	// SeatID never changes after creation, so it is safe to read before locking.
	pre, err := s.ownedReservation(ctx, in.ReservationID, tok.UserID)
	if err != nil {
		return nil, err
	}

	keys := []string{lock.ReservationKey(in.ReservationID), lock.SeatKey(pre.SeatID)}

	res, err := lock.ExecuteMulti(ctx, s.locker, keys, s.lockConf.HoldTimeout, s.lockConf.WaitTimeout,
		func(ctx context.Context) (*models.Reservation, error) {
			res, err := s.ownedReservation(ctx, in.ReservationID, tok.UserID)
			if err != nil {
				return nil, err
			}
			if res.Status != models.ReservationStatusReserved {
				return nil, errs.ErrReservationNotCancellable
			}

			now := s.now()
			res.Status = models.ReservationStatusCancelled
			res.UpdatedAt = now
			if err := s.repo.SaveReservation(ctx, res); err != nil {
				return nil, fmt.Errorf("failed to cancel reservation: %w", err)
			}

			if err := s.repo.SaveSeat(ctx, &models.Seat{
				ID:        res.SeatID,
				Status:    models.SeatStatusAvailable,
				UpdatedAt: now,
			}); err != nil {
				return nil, fmt.Errorf("failed to release seat: %w", err)
			}

			return res, nil
		})
	if err != nil {
		s.l.Warnf(ctx, "service.bookingService.CancelReservation: reservation_id=%s: %v", in.ReservationID, err)
		return nil, err
	}

	s.complete(ctx, in.Token)

	return res, nil
}

func (s *bookingService) ownedReservation(ctx context.Context, reservationID, userID string) (*models.Reservation, error) {
	res, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errs.ErrReservationNotFound
	}
	if res.UserID != userID {
		return nil, errs.ErrReservationNotOwned
	}
	return res, nil
}

// complete frees the caller's admission slot. The booking already succeeded,
// so a failure here is logged and left to the TTL sweep.
func (s *bookingService) complete(ctx context.Context, token string) {
	if err := s.tokens.Complete(ctx, token); err != nil {
		s.l.Errorf(ctx, "service.bookingService.complete: %v", err)
	}
}
