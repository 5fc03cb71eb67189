package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/repository"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

type redisBookingRepository struct {
	cli    *backend.Client
	l      logger.Logger
	prefix string
}

func NewRedisBookingRepository(cli *backend.Client, l logger.Logger, prefix string) repository.BookingRepository {
	if prefix == "" {
		prefix = "concert"
	}
	return &redisBookingRepository{
		cli:    cli,
		l:      l,
		prefix: prefix,
	}
}

func (r *redisBookingRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	bal, err := r.cli.Get(ctx, r.balanceKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, nil
		}

		r.l.Errorf(ctx, "redisBookingRepository.GetBalance: %v", err)
		return 0, err
	}

	return bal, nil
}

func (r *redisBookingRepository) AddBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	bal, err := r.cli.IncrBy(ctx, r.balanceKey(userID), delta).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.AddBalance: %v", err)
		return 0, err
	}

	return bal, nil
}

func (r *redisBookingRepository) GetSeat(ctx context.Context, seatID string) (*models.Seat, error) {
	vals, err := r.cli.HGetAll(ctx, r.seatKey(seatID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.GetSeat: %v", err)
		return nil, err
	}

	seat := &models.Seat{ID: seatID, Status: models.SeatStatusAvailable}
	if len(vals) == 0 {
		return seat, nil
	}

	seat.Status = models.SeatStatus(vals["status"])
	seat.ReservationID = vals["reservation_id"]
	seat.UpdatedAt = parseMillis(vals["updated_at"])

	return seat, nil
}

func (r *redisBookingRepository) SaveSeat(ctx context.Context, seat *models.Seat) error {
	if err := r.cli.HSet(ctx, r.seatKey(seat.ID),
		"status", string(seat.Status),
		"reservation_id", seat.ReservationID,
		"updated_at", seat.UpdatedAt.UnixMilli(),
	).Err(); err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.SaveSeat: %v", err)
		return err
	}

	return nil
}

func (r *redisBookingRepository) GetReservation(ctx context.Context, reservationID string) (*models.Reservation, error) {
	vals, err := r.cli.HGetAll(ctx, r.reservationKey(reservationID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.GetReservation: %v", err)
		return nil, err
	}

	if len(vals) == 0 {
		return nil, nil
	}

	price, err := strconv.ParseInt(vals["price"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt reservation %s: %w", reservationID, err)
	}

	return &models.Reservation{
		ID:        reservationID,
		UserID:    vals["user_id"],
		SeatID:    vals["seat_id"],
		Price:     price,
		Status:    models.ReservationStatus(vals["status"]),
		CreatedAt: parseMillis(vals["created_at"]),
		UpdatedAt: parseMillis(vals["updated_at"]),
	}, nil
}

func (r *redisBookingRepository) SaveReservation(ctx context.Context, res *models.Reservation) error {
	if err := r.cli.HSet(ctx, r.reservationKey(res.ID),
		"user_id", res.UserID,
		"seat_id", res.SeatID,
		"price", res.Price,
		"status", string(res.Status),
		"created_at", res.CreatedAt.UnixMilli(),
		"updated_at", res.UpdatedAt.UnixMilli(),
	).Err(); err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.SaveReservation: %v", err)
		return err
	}

	return nil
}

func (r *redisBookingRepository) SavePayment(ctx context.Context, p *models.Payment) error {
	_, err := r.cli.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSet(ctx, r.paymentKey(p.ID),
			"reservation_id", p.ReservationID,
			"user_id", p.UserID,
			"amount", p.Amount,
			"paid_at", p.PaidAt.UnixMilli(),
		)
		pipe.RPush(ctx, r.userPaymentsKey(p.UserID), p.ID)
		return nil
	})
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.SavePayment: %v", err)
		return err
	}

	return nil
}

func (r *redisBookingRepository) balanceKey(userID string) string {
	return fmt.Sprintf("%s:balance:%s", r.prefix, userID)
}

func (r *redisBookingRepository) seatKey(seatID string) string {
	return fmt.Sprintf("%s:seat:%s", r.prefix, seatID)
}

func (r *redisBookingRepository) reservationKey(id string) string {
	return fmt.Sprintf("%s:reservation:%s", r.prefix, id)
}

func (r *redisBookingRepository) paymentKey(id string) string {
	return fmt.Sprintf("%s:payment:%s", r.prefix, id)
}

func (r *redisBookingRepository) userPaymentsKey(userID string) string {
	return fmt.Sprintf("%s:user_payments:%s", r.prefix, userID)
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
