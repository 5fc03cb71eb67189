package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
)

var ErrMissingToken = errors.New("event has no token")

func (c *Consumer) HandleReservationCancelled(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.ReservationCancelledEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleReservationCancelled: %v", err)
		return err
	}

	c.l.Infof(ctx, "Reservation cancelled: reservation_id=%s user_id=%s", e.ReservationID, e.UserID)
	return c.release(ctx, "HandleReservationCancelled", e.Token)
}

func (c *Consumer) HandleReservationExpired(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.ReservationExpiredEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		c.l.Errorf(ctx, "delivery.kafka.consumer.HandleReservationExpired: %v", err)
		return err
	}

	c.l.Infof(ctx, "Reservation expired: reservation_id=%s user_id=%s expired_at=%s",
		e.ReservationID, e.UserID, e.ExpiredAt)
	return c.release(ctx, "HandleReservationExpired", e.Token)
}

// release completes the token behind a reservation. A token that is already
// gone was completed or swept by someone else, so the event is acknowledged.
func (c *Consumer) release(ctx context.Context, op, token string) error {
	if token == "" {
		c.l.Warnf(ctx, "delivery.kafka.consumer.%s: %v", op, ErrMissingToken)
		return ErrMissingToken
	}

	if err := c.tokenSvc.Complete(ctx, token); err != nil {
		if errs.KindOf(err) == errs.KindTokenNotFound {
			c.l.Debugf(ctx, "delivery.kafka.consumer.%s: token already released", op)
			return nil
		}
		c.l.Errorf(ctx, "delivery.kafka.consumer.%s: %v", op, err)
		return err
	}

	return nil
}
