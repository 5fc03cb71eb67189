package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	kafka "github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
)

type Producer interface {
	PublishTokenIssued(ctx context.Context, event kafka.TokenIssuedEvent) error
	PublishTokenActivated(ctx context.Context, event kafka.TokenActivatedEvent) error
	PublishTokenExpired(ctx context.Context, event kafka.TokenExpiredEvent) error
	PublishTokenCompleted(ctx context.Context, event kafka.TokenCompletedEvent) error
	PublishSeatReserved(ctx context.Context, event kafka.SeatReservedEvent) error
	PublishPaymentSucceeded(ctx context.Context, event kafka.PaymentSucceededEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
	now  func() time.Time
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
		now:  time.Now,
	}
}

func (p *implProducer) PublishTokenIssued(ctx context.Context, event kafka.TokenIssuedEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishTokenIssued", kafka.TopicTokenIssued, event.UserID, event)
}

func (p *implProducer) PublishTokenActivated(ctx context.Context, event kafka.TokenActivatedEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishTokenActivated", kafka.TopicTokenActivated, partitionKey(event.UserID, event.Token), event)
}

func (p *implProducer) PublishTokenExpired(ctx context.Context, event kafka.TokenExpiredEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishTokenExpired", kafka.TopicTokenExpired, partitionKey(event.UserID, event.Token), event)
}

func (p *implProducer) PublishTokenCompleted(ctx context.Context, event kafka.TokenCompletedEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishTokenCompleted", kafka.TopicTokenCompleted, event.UserID, event)
}

func (p *implProducer) PublishSeatReserved(ctx context.Context, event kafka.SeatReservedEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishSeatReserved", kafka.TopicSeatReserved, event.UserID, event)
}

func (p *implProducer) PublishPaymentSucceeded(ctx context.Context, event kafka.PaymentSucceededEvent) error {
	event.Timestamp = p.now()
	return p.publish(ctx, "PublishPaymentSucceeded", kafka.TopicPaymentSucceeded, event.UserID, event)
}

// Partition by user id so one user's events stay ordered.
func (p *implProducer) publish(ctx context.Context, op, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", op, err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(p.now().Format(time.RFC3339)),
			},
		},
	}

	if _, _, err = p.prod.SendMessage(msg); err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.%s: %v", op, err)
		return err
	}

	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}

func partitionKey(userID, token string) string {
	if userID != "" {
		return userID
	}
	return token
}
