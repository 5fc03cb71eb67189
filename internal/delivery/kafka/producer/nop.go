package producer

import (
	"context"

	kafka "github.com/vogiaan1904/ticketbottle-concert/internal/delivery/kafka"
)

// NewNopProducer drops every event. Used when Kafka is disabled.
func NewNopProducer() Producer {
	return nopProducer{}
}

type nopProducer struct{}

func (nopProducer) PublishTokenIssued(context.Context, kafka.TokenIssuedEvent) error       { return nil }
func (nopProducer) PublishTokenActivated(context.Context, kafka.TokenActivatedEvent) error { return nil }
func (nopProducer) PublishTokenExpired(context.Context, kafka.TokenExpiredEvent) error     { return nil }
func (nopProducer) PublishTokenCompleted(context.Context, kafka.TokenCompletedEvent) error { return nil }
func (nopProducer) PublishSeatReserved(context.Context, kafka.SeatReservedEvent) error     { return nil }
func (nopProducer) PublishPaymentSucceeded(context.Context, kafka.PaymentSucceededEvent) error {
	return nil
}
func (nopProducer) Close() error { return nil }
