package kafka

// Topics published by the concert service.
const (
	TopicTokenIssued      = "concert.token.issued"
	TopicTokenActivated   = "concert.token.activated"
	TopicTokenExpired     = "concert.token.expired"
	TopicTokenCompleted   = "concert.token.completed"
	TopicSeatReserved     = "concert.seat.reserved"
	TopicPaymentSucceeded = "concert.payment.succeeded"
)

// Topics consumed from other services.
const (
	TopicReservationCancelled = "reservation.cancelled"
	TopicReservationExpired   = "reservation.expired"
)

const (
	ExpireReasonTTL       = "ttl"
	ExpireReasonCompleted = "completed"
)
