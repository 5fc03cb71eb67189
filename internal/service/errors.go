package service

import "errors"

var (
	ErrUserIDRequired        = errors.New("user id is required")
	ErrSeatIDRequired        = errors.New("seat id is required")
	ErrReservationIDRequired = errors.New("reservation id is required")

	ErrSchedulerRunning    = errors.New("queue scheduler is already running")
	ErrSchedulerNotRunning = errors.New("queue scheduler is not running")
)
