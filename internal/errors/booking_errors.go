package errors

import "errors"

var (
	ErrInvalidAmount             = errors.New("amount must be positive")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrSeatUnavailable           = errors.New("seat is not available")
	ErrReservationNotFound       = errors.New("reservation not found")
	ErrReservationNotOwned       = errors.New("reservation belongs to another user")
	ErrReservationNotPayable     = errors.New("reservation is not awaiting payment")
	ErrReservationNotCancellable = errors.New("reservation can no longer be cancelled")
)
