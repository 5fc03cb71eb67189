package delivery

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	errs "github.com/vogiaan1904/ticketbottle-concert/internal/errors"
	"github.com/vogiaan1904/ticketbottle-concert/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-concert/pkg/errors"
)

var (
	ErrTokenNotFound     = pkgErrors.NewBusinessError("CON001", "Token not found", http.StatusNotFound, codes.NotFound)
	ErrTokenNotActive    = pkgErrors.NewBusinessError("CON002", "Token is not active", http.StatusForbidden, codes.FailedPrecondition)
	ErrBusy              = pkgErrors.NewBusinessError("CON003", "Resource is busy, retry later", http.StatusConflict, codes.Aborted)
	ErrInvalidAmount     = pkgErrors.NewBusinessError("CON004", "Amount must be positive", http.StatusBadRequest, codes.InvalidArgument)
	ErrInsufficientFunds = pkgErrors.NewBusinessError("CON005", "Insufficient balance", http.StatusPaymentRequired, codes.FailedPrecondition)
	ErrSeatUnavailable   = pkgErrors.NewBusinessError("CON006", "Seat is not available", http.StatusConflict, codes.FailedPrecondition)
	ErrReservationGone   = pkgErrors.NewBusinessError("CON007", "Reservation not found", http.StatusNotFound, codes.NotFound)
	ErrReservationOwner  = pkgErrors.NewBusinessError("CON008", "Reservation belongs to another user", http.StatusForbidden, codes.PermissionDenied)
	ErrReservationState  = pkgErrors.NewBusinessError("CON009", "Reservation is not awaiting payment", http.StatusConflict, codes.FailedPrecondition)
	ErrInvalidRequest    = pkgErrors.NewBusinessError("CON010", "Invalid request", http.StatusBadRequest, codes.InvalidArgument)
	ErrMissingToken      = pkgErrors.NewBusinessError("CON011", "Queue token is required", http.StatusUnauthorized, codes.Unauthenticated)
)

// MapError translates a service error into its client-facing form. Unknown
// errors return nil and are reported as internal failures.
func MapError(err error) *pkgErrors.BusinessError {
	switch errs.KindOf(err) {
	case errs.KindTokenNotFound:
		return ErrTokenNotFound
	case errs.KindTokenActivation:
		return ErrTokenNotActive
	case errs.KindLockAcquisitionTimeout:
		return ErrBusy
	}

	switch {
	case errors.Is(err, errs.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, errs.ErrInsufficientBalance):
		return ErrInsufficientFunds
	case errors.Is(err, errs.ErrSeatUnavailable):
		return ErrSeatUnavailable
	case errors.Is(err, errs.ErrReservationNotFound):
		return ErrReservationGone
	case errors.Is(err, errs.ErrReservationNotOwned):
		return ErrReservationOwner
	case errors.Is(err, errs.ErrReservationNotPayable),
		errors.Is(err, errs.ErrReservationNotCancellable):
		return ErrReservationState
	case errors.Is(err, service.ErrUserIDRequired),
		errors.Is(err, service.ErrSeatIDRequired),
		errors.Is(err, service.ErrReservationIDRequired):
		return InvalidRequest(err.Error())
	}

	return nil
}

func InvalidRequest(message string) *pkgErrors.BusinessError {
	return pkgErrors.NewBusinessError(ErrInvalidRequest.Code, message, ErrInvalidRequest.HTTPStatus, ErrInvalidRequest.GrpcCode)
}
