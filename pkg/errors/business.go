package errors

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// BusinessError is a client-facing failure with one code shared by every
// transport. Each transport renders it with its own status.
type BusinessError struct {
	Code       string
	Message    string
	HTTPStatus int
	GrpcCode   codes.Code
}

func NewBusinessError(code string, message string, httpStatus int, grpcCode codes.Code) *BusinessError {
	return &BusinessError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		GrpcCode:   grpcCode,
	}
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s - %s", e.Code, e.Message)
}

func (e *BusinessError) HTTP() *HTTPError {
	return &HTTPError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.HTTPStatus,
	}
}

func (e *BusinessError) GRPC() *GRPCError {
	return &GRPCError{
		Message:  e.Error(),
		GrpcCode: e.GrpcCode,
	}
}
