package response

import (
	"encoding/json"
	"net/http"

	pkgErrors "github.com/vogiaan1904/ticketbottle-concert/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Resp struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func ParseHTTPError(err error) (int, Resp) {
	switch parsedErr := err.(type) {
	case *pkgErrors.HTTPError:
		statusCode := parsedErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: parsedErr.Code,
			Message:   parsedErr.Message,
		}
	default:
		return http.StatusInternalServerError, Resp{
			ErrorCode: "INTERNAL",
			Message:   "Internal server error",
		}
	}
}

func ParseGRPCError(err error) error {
	switch parsedErr := err.(type) {
	case *pkgErrors.GRPCError:
		grpcCode := parsedErr.GrpcCode
		if grpcCode == codes.OK {
			grpcCode = codes.InvalidArgument
		}
		return status.Error(grpcCode, parsedErr.Error())
	default:
		return status.Error(codes.Internal, "Internal server error")
	}
}

func JSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, statusCode int, data any) error {
	return JSON(w, statusCode, Resp{Message: "Success", Data: data})
}

func Error(w http.ResponseWriter, err error) error {
	statusCode, body := ParseHTTPError(err)
	return JSON(w, statusCode, body)
}
