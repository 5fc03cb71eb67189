package grpc

import (
	"context"

	"github.com/vogiaan1904/ticketbottle-concert/internal/delivery"
	resp "github.com/vogiaan1904/ticketbottle-concert/pkg/response"
)

func (s *grpcService) mapGRPCError(ctx context.Context, op string, err error) error {
	be := delivery.MapError(err)
	if be == nil {
		s.l.Errorf(ctx, "delivery.grpc.%s: %v", op, err)
		return resp.ParseGRPCError(err)
	}

	s.l.Debugf(ctx, "delivery.grpc.%s: %v", op, err)
	return resp.ParseGRPCError(be.GRPC())
}
