package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vogiaan1904/ticketbottle-concert/internal/models"
	"github.com/vogiaan1904/ticketbottle-concert/internal/service"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/logger"
	"github.com/vogiaan1904/ticketbottle-concert/pkg/util"
)

type grpcService struct {
	svc service.TokenService
	l   logger.Logger
}

func NewGrpcService(svc service.TokenService, l logger.Logger) TokenServiceServer {
	return &grpcService{
		svc: svc,
		l:   l,
	}
}

func (s *grpcService) IssueToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	out, err := s.svc.Issue(ctx, req.GetValue())
	if err != nil {
		return nil, s.mapGRPCError(ctx, "IssueToken", err)
	}

	return tokenOutputStruct(out)
}

func (s *grpcService) GetTokenStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	out, err := s.svc.Status(ctx, req.GetValue())
	if err != nil {
		return nil, s.mapGRPCError(ctx, "GetTokenStatus", err)
	}

	return tokenOutputStruct(out)
}

func (s *grpcService) ValidateActiveToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	tok, err := s.svc.ValidateActive(ctx, req.GetValue())
	if err != nil {
		return nil, s.mapGRPCError(ctx, "ValidateActiveToken", err)
	}

	return structpb.NewStruct(map[string]any{
		"token":      tok.Token,
		"user_id":    tok.UserID,
		"status":     string(models.TokenStatusActive),
		"created_at": util.TimeToISO8601Str(tok.CreatedAt),
	})
}

func (s *grpcService) CompleteToken(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.svc.Complete(ctx, req.GetValue()); err != nil {
		return nil, s.mapGRPCError(ctx, "CompleteToken", err)
	}

	return &emptypb.Empty{}, nil
}

func (s *grpcService) GetQueueInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	info, err := s.svc.QueueInfo(ctx)
	if err != nil {
		return nil, s.mapGRPCError(ctx, "GetQueueInfo", err)
	}

	return structpb.NewStruct(map[string]any{
		"queue_size":        info.QueueSize,
		"active_count":      info.ActiveCount,
		"max_active_tokens": info.MaxActiveTokens,
		"available_slots":   info.AvailableSlots,
	})
}

func tokenOutputStruct(out *service.TokenOutput) (*structpb.Struct, error) {
	m := map[string]any{
		"token":   out.Token,
		"status":  string(out.Status),
		"message": out.Message,
	}
	if out.QueuePosition != nil {
		m["queue_position"] = *out.QueuePosition
	}
	if out.EstimatedWaitingTimeMinutes != nil {
		m["estimated_waiting_time_minutes"] = *out.EstimatedWaitingTimeMinutes
	}
	return structpb.NewStruct(m)
}
