package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	TokenService_IssueToken_FullMethodName          = "/concert.v1.TokenService/IssueToken"
	TokenService_GetTokenStatus_FullMethodName      = "/concert.v1.TokenService/GetTokenStatus"
	TokenService_ValidateActiveToken_FullMethodName = "/concert.v1.TokenService/ValidateActiveToken"
	TokenService_CompleteToken_FullMethodName       = "/concert.v1.TokenService/CompleteToken"
	TokenService_GetQueueInfo_FullMethodName        = "/concert.v1.TokenService/GetQueueInfo"
)

// TokenServiceServer is the server API for concert.v1.TokenService. Messages
// are protobuf well-known types so no generated code is required.
type TokenServiceServer interface {
	IssueToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetTokenStatus(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ValidateActiveToken(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	CompleteToken(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	GetQueueInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenService_ServiceDesc, srv)
}

type TokenServiceClient interface {
	IssueToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetTokenStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	ValidateActiveToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	CompleteToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetQueueInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type tokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTokenServiceClient(cc grpc.ClientConnInterface) TokenServiceClient {
	return &tokenServiceClient{cc}
}

func (c *tokenServiceClient) IssueToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_IssueToken_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) GetTokenStatus(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_GetTokenStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) ValidateActiveToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_ValidateActiveToken_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) CompleteToken(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, TokenService_CompleteToken_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tokenServiceClient) GetQueueInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, TokenService_GetQueueInfo_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _TokenService_IssueToken_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).IssueToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_IssueToken_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).IssueToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _TokenService_GetTokenStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).GetTokenStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_GetTokenStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).GetTokenStatus(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _TokenService_ValidateActiveToken_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).ValidateActiveToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_ValidateActiveToken_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).ValidateActiveToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _TokenService_CompleteToken_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).CompleteToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_CompleteToken_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).CompleteToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _TokenService_GetQueueInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).GetQueueInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenService_GetQueueInfo_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).GetQueueInfo(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var TokenService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "concert.v1.TokenService",
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IssueToken", Handler: _TokenService_IssueToken_Handler},
		{MethodName: "GetTokenStatus", Handler: _TokenService_GetTokenStatus_Handler},
		{MethodName: "ValidateActiveToken", Handler: _TokenService_ValidateActiveToken_Handler},
		{MethodName: "CompleteToken", Handler: _TokenService_CompleteToken_Handler},
		{MethodName: "GetQueueInfo", Handler: _TokenService_GetQueueInfo_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "concert/v1/token.proto",
}
