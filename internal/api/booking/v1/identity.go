package bookingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type SendIdentityCodeRequest struct {
	Email string `json:"email"`
}

type SendIdentityCodeResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt *timestamppb.Timestamp `json:"expires_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string                 `json:"token"`
	ExpiresAt *timestamppb.Timestamp `json:"expires_at"`
}

const (
	IdentityService_SendIdentityCode_FullMethodName = "/booking.v1.IdentityService/SendIdentityCode"
	IdentityService_Login_FullMethodName            = "/booking.v1.IdentityService/Login"
)

type IdentityServiceClient interface {
	SendIdentityCode(ctx context.Context, in *SendIdentityCodeRequest, opts ...grpc.CallOption) (*SendIdentityCodeResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
}

type identityServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIdentityServiceClient(cc grpc.ClientConnInterface) IdentityServiceClient {
	return &identityServiceClient{cc}
}

func (c *identityServiceClient) SendIdentityCode(ctx context.Context, in *SendIdentityCodeRequest, opts ...grpc.CallOption) (*SendIdentityCodeResponse, error) {
	out := new(SendIdentityCodeResponse)
	if err := c.cc.Invoke(ctx, IdentityService_SendIdentityCode_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.cc.Invoke(ctx, IdentityService_Login_FullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

type IdentityServiceServer interface {
	SendIdentityCode(context.Context, *SendIdentityCodeRequest) (*SendIdentityCodeResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	mustEmbedUnimplementedIdentityServiceServer()
}

type UnimplementedIdentityServiceServer struct{}

func (UnimplementedIdentityServiceServer) SendIdentityCode(context.Context, *SendIdentityCodeRequest) (*SendIdentityCodeResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SendIdentityCode not implemented")
}
func (UnimplementedIdentityServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedIdentityServiceServer) mustEmbedUnimplementedIdentityServiceServer() {}

func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityService_ServiceDesc, srv)
}

func _IdentityService_SendIdentityCode_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendIdentityCodeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServiceServer).SendIdentityCode(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IdentityService_SendIdentityCode_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServiceServer).SendIdentityCode(ctx, req.(*SendIdentityCodeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _IdentityService_Login_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServiceServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IdentityService_Login_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServiceServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var IdentityService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "booking.v1.IdentityService",
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendIdentityCode", Handler: _IdentityService_SendIdentityCode_Handler},
		{MethodName: "Login", Handler: _IdentityService_Login_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "booking/v1/identity",
}
