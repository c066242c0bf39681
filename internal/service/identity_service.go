package service

import (
	"context"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/auth"
)

// CodeIssuer отправляет одноразовый код подтверждения email.
type CodeIssuer interface {
	Send(ctx context.Context, email string) (string, error)
}

// IdentityService выдаёт клиентам коды подтверждения, а операторам — токен доступа.
type IdentityService struct {
	bookingpb.UnimplementedIdentityServiceServer

	codes   CodeIssuer
	codeTTL time.Duration
	auth    *auth.Authenticator
}

func NewIdentityService(codes CodeIssuer, codeTTL time.Duration, a *auth.Authenticator) *IdentityService {
	return &IdentityService{codes: codes, codeTTL: codeTTL, auth: a}
}

// SendIdentityCode отправляет код на email и возвращает непрозрачный токен для проверки.
func (s *IdentityService) SendIdentityCode(ctx context.Context, req *bookingpb.SendIdentityCodeRequest) (*bookingpb.SendIdentityCodeResponse, error) {
	if req.Email == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}

	token, err := s.codes.Send(ctx, req.Email)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.SendIdentityCodeResponse{
		Token:     token,
		ExpiresAt: timestamppb.New(time.Now().Add(s.codeTTL)),
	}, nil
}

// Login выдаёт токен оператора по email и паролю.
func (s *IdentityService) Login(ctx context.Context, req *bookingpb.LoginRequest) (*bookingpb.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "email and password are required")
	}

	token, exp, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.LoginResponse{Token: token, ExpiresAt: timestamppb.New(exp)}, nil
}
