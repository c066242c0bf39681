package auth

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/session-booking/internal/model"
)

// MetadataKey — заголовок, в котором клиент передаёт токен.
const MetadataKey = "authorization"

type operatorKey struct{}

// OperatorFromContext возвращает оператора, проверенного перехватчиком.
func OperatorFromContext(ctx context.Context) (*ValidatedOperator, bool) {
	op, ok := ctx.Value(operatorKey{}).(*ValidatedOperator)
	return op, ok
}

// WithToken кладёт токен в исходящие метаданные клиента.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, MetadataKey, "Bearer "+token)
}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(MetadataKey)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimSpace(values[0])
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}

// UnaryServerInterceptor требует токен администратора на методах, для которых privileged возвращает true.
func UnaryServerInterceptor(a *Authenticator, privileged func(fullMethod string) bool, log *zap.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !privileged(info.FullMethod) {
			return handler(ctx, req)
		}

		token := tokenFromMetadata(ctx)
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "operator token is required")
		}
		op, err := a.ValidateOperator(ctx, token, model.RoleAdmin)
		switch {
		case err == nil:
		case errors.Is(err, ErrForbidden):
			log.Warn("operator denied", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, status.Error(codes.PermissionDenied, err.Error())
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrOperatorNotFound):
			return nil, status.Error(codes.Unauthenticated, err.Error())
		default:
			log.Error("operator validation failed", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, status.Error(codes.Internal, "operator validation failed")
		}

		return handler(context.WithValue(ctx, operatorKey{}, op), req)
	}
}
