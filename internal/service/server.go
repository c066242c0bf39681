package service

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/auth"
)

// privilegedMethods требуют токен оператора.
var privilegedMethods = map[string]bool{
	bookingpb.CalendarService_SetSlotStatus_FullMethodName:    true,
	bookingpb.CalendarService_ApplySlotBatch_FullMethodName:   true,
	bookingpb.BookingService_ConfirmPayment_FullMethodName:    true,
	bookingpb.BookingService_ResumeFulfillment_FullMethodName: true,
	bookingpb.BookingService_CompleteBooking_FullMethodName:   true,
	bookingpb.BookingService_CancelBooking_FullMethodName:     true,
	bookingpb.BookingService_GetBooking_FullMethodName:        true,
	bookingpb.BookingService_ListBookings_FullMethodName:      true,
	bookingpb.BookingService_GetInvoice_FullMethodName:        true,
}

// IsPrivileged сообщает, нужен ли методу токен оператора.
func IsPrivileged(fullMethod string) bool {
	return privilegedMethods[fullMethod]
}

// RecoveryInterceptor превращает панику обработчика в Internal.
func RecoveryInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor пишет метод, код ответа и длительность каждого вызова.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}
		switch code {
		case codes.OK:
			log.Debug("rpc", fields...)
		case codes.Internal, codes.Unavailable, codes.Unknown:
			log.Error("rpc", append(fields, zap.Error(err))...)
		default:
			log.Info("rpc", append(fields, zap.Error(err))...)
		}
		return resp, err
	}
}

type Services struct {
	Calendar *CalendarService
	Booking  *BookingService
	Identity *IdentityService
	Auth     *auth.Authenticator
}

// NewGRPCServer собирает сервер с перехватчиками, сервисами записи, health и reflection.
func NewGRPCServer(svcs Services, log *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if log == nil {
		log = zap.NewNop()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(log),
		LoggingInterceptor(log),
		auth.UnaryServerInterceptor(svcs.Auth, IsPrivileged, log),
	))
	srv := grpc.NewServer(opts...)

	bookingpb.RegisterCalendarServiceServer(srv, svcs.Calendar)
	bookingpb.RegisterBookingServiceServer(srv, svcs.Booking)
	bookingpb.RegisterIdentityServiceServer(srv, svcs.Identity)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	for _, name := range []string{
		bookingpb.CalendarService_ServiceDesc.ServiceName,
		bookingpb.BookingService_ServiceDesc.ServiceName,
		bookingpb.IdentityService_ServiceDesc.ServiceName,
	} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	reflection.Register(srv)

	return srv, hs
}
