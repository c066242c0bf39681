package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/auth"
)

// toStatus переводит ошибку ядра в gRPC-статус.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	switch {
	case errors.Is(err, apperr.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, apperr.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, apperr.ErrPendingExists):
		code = codes.AlreadyExists
	case errors.Is(err, apperr.ErrConflict):
		code = codes.FailedPrecondition
	case errors.Is(err, apperr.ErrRateLimited):
		code = codes.ResourceExhausted
	case errors.Is(err, auth.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, apperr.ErrUnauthorized):
		code = codes.Unauthenticated
	case errors.Is(err, apperr.ErrExternalService):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	default:
		return status.Error(codes.Internal, "internal error")
	}
	return status.Error(code, err.Error())
}
