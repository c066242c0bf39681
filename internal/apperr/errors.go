// Package apperr задаёт таксономию ошибок ядра. Ошибки оборачиваются через %w
// и классифицируются errors.Is на границе транспорта.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrExternalService = errors.New("external service error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("rate limited")
)

var (
	ErrInvalidLabel     = fmt.Errorf("%w: time label is not in the calendar catalog", ErrValidation)
	ErrSlotBooked       = fmt.Errorf("%w: slot is booked", ErrConflict)
	ErrSlotUnavailable  = fmt.Errorf("%w: slot is not available", ErrConflict)
	ErrPendingExists    = fmt.Errorf("%w: a pending booking already exists for this email", ErrConflict)
	ErrAlreadyEdited    = fmt.Errorf("%w: booking was already rescheduled once", ErrConflict)
	ErrNotPending       = fmt.Errorf("%w: booking is not pending", ErrConflict)
	ErrInvoiceCollision = fmt.Errorf("%w: invoice number collision", ErrConflict)
	ErrPaymentReused    = fmt.Errorf("%w: payment reference belongs to another booking", ErrConflict)
	ErrAlreadyPaid      = fmt.Errorf("%w: booking is already paid with another reference", ErrConflict)
	ErrIdentityRejected = fmt.Errorf("%w: identity code rejected", ErrValidation)
)

// Validation оборачивает сообщение о некорректном поле.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// External помечает ошибку внешнего сервиса, сохраняя исходную причину.
func External(service string, err error) error {
	return &ExternalError{Service: service, Err: err}
}

type ExternalError struct {
	Service string
	Err     error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExternalService, e.Service, e.Err)
}

func (e *ExternalError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}

// StepError сообщает первый упавший шаг исполнения записи,
// чтобы оператор мог продолжить вручную с этого места.
type StepError struct {
	Index int
	Step  string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("fulfillment step %d (%s) failed: %v", e.Index, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
