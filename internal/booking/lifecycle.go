package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

type RescheduleInput struct {
	BookingID uuid.UUID
	Date      datatypes.Date
	TimeLabel string
	Proof     IdentityProof
}

// TransitionResult — итог операторского перехода.
type TransitionResult struct {
	Booking *model.Booking
	// AlreadyInState — запись уже была в целевом статусе, ничего не изменилось.
	AlreadyInState bool
}

// notifyAfterCommit отправляет письмо об уже сохранённом изменении.
// Сбой не откатывает изменение и возвращается как ошибка внешнего сервиса.
func (s *Service) notifyAfterCommit(ctx context.Context, b *model.Booking, event model.LifecycleEvent) error {
	err := s.notify(ctx, b, event)
	if err == nil {
		return nil
	}
	s.log.Warn("notification failed",
		zap.String("booking_id", b.ID.String()),
		zap.String("event", string(event)),
		zap.Error(err),
	)
	var ext *apperr.ExternalError
	if errors.As(err, &ext) {
		return err
	}
	return apperr.External("notification", err)
}

func (s *Service) stepDone(ctx context.Context, bookingID uuid.UUID, step model.FulfillmentStepName) (bool, error) {
	steps, err := s.steps.List(ctx, bookingID)
	if err != nil {
		return false, err
	}
	for _, st := range steps {
		if st.Name == step {
			return st.State == model.StepStateDone, nil
		}
	}
	return false, nil
}

// Reschedule переносит pending-запись на другой слот того же календаря. Разрешён один раз.
// Если слот записи занят ею, занятость переносится атомарно вместе с записью.
// Сбои после переноса (встреча, состояние шагов, уведомление) возвращаются
// как ошибки внешнего сервиса вместе с обновлённой записью.
func (s *Service) Reschedule(ctx context.Context, in RescheduleInput) (*model.Booking, error) {
	if in.TimeLabel == "" {
		return nil, apperr.Validation("time label is required")
	}
	b, err := s.getBooking(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	// код одноразовый: гасим его только для запроса, который может пройти
	if b.Status != model.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", apperr.ErrNotPending, b.ID, b.Status)
	}
	if b.IsEdited {
		return nil, apperr.ErrAlreadyEdited
	}
	if err := s.verifyIdentity(ctx, b.Email, in.Proof); err != nil {
		return nil, err
	}

	old, err := s.slots.Slot(ctx, b.SlotID)
	if err != nil {
		return nil, err
	}
	if model.FormatDate(old.Date) == model.FormatDate(in.Date) && old.TimeLabel == in.TimeLabel {
		return nil, apperr.Validation("booking is already at %s", old.Key())
	}

	newSlot, _, tr, err := s.lookupSlot(ctx, b.Kind.CalendarID(), in.Date, in.TimeLabel)
	if err != nil {
		return nil, err
	}

	claimed := old.BookedBy != nil && *old.BookedBy == b.ID
	err = s.bookings.Reschedule(ctx, repository.RescheduleParams{
		BookingID:   b.ID,
		OldSlotID:   old.ID,
		NewSlot:     newSlot.Key(),
		NewDateTime: tr.Start.UTC(),
		MoveClaim:   claimed,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("booking rescheduled",
		zap.String("booking_id", b.ID.String()),
		zap.String("from", old.Key().String()),
		zap.String("to", newSlot.Key().String()),
		zap.Bool("claim_moved", claimed),
	)

	// перенос сохранён: дальше ошибки не откатывают его
	if fresh, err := s.getBooking(ctx, b.ID); err == nil {
		b = fresh
	} else {
		s.log.Warn("reload rescheduled booking failed", zap.String("booking_id", b.ID.String()), zap.Error(err))
		b.SlotID, b.Slot = newSlot.ID, newSlot
		b.DateTime = tr.Start.UTC()
		b.IsEdited = true
	}

	var followUp []error
	if err := s.refreshMeeting(ctx, b); err != nil {
		s.log.Warn("fulfillment state after reschedule not saved",
			zap.String("booking_id", b.ID.String()), zap.Error(err))
		followUp = append(followUp, apperr.External("fulfillment state", err))
	}
	if err := s.notifyAfterCommit(ctx, b, model.EventRescheduled); err != nil {
		followUp = append(followUp, err)
	}
	return b, errors.Join(followUp...)
}

// refreshMeeting пересоздаёт встречу, если она уже была создана на старое время.
// Сбой самой встречи остаётся в состоянии шага; возвращаются только ошибки хранилища.
func (s *Service) refreshMeeting(ctx context.Context, b *model.Booking) error {
	met, err := s.stepDone(ctx, b.ID, model.StepMeeting)
	if err != nil || !met {
		return err
	}
	detail, err := s.meetingStep(ctx, b)
	state, lastError := model.StepStateDone, ""
	if err != nil {
		state, lastError = model.StepStateFailed, err.Error()
		s.log.Warn("meeting update after reschedule failed",
			zap.String("booking_id", b.ID.String()), zap.Error(err))
	}
	return s.steps.Record(ctx, b.ID, 1, state, lastError, detail)
}

// Complete переводит pending-запись в completed. Повтор на completed-записи
// возвращает AlreadyInState без уведомления.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*TransitionResult, error) {
	return s.transition(ctx, id, model.BookingStatusCompleted, model.EventCompleted, false)
}

// Cancel отменяет платную pending-запись и освобождает её слот, если его заняла эта запись.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*TransitionResult, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Kind != model.BookingKindReservation {
		return nil, apperr.Validation("only reservations can be canceled")
	}
	return s.transition(ctx, id, model.BookingStatusCanceled, model.EventCanceled, true)
}

func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	to model.BookingStatus,
	event model.LifecycleEvent,
	release bool,
) (*TransitionResult, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == to {
		return &TransitionResult{Booking: b, AlreadyInState: true}, nil
	}
	if b.Terminal() {
		return nil, fmt.Errorf("%w: booking %s is %s", apperr.ErrConflict, id, b.Status)
	}

	changed, err := s.bookings.Transition(ctx, id, model.BookingStatusPending, to, s.slots.Now().UTC(), release)
	if err != nil {
		return nil, err
	}
	b, err = s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !changed {
		// кто-то успел раньше
		if b.Status == to {
			return &TransitionResult{Booking: b, AlreadyInState: true}, nil
		}
		return nil, fmt.Errorf("%w: booking %s is %s", apperr.ErrConflict, id, b.Status)
	}
	s.log.Info("booking transitioned",
		zap.String("booking_id", id.String()),
		zap.String("status", string(to)),
		zap.Bool("release_slot", release),
	)

	res := &TransitionResult{Booking: b}
	return res, s.notifyAfterCommit(ctx, b, event)
}
