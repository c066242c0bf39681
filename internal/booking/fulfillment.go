package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/notify"
)

// StepResult — итог одного шага в конкретном прогоне.
type StepResult struct {
	Index int
	Name  model.FulfillmentStepName
	State model.StepState
	// Skipped — шаг был выполнен раньше и не повторялся.
	Skipped bool
	Err     error
}

// Report — итог прогона последовательности исполнения.
type Report struct {
	BookingID uuid.UUID
	Steps     []StepResult
}

// Err возвращает первый упавший шаг как *apperr.StepError.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	for _, st := range r.Steps {
		if st.Err != nil {
			return &apperr.StepError{Index: st.Index, Step: string(st.Name), Err: st.Err}
		}
	}
	return nil
}

// ConfirmPayment принимает подтверждение оплаты платной записи и запускает исполнение.
// Повторное подтверждение той же ссылкой выполняет только незавершённые шаги,
// а подтверждение другой ссылкой отклоняется.
// При сбое шага возвращаются и отчёт, и *apperr.StepError.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) (*Report, error) {
	if reference == "" {
		return nil, apperr.Validation("payment reference is required")
	}
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Kind != model.BookingKindReservation {
		return nil, apperr.Validation("booking %s does not take payment", id)
	}
	if b.Status != model.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", apperr.ErrNotPending, id, b.Status)
	}

	if b.PaidAt != nil && b.PaymentReference != reference {
		return nil, fmt.Errorf("%w: booking %s", apperr.ErrAlreadyPaid, id)
	}
	if b.PaidAt == nil {
		if err := s.payments.Verify(ctx, reference, b.Amount, b.Currency, id.String()); err != nil {
			return nil, err
		}
		now := s.slots.Now().UTC()
		if err := s.bookings.MarkPaid(ctx, id, reference, now); err != nil {
			return nil, err
		}
		b.PaymentReference = reference
		b.PaidAt = &now
		s.log.Info("payment confirmed", zap.String("booking_id", id.String()))
	}

	return s.runFulfillment(ctx, b)
}

// ResumeFulfillment повторяет незавершённые шаги. Выполненные шаги не повторяются.
func (s *Service) ResumeFulfillment(ctx context.Context, id uuid.UUID) (*Report, error) {
	b, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", apperr.ErrNotPending, id, b.Status)
	}
	if b.Kind == model.BookingKindReservation && b.PaidAt == nil {
		return nil, fmt.Errorf("%w: payment for booking %s is not confirmed", apperr.ErrConflict, id)
	}
	return s.runFulfillment(ctx, b)
}

// stepLease: сколько шаг может оставаться в running, прежде чем его подхватит другой прогон.
const stepLease = 5 * time.Minute

// runFulfillment выполняет шаги по порядку. Сбой шага не останавливает следующие:
// каждый шаг независим и сохраняет своё состояние. Шаг выполняет только прогон,
// захвативший его через Begin; параллельный прогон останавливается на первом
// чужом шаге и оставляет остальные владельцу.
func (s *Service) runFulfillment(ctx context.Context, b *model.Booking) (*Report, error) {
	steps, err := s.steps.Ensure(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("fulfillment steps for %s: %w", b.ID, err)
	}
	states := stepStates(steps)

	report := &Report{BookingID: b.ID}
	for i, name := range model.FulfillmentSteps {
		idx := i + 1
		res := StepResult{Index: idx, Name: name}
		if states[idx] == model.StepStateDone {
			res.State = model.StepStateDone
			res.Skipped = true
			report.Steps = append(report.Steps, res)
			continue
		}

		acquired, err := s.steps.Begin(ctx, b.ID, idx, stepLease)
		if err != nil {
			return report, fmt.Errorf("begin step %d for %s: %w", idx, b.ID, err)
		}
		if !acquired {
			current, err := s.steps.List(ctx, b.ID)
			if err != nil {
				return report, fmt.Errorf("fulfillment steps for %s: %w", b.ID, err)
			}
			states = stepStates(current)
			if states[idx] == model.StepStateDone {
				res.State = model.StepStateDone
				res.Skipped = true
				report.Steps = append(report.Steps, res)
				continue
			}
			s.log.Info("fulfillment is running elsewhere",
				zap.String("booking_id", b.ID.String()),
				zap.Int("step", idx),
			)
			for j := i; j < len(model.FulfillmentSteps); j++ {
				report.Steps = append(report.Steps, StepResult{
					Index:   j + 1,
					Name:    model.FulfillmentSteps[j],
					State:   states[j+1],
					Skipped: true,
				})
			}
			return report, nil
		}

		var detail datatypes.JSON
		switch name {
		case model.StepMeeting:
			detail, res.Err = s.meetingStep(ctx, b)
		case model.StepNotification:
			res.Err = s.confirmStep(ctx, b)
		case model.StepClaim:
			res.Err = s.claimStep(ctx, b)
		}

		res.State = model.StepStateDone
		lastError := ""
		if res.Err != nil {
			res.State = model.StepStateFailed
			lastError = res.Err.Error()
			s.log.Warn("fulfillment step failed",
				zap.String("booking_id", b.ID.String()),
				zap.Int("step", idx),
				zap.String("name", string(name)),
				zap.Error(res.Err),
			)
		}
		if err := s.steps.Record(ctx, b.ID, idx, res.State, lastError, detail); err != nil {
			return report, fmt.Errorf("record step %d for %s: %w", idx, b.ID, err)
		}
		report.Steps = append(report.Steps, res)
	}

	if err := report.Err(); err != nil {
		return report, err
	}
	s.log.Info("booking fulfilled", zap.String("booking_id", b.ID.String()))
	return report, nil
}

func stepStates(steps []model.FulfillmentStep) map[int]model.StepState {
	out := make(map[int]model.StepState, len(steps))
	for _, st := range steps {
		out[st.Step] = st.State
	}
	return out
}

func (s *Service) meetingStep(ctx context.Context, b *model.Booking) (datatypes.JSON, error) {
	slot, err := s.slots.Slot(ctx, b.SlotID)
	if err != nil {
		return nil, err
	}
	cal, err := s.slots.Calendar(ctx, slot.CalendarID)
	if err != nil {
		return nil, err
	}
	tr, err := s.slots.SlotRange(cal, slot.Date, slot.TimeLabel)
	if err != nil {
		return nil, err
	}

	m, err := s.meetings.CreateMeeting(ctx, tr.Start, tr.End, sessionTitle(b), sessionDescription(b))
	if err != nil {
		return nil, err
	}
	if err := s.bookings.SetMeeting(ctx, b.ID, m.JoinLink, m.EventLink); err != nil {
		return nil, err
	}
	b.MeetingLink = m.JoinLink
	b.EventLink = m.EventLink

	raw, err := json.Marshal(map[string]string{
		"join_link":  m.JoinLink,
		"event_link": m.EventLink,
	})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// confirmStep отправляет подтверждение. Ссылка на встречу перечитывается:
// её мог сохранить другой прогон.
func (s *Service) confirmStep(ctx context.Context, b *model.Booking) error {
	cur, err := s.getBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	b.MeetingLink = cur.MeetingLink
	b.EventLink = cur.EventLink
	return s.notify(ctx, b, model.EventConfirmed)
}

// claimStep занимает слот от имени записи. Слот, уже занятый другой записью, даёт конфликт;
// слот, занятый этой же записью, считается занятым.
func (s *Service) claimStep(ctx context.Context, b *model.Booking) error {
	slot, err := s.slots.Slot(ctx, b.SlotID)
	if err != nil {
		return err
	}
	_, err = s.slots.ClaimFor(ctx, b.ID, slot.CalendarID, slot.Date, slot.TimeLabel)
	return err
}

// notify рендерит шаблон события и отправляет письмо клиенту.
// К письмам по платным записям прикладывается счёт.
func (s *Service) notify(ctx context.Context, b *model.Booking, event model.LifecycleEvent) error {
	data, err := s.templateData(ctx, b)
	if err != nil {
		return err
	}
	subject, html, err := s.templates.Render(ctx, b.Kind, event, b.Locale, data)
	if err != nil {
		return err
	}
	msg := notify.Message{To: b.Email, Subject: subject, HTML: html}

	if b.Kind == model.BookingKindReservation && event == model.EventConfirmed {
		inv, err := s.invoices.GetByBookingID(ctx, b.ID)
		switch {
		case err == nil:
			msg.Attachments = append(msg.Attachments, notify.Attachment{
				Filename:    "invoice-" + inv.Number + ".pdf",
				ContentType: "application/pdf",
				Data:        inv.Document,
			})
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}
	}
	return s.notifier.Send(ctx, msg)
}
