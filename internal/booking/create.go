package booking

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/invoice"
	"github.com/Leganyst/session-booking/internal/model"
)

// CreateFreeTrial создаёт пробную запись и сразу запускает исполнение.
// Если какой-то шаг исполнения упал, возвращается и результат, и *apperr.StepError:
// запись при этом уже сохранена.
func (s *Service) CreateFreeTrial(ctx context.Context, in FreeTrialInput) (*Created, error) {
	email, err := checkEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, apperr.Validation("phone is required")
	}
	locale, err := normalizeLocale(in.Locale)
	if err != nil {
		return nil, err
	}
	if in.TimeLabel == "" {
		return nil, apperr.Validation("time label is required")
	}

	if err := s.verifyIdentity(ctx, email, in.Proof); err != nil {
		return nil, err
	}

	slot, _, tr, err := s.lookupSlot(ctx, model.CalendarFreeTrial, in.Date, in.TimeLabel)
	if err != nil {
		return nil, err
	}

	b := &model.Booking{
		Kind:     model.BookingKindFreeTrial,
		Email:    email,
		Name:     name,
		Phone:    phone,
		SlotID:   slot.ID,
		DateTime: tr.Start.UTC(),
		Locale:   locale,
		Slot:     slot,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("free trial booking created",
		zap.String("booking_id", b.ID.String()), zap.String("slot", slot.Key().String()))

	report, err := s.runFulfillment(ctx, b)
	return &Created{Booking: b, Fulfillment: report}, err
}

// lookupSlot находит бронируемый слот и его интервал в поясе календаря.
func (s *Service) lookupSlot(
	ctx context.Context,
	calendarID string,
	date datatypes.Date,
	label string,
) (*model.Slot, *model.Calendar, calendar.TimeRange, error) {
	slot, err := s.slots.Lookup(ctx, calendarID, date, label)
	if err != nil {
		return nil, nil, calendar.TimeRange{}, err
	}
	cal, err := s.slots.Calendar(ctx, calendarID)
	if err != nil {
		return nil, nil, calendar.TimeRange{}, err
	}
	tr, err := s.slots.SlotRange(cal, slot.Date, slot.TimeLabel)
	if err != nil {
		return nil, nil, calendar.TimeRange{}, err
	}
	return slot, cal, tr, nil
}

// CreateReservation создаёт платную pending-запись и выпускает к ней счёт в одной транзакции.
// Если во входе уже есть платёжная ссылка, оплата проверяется до записи,
// а исполнение запускается сразу.
func (s *Service) CreateReservation(ctx context.Context, in ReservationInput) (*Created, error) {
	email, err := checkEmail(in.Email)
	if err != nil {
		return nil, err
	}
	switch in.ServiceType {
	case model.ServiceTypeOnline, model.ServiceTypeInPerson:
	default:
		return nil, apperr.Validation("unknown service type %q", in.ServiceType)
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}
	method := strings.TrimSpace(in.PaymentMethod)
	if method == "" {
		return nil, apperr.Validation("payment method is required")
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = strings.ToUpper(s.currency)
	}
	locale, err := normalizeLocale(in.Locale)
	if err != nil {
		return nil, err
	}
	if in.TimeLabel == "" {
		return nil, apperr.Validation("time label is required")
	}

	if err := s.verifyIdentity(ctx, email, in.Proof); err != nil {
		return nil, err
	}

	slot, cal, tr, err := s.lookupSlot(ctx, model.CalendarReservation, in.Date, in.TimeLabel)
	if err != nil {
		return nil, err
	}

	reference := strings.TrimSpace(in.PaymentReference)
	if reference != "" {
		if err := s.payments.Verify(ctx, reference, in.Amount, currency, ""); err != nil {
			return nil, err
		}
	}

	now := s.slots.Now().UTC()
	b := &model.Booking{
		Kind:             model.BookingKindReservation,
		Email:            email,
		Name:             strings.TrimSpace(in.Name),
		Phone:            strings.TrimSpace(in.Phone),
		SlotID:           slot.ID,
		DateTime:         tr.Start.UTC(),
		ServiceType:      in.ServiceType,
		Amount:           in.Amount,
		Currency:         currency,
		PaymentMethod:    method,
		PaymentReference: reference,
		Locale:           locale,
		Slot:             slot,
	}
	if reference != "" {
		b.PaidAt = &now
	}

	doc := invoice.Document{
		IssuedAt:         now,
		BillTo:           invoice.Party{Name: b.Name, Email: b.Email, Phone: b.Phone},
		ServiceType:      b.ServiceType,
		SessionTime:      calendar.FormatSlotForUser(tr, cal.Location(), model.LocaleEN),
		Amount:           b.Amount,
		Currency:         b.Currency,
		PaymentMethod:    b.PaymentMethod,
		PaymentReference: b.PaymentReference,
	}
	day := s.issuer.Day(now)

	inv, err := s.bookings.CreateWithInvoice(ctx, b, day, func(seq int64) (string, []byte, error) {
		return s.issuer.Issue(day, seq, doc)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("reservation created",
		zap.String("booking_id", b.ID.String()),
		zap.String("invoice", inv.Number),
		zap.Bool("paid", b.PaidAt != nil),
	)

	created := &Created{Booking: b, Invoice: inv}
	if b.PaidAt == nil {
		return created, nil
	}
	created.Fulfillment, err = s.runFulfillment(ctx, b)
	return created, err
}
