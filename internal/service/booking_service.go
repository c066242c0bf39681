package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	bookingpb "github.com/Leganyst/session-booking/internal/api/booking/v1"
	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

// BookingService — транспорт жизненного цикла записей.
// Сбои исполнения и уведомлений после сохранения отдаются в теле ответа,
// а не ошибкой вызова: изменение уже зафиксировано.
type BookingService struct {
	bookingpb.UnimplementedBookingServiceServer

	bookings *booking.Service
	log      *zap.Logger
}

func NewBookingService(bookings *booking.Service, log *zap.Logger) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{bookings: bookings, log: log}
}

func parseID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, status.Error(codes.InvalidArgument, "booking_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid booking_id %q", raw)
	}
	return id, nil
}

func proofOf(p *bookingpb.IdentityProof) (booking.IdentityProof, error) {
	if p == nil || p.Token == "" || p.Code == "" {
		return booking.IdentityProof{}, status.Error(codes.InvalidArgument, "identity proof is required")
	}
	return booking.IdentityProof{Token: p.Token, Code: p.Code}, nil
}

// splitStepError отделяет сбой шага исполнения от прочих ошибок.
func splitStepError(err error) (*apperr.StepError, error) {
	var stepErr *apperr.StepError
	if errors.As(err, &stepErr) {
		return stepErr, nil
	}
	return nil, err
}

// externalOnly пропускает в ответ только сбой внешнего сервиса после сохранения.
func externalOnly(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	if errors.Is(err, apperr.ErrExternalService) {
		return err.Error(), nil
	}
	return "", err
}

func (s *BookingService) createdResponse(created *booking.Created, stepErr *apperr.StepError) *bookingpb.CreateBookingResponse {
	resp := &bookingpb.CreateBookingResponse{
		Booking: mapBooking(created.Booking),
		Steps:   mapReport(created.Fulfillment),
	}
	if created.Invoice != nil {
		resp.InvoiceNumber = created.Invoice.Number
		resp.InvoiceDocument = created.Invoice.Document
	}
	if stepErr != nil {
		resp.FailedStep = int32(stepErr.Index)
		resp.Error = stepErr.Error()
		s.log.Warn("booking created with failed fulfillment step",
			zap.String("booking_id", created.Booking.ID.String()),
			zap.Int("step", stepErr.Index),
		)
	}
	return resp
}

func (s *BookingService) CreateFreeTrial(ctx context.Context, req *bookingpb.CreateFreeTrialRequest) (*bookingpb.CreateBookingResponse, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date %q", req.Date)
	}
	proof, err := proofOf(req.Proof)
	if err != nil {
		return nil, err
	}

	created, err := s.bookings.CreateFreeTrial(ctx, booking.FreeTrialInput{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Date:      date,
		TimeLabel: req.TimeLabel,
		Locale:    req.Locale,
		Proof:     proof,
	})
	stepErr, err := splitStepError(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.createdResponse(created, stepErr), nil
}

func (s *BookingService) CreateReservation(ctx context.Context, req *bookingpb.CreateReservationRequest) (*bookingpb.CreateBookingResponse, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date %q", req.Date)
	}
	proof, err := proofOf(req.Proof)
	if err != nil {
		return nil, err
	}

	created, err := s.bookings.CreateReservation(ctx, booking.ReservationInput{
		Email:            req.Email,
		Name:             req.Name,
		Phone:            req.Phone,
		Date:             date,
		TimeLabel:        req.TimeLabel,
		ServiceType:      model.ServiceType(req.ServiceType),
		Amount:           req.Amount,
		Currency:         req.Currency,
		PaymentMethod:    req.PaymentMethod,
		PaymentReference: req.PaymentReference,
		Locale:           req.Locale,
		Proof:            proof,
	})
	stepErr, err := splitStepError(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.createdResponse(created, stepErr), nil
}

func fulfillmentResponse(id uuid.UUID, report *booking.Report, stepErr *apperr.StepError) *bookingpb.FulfillmentResponse {
	resp := &bookingpb.FulfillmentResponse{
		BookingId: id.String(),
		Steps:     mapReport(report),
	}
	if stepErr != nil {
		resp.FailedStep = int32(stepErr.Index)
		resp.Error = stepErr.Error()
	}
	return resp
}

// ConfirmPayment — ручное подтверждение оплаты оператором.
func (s *BookingService) ConfirmPayment(ctx context.Context, req *bookingpb.ConfirmPaymentRequest) (*bookingpb.FulfillmentResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	report, err := s.bookings.ConfirmPayment(ctx, id, req.PaymentReference)
	stepErr, err := splitStepError(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return fulfillmentResponse(id, report, stepErr), nil
}

func (s *BookingService) ResumeFulfillment(ctx context.Context, req *bookingpb.ResumeFulfillmentRequest) (*bookingpb.FulfillmentResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	report, err := s.bookings.ResumeFulfillment(ctx, id)
	stepErr, err := splitStepError(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return fulfillmentResponse(id, report, stepErr), nil
}

func (s *BookingService) Reschedule(ctx context.Context, req *bookingpb.RescheduleRequest) (*bookingpb.RescheduleResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid date %q", req.Date)
	}
	proof, err := proofOf(req.Proof)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.Reschedule(ctx, booking.RescheduleInput{
		BookingID: id,
		Date:      date,
		TimeLabel: req.TimeLabel,
		Proof:     proof,
	})
	if b == nil {
		return nil, toStatus(err)
	}
	notifyErr, err := externalOnly(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.RescheduleResponse{Booking: mapBooking(b), NotificationError: notifyErr}, nil
}

func transitionResponse(res *booking.TransitionResult, err error) (*bookingpb.TransitionResponse, error) {
	if res == nil {
		return nil, toStatus(err)
	}
	notifyErr, err := externalOnly(err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.TransitionResponse{
		Booking:           mapBooking(res.Booking),
		AlreadyInState:    res.AlreadyInState,
		NotificationError: notifyErr,
	}, nil
}

func (s *BookingService) CompleteBooking(ctx context.Context, req *bookingpb.CompleteBookingRequest) (*bookingpb.TransitionResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	return transitionResponse(s.bookings.Complete(ctx, id))
}

func (s *BookingService) CancelBooking(ctx context.Context, req *bookingpb.CancelBookingRequest) (*bookingpb.TransitionResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	return transitionResponse(s.bookings.Cancel(ctx, id))
}

func (s *BookingService) GetBooking(ctx context.Context, req *bookingpb.GetBookingRequest) (*bookingpb.GetBookingResponse, error) {
	id, err := parseID(req.BookingId)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	steps, err := s.bookings.Steps(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.GetBookingResponse{Booking: mapBooking(b), Steps: mapStepRecords(steps)}, nil
}

func (s *BookingService) ListBookings(ctx context.Context, req *bookingpb.ListBookingsRequest) (*bookingpb.ListBookingsResponse, error) {
	page, size := calendar.NormalizePage(int(req.Page), int(req.PageSize))

	bookings, total, err := s.bookings.List(ctx, repository.BookingFilter{
		Kind:   model.BookingKind(req.Kind),
		Status: model.BookingStatus(req.Status),
		Email:  req.Email,
		Limit:  size,
		Offset: calendar.Offset(page, size),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &bookingpb.ListBookingsResponse{
		Bookings: make([]*bookingpb.Booking, 0, len(bookings)),
		Page:     int32(page),
		PageSize: int32(size),
		HasNext:  int64(page*size) < total,
		Total:    int32(total),
	}
	for i := range bookings {
		resp.Bookings = append(resp.Bookings, mapBooking(&bookings[i]))
	}
	return resp, nil
}

func (s *BookingService) GetInvoice(ctx context.Context, req *bookingpb.GetInvoiceRequest) (*bookingpb.GetInvoiceResponse, error) {
	if req.Number == "" {
		return nil, status.Error(codes.InvalidArgument, "number is required")
	}
	inv, err := s.bookings.Invoice(ctx, req.Number)
	if err != nil {
		return nil, toStatus(err)
	}
	return &bookingpb.GetInvoiceResponse{
		Number:    inv.Number,
		BookingId: inv.BookingID.String(),
		IssuedAt:  timestamppb.New(inv.IssuedAt),
		Document:  inv.Document,
	}, nil
}
