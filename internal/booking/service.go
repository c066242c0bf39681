// Package booking ведёт жизненный цикл пробных и платных записей:
// создание pending-записи со счётом, последовательность исполнения после
// оплаты (встреча, уведомление, занятие слота), перенос и операторские переходы.
package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/invoice"
	"github.com/Leganyst/session-booking/internal/meeting"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/notify"
	"github.com/Leganyst/session-booking/internal/payment"
	"github.com/Leganyst/session-booking/internal/repository"
)

// IdentityVerifier — внешняя проверка одноразового кода. Ядру нужен только bool.
type IdentityVerifier interface {
	Verify(ctx context.Context, email, token, code string) (bool, error)
}

// Renderer ищет и рендерит шаблон письма.
type Renderer interface {
	Render(ctx context.Context, kind model.BookingKind, event model.LifecycleEvent, locale string, data notify.TemplateData) (string, string, error)
}

type Deps struct {
	Bookings repository.BookingRepository
	Invoices repository.InvoiceRepository
	Steps    repository.FulfillmentRepository
	Slots    *calendar.Manager
	Issuer   *invoice.Issuer

	Identity  IdentityVerifier
	Meetings  meeting.Provider
	Notifier  notify.Sender
	Templates Renderer
	Payments  payment.Verifier

	// Валюта по умолчанию для платных записей.
	Currency string
	Log      *zap.Logger
}

type Service struct {
	bookings repository.BookingRepository
	invoices repository.InvoiceRepository
	steps    repository.FulfillmentRepository
	slots    *calendar.Manager
	issuer   *invoice.Issuer

	identity  IdentityVerifier
	meetings  meeting.Provider
	notifier  notify.Sender
	templates Renderer
	payments  payment.Verifier

	currency string
	log      *zap.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings:  d.Bookings,
		invoices:  d.Invoices,
		steps:     d.Steps,
		slots:     d.Slots,
		issuer:    d.Issuer,
		identity:  d.Identity,
		meetings:  d.Meetings,
		notifier:  d.Notifier,
		templates: d.Templates,
		payments:  d.Payments,
		currency:  d.Currency,
		log:       log,
	}
}

// IdentityProof — токен, выданный при отправке кода, и сам код.
type IdentityProof struct {
	Token string
	Code  string
}

type FreeTrialInput struct {
	Name      string
	Phone     string
	Email     string
	Date      datatypes.Date
	TimeLabel string
	Locale    string
	Proof     IdentityProof
}

type ReservationInput struct {
	Email       string
	Name        string
	Phone       string
	Date        datatypes.Date
	TimeLabel   string
	ServiceType model.ServiceType
	Amount      int64
	Currency    string

	PaymentMethod string
	// Если ссылка уже есть, оплата проверяется до записи и исполнение запускается сразу.
	PaymentReference string

	Locale string
	Proof  IdentityProof
}

// Created — результат создания записи.
type Created struct {
	Booking *model.Booking
	Invoice *model.Invoice
	// nil, если исполнение ещё не запускалось (платная запись без оплаты).
	Fulfillment *Report
}

func (s *Service) verifyIdentity(ctx context.Context, email string, proof IdentityProof) error {
	ok, err := s.identity.Verify(ctx, email, proof.Token, proof.Code)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrIdentityRejected
	}
	return nil
}

func normalizeLocale(locale string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(locale)); l {
	case "":
		return model.LocaleEN, nil
	case model.LocaleEN, model.LocaleJA:
		return l, nil
	default:
		return "", apperr.Validation("unsupported locale %q", locale)
	}
}

func checkEmail(email string) (string, error) {
	email = repository.NormalizeEmail(email)
	if email == "" {
		return "", apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperr.Validation("invalid email %q", email)
	}
	return email, nil
}

func (s *Service) getBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return b, nil
}

// Get возвращает запись по ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.getBooking(ctx, id)
}

// List — список записей для оператора.
func (s *Service) List(ctx context.Context, f repository.BookingFilter) ([]model.Booking, int64, error) {
	return s.bookings.List(ctx, f)
}

// Steps возвращает состояние шагов исполнения записи.
func (s *Service) Steps(ctx context.Context, id uuid.UUID) ([]model.FulfillmentStep, error) {
	if _, err := s.getBooking(ctx, id); err != nil {
		return nil, err
	}
	return s.steps.List(ctx, id)
}

// Invoice возвращает счёт по номеру.
func (s *Service) Invoice(ctx context.Context, number string) (*model.Invoice, error) {
	inv, err := s.invoices.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", apperr.ErrNotFound, number)
		}
		return nil, err
	}
	return inv, nil
}
