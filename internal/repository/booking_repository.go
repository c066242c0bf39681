package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
)

// IssueFunc строит номер и документ счёта по зарезервированному порядковому номеру дня.
type IssueFunc func(seq int64) (number string, document []byte, err error)

// BookingFilter — фильтр списка записей для оператора.
type BookingFilter struct {
	Kind   model.BookingKind
	Status model.BookingStatus
	Email  string
	Limit  int
	Offset int
}

// RescheduleParams описывает перенос записи на другой слот.
type RescheduleParams struct {
	BookingID   uuid.UUID
	OldSlotID   uuid.UUID
	NewSlot     model.SlotKey
	NewDateTime time.Time
	// MoveClaim — старый слот занят этой записью: занять новый и освободить старый.
	MoveClaim bool
}

type BookingRepository interface {
	// Создать pending-запись. Дубликат pending по email -> apperr.ErrPendingExists,
	// уже использованная платёжная ссылка -> apperr.ErrPaymentReused.
	Create(ctx context.Context, booking *model.Booking) error
	// Создать pending-запись и счёт к ней в одной транзакции.
	CreateWithInvoice(ctx context.Context, booking *model.Booking, day time.Time, issue IssueFunc) (*model.Invoice, error)
	// Получить запись по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Список записей с пагинацией.
	List(ctx context.Context, f BookingFilter) ([]model.Booking, int64, error)
	// Сохранить платёжную ссылку у pending-записи. Ссылка другой записи -> apperr.ErrPaymentReused.
	MarkPaid(ctx context.Context, id uuid.UUID, reference string, paidAt time.Time) error
	// Сохранить ссылки на встречу.
	SetMeeting(ctx context.Context, id uuid.UUID, meetingLink, eventLink string) error
	// Условный переход статуса; release — вернуть слот в available, если его заняла эта запись.
	Transition(ctx context.Context, id uuid.UUID, from, to model.BookingStatus, at time.Time, release bool) (bool, error)
	// Однократный перенос pending-записи.
	Reschedule(ctx context.Context, p RescheduleParams) error
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return createPending(r.db.WithContext(ctx), booking)
}

func createPending(db *gorm.DB, booking *model.Booking) error {
	booking.Email = NormalizeEmail(booking.Email)
	booking.Status = model.BookingStatusPending

	if booking.PaymentReference != "" {
		used, err := referenceUsed(db, booking.PaymentReference)
		if err != nil {
			return err
		}
		if used {
			return apperr.ErrPaymentReused
		}
	}

	// слот меняется только условными записями, не через ассоциацию
	if err := db.Omit(clause.Associations).Create(booking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if booking.PaymentReference != "" {
				// гонка с другой записью: индекс не говорит, по email или по платежу
				return fmt.Errorf("%w: pending booking or payment reference already exists", apperr.ErrConflict)
			}
			return apperr.ErrPendingExists
		}
		return err
	}
	return nil
}

func referenceUsed(db *gorm.DB, reference string) (bool, error) {
	var n int64
	err := db.Model(&model.Booking{}).Where("payment_reference = ?", reference).Count(&n).Error
	return n > 0, err
}

func (r *GormBookingRepository) CreateWithInvoice(
	ctx context.Context,
	booking *model.Booking,
	day time.Time,
	issue IssueFunc,
) (*model.Invoice, error) {
	var inv *model.Invoice
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createPending(tx, booking); err != nil {
			return err
		}

		seq, err := reserveInvoiceSeq(tx, day)
		if err != nil {
			return fmt.Errorf("reserve invoice number: %w", err)
		}
		number, doc, err := issue(seq)
		if err != nil {
			return fmt.Errorf("issue invoice: %w", err)
		}

		inv = &model.Invoice{
			Number:    number,
			BookingID: booking.ID,
			Document:  doc,
			IssuedAt:  time.Now().UTC(),
		}
		if err := tx.Create(inv).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.ErrInvoiceCollision
			}
			return err
		}

		res := tx.Model(&model.Booking{}).Where("id = ?", booking.ID).Update("invoice_number", number)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return apperr.ErrInvoiceCollision
			}
			return res.Error
		}
		booking.InvoiceNumber = &number
		return nil
	})
	if err != nil {
		booking.InvoiceNumber = nil
		return nil, err
	}
	return inv, nil
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).Preload("Slot").First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) List(ctx context.Context, f BookingFilter) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).Model(&model.Booking{})
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Email != "" {
		q = q.Where("email = ?", NormalizeEmail(f.Email))
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	if err := q.Preload("Slot").Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

func (r *GormBookingRepository) MarkPaid(ctx context.Context, id uuid.UUID, reference string, paidAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, model.BookingStatusPending).
		Updates(map[string]any{
			"payment_reference": reference,
			"paid_at":           paidAt,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperr.ErrPaymentReused
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotPending
	}
	return nil
}

func (r *GormBookingRepository) SetMeeting(ctx context.Context, id uuid.UUID, meetingLink, eventLink string) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"meeting_link": meetingLink,
			"event_link":   eventLink,
		}).
		Error
}

func (r *GormBookingRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from, to model.BookingStatus,
	at time.Time,
	release bool,
) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := map[string]any{
			"status": to,
		}
		if to == model.BookingStatusCanceled {
			update["canceled_at"] = at
		}

		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ?", id, from).
			Updates(update)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true

		if !release {
			return nil
		}
		var b model.Booking
		if err := tx.Select("slot_id").First(&b, "id = ?", id).Error; err != nil {
			return err
		}
		_, err := releaseSlot(tx, b.SlotID, id)
		return err
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func (r *GormBookingRepository) Reschedule(ctx context.Context, p RescheduleParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newSlot, err := getSlotByKey(tx, p.NewSlot)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrSlotUnavailable
			}
			return err
		}
		if newSlot.ID == p.OldSlotID {
			return apperr.Validation("new slot equals the current one")
		}

		if p.MoveClaim {
			ok, err := claimSlot(tx, p.NewSlot, p.BookingID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.ErrSlotUnavailable
			}
			if _, err := releaseSlot(tx, p.OldSlotID, p.BookingID); err != nil {
				return err
			}
		} else if newSlot.Status != model.SlotStatusAvailable {
			return apperr.ErrSlotUnavailable
		}

		res := tx.Model(&model.Booking{}).
			Where("id = ? AND status = ? AND is_edited = ?", p.BookingID, model.BookingStatusPending, false).
			Updates(map[string]any{
				"slot_id":   newSlot.ID,
				"date_time": p.NewDateTime,
				"is_edited": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// откатываем перенос занятости слота вместе с транзакцией
			return apperr.ErrAlreadyEdited
		}
		return nil
	})
}
