package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/model"
)

type InvoiceRepository interface {
	GetByNumber(ctx context.Context, number string) (*model.Invoice, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Invoice, error)
}

type GormInvoiceRepository struct {
	db *gorm.DB
}

func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) GetByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).First(&inv, "number = ?", number).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *GormInvoiceRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).First(&inv, "booking_id = ?", bookingID).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// reserveInvoiceSeq атомарно увеличивает дневной счётчик и возвращает новое значение.
// Вызывается внутри транзакции создания записи: строка счётчика остаётся
// заблокированной до коммита, поэтому параллельные выпуски получают разные номера.
func reserveInvoiceSeq(tx *gorm.DB, day time.Time) (int64, error) {
	key := day.Format(model.DateLayout)

	counter := model.InvoiceCounter{Day: key, LastSeq: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_seq": gorm.Expr("invoice_counters.last_seq + 1"),
		}),
	}).Create(&counter).Error
	if err != nil {
		return 0, err
	}

	if err := tx.First(&counter, "day = ?", key).Error; err != nil {
		return 0, err
	}
	return counter.LastSeq, nil
}
