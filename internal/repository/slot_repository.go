package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/model"
)

// SlotEdit — одна административная правка статуса слота.
type SlotEdit struct {
	Date      datatypes.Date
	TimeLabel string
	Status    model.SlotStatus
}

type SlotRepository interface {
	// Слоты календаря начиная с даты from, упорядоченные по (date, time_label).
	ListFrom(ctx context.Context, calendarID string, from datatypes.Date) ([]model.Slot, error)
	// Удалить прошедшие слоты, на которые не ссылаются записи. Пустой calendarID — все календари.
	PurgeBefore(ctx context.Context, calendarID string, before datatypes.Date) (int64, error)
	// Найти слот по ключу.
	GetByKey(ctx context.Context, key model.SlotKey) (*model.Slot, error)
	// Найти слот по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// Условный переход available -> booked. Слот, уже занятый той же записью
	// bookingID, тоже считается занятым успешно. uuid.Nil — занять без записи.
	// false — слот не был свободен.
	Claim(ctx context.Context, key model.SlotKey, bookingID uuid.UUID) (bool, error)
	// Вставка сразу занятого слота, если строки ещё нет.
	ClaimAbsent(ctx context.Context, key model.SlotKey, bookingID uuid.UUID) (bool, error)
	// Условный переход booked -> available. С bookingID освобождается
	// только слот, занятый этой записью.
	Release(ctx context.Context, id uuid.UUID, bookingID uuid.UUID) (bool, error)
	// Upsert статуса, не трогающий занятые слоты. false — слот занят.
	SetStatus(ctx context.Context, key model.SlotKey, status model.SlotStatus) (bool, error)
	// Пакет правок в одной транзакции; возвращает пропущенные (занятые) правки.
	ApplyBatch(ctx context.Context, calendarID string, edits []SlotEdit) ([]SlotEdit, error)
	// Создать свободный слот, если его ещё нет.
	EnsureAvailable(ctx context.Context, key model.SlotKey) (*model.Slot, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func whereKey(q *gorm.DB, key model.SlotKey) *gorm.DB {
	return q.Where("calendar_id = ? AND date = ? AND time_label = ?", key.CalendarID, key.Date, key.TimeLabel)
}

func (r *GormSlotRepository) ListFrom(ctx context.Context, calendarID string, from datatypes.Date) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Where("date >= ?", from).
		Order("date ASC").
		Order("time_label ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) PurgeBefore(ctx context.Context, calendarID string, before datatypes.Date) (int64, error) {
	referenced := r.db.Model(&model.Booking{}).Select("slot_id")

	q := r.db.WithContext(ctx).
		Where("date < ?", before).
		Where("id NOT IN (?)", referenced)
	if calendarID != "" {
		q = q.Where("calendar_id = ?", calendarID)
	}

	res := q.Delete(&model.Slot{})
	return res.RowsAffected, res.Error
}

func (r *GormSlotRepository) GetByKey(ctx context.Context, key model.SlotKey) (*model.Slot, error) {
	return getSlotByKey(r.db.WithContext(ctx), key)
}

func getSlotByKey(db *gorm.DB, key model.SlotKey) (*model.Slot, error) {
	var slot model.Slot
	if err := whereKey(db, key).First(&slot).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) Claim(ctx context.Context, key model.SlotKey, bookingID uuid.UUID) (bool, error) {
	return claimSlot(r.db.WithContext(ctx), key, bookingID)
}

func claimant(bookingID uuid.UUID) *uuid.UUID {
	if bookingID == uuid.Nil {
		return nil
	}
	return &bookingID
}

// claimSlot — единственная условная запись, без предварительного чтения.
func claimSlot(db *gorm.DB, key model.SlotKey, bookingID uuid.UUID) (bool, error) {
	q := whereKey(db.Model(&model.Slot{}), key)
	if bookingID == uuid.Nil {
		q = q.Where("status = ?", model.SlotStatusAvailable)
	} else {
		q = q.Where("(status = ? OR (status = ? AND booked_by = ?))",
			model.SlotStatusAvailable, model.SlotStatusBooked, bookingID)
	}
	res := q.Updates(map[string]any{
		"status":     model.SlotStatusBooked,
		"booked_by":  claimant(bookingID),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) ClaimAbsent(ctx context.Context, key model.SlotKey, bookingID uuid.UUID) (bool, error) {
	slot := model.Slot{
		CalendarID: key.CalendarID,
		Date:       key.Date,
		TimeLabel:  key.TimeLabel,
		Status:     model.SlotStatusBooked,
		BookedBy:   claimant(bookingID),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: slotKeyColumns(), DoNothing: true}).
		Create(&slot)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) Release(ctx context.Context, id uuid.UUID, bookingID uuid.UUID) (bool, error) {
	return releaseSlot(r.db.WithContext(ctx), id, bookingID)
}

func releaseSlot(db *gorm.DB, id uuid.UUID, bookingID uuid.UUID) (bool, error) {
	q := db.Model(&model.Slot{}).Where("id = ? AND status = ?", id, model.SlotStatusBooked)
	if bookingID != uuid.Nil {
		q = q.Where("booked_by = ?", bookingID)
	}
	res := q.Updates(map[string]any{
		"status":     model.SlotStatusAvailable,
		"booked_by":  nil,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) SetStatus(ctx context.Context, key model.SlotKey, status model.SlotStatus) (bool, error) {
	return upsertUnlessBooked(r.db.WithContext(ctx), key, status)
}

func (r *GormSlotRepository) ApplyBatch(ctx context.Context, calendarID string, edits []SlotEdit) ([]SlotEdit, error) {
	var skipped []SlotEdit
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skipped = skipped[:0]
		for _, e := range edits {
			key := model.SlotKey{CalendarID: calendarID, Date: e.Date, TimeLabel: e.TimeLabel}
			applied, err := upsertUnlessBooked(tx, key, e.Status)
			if err != nil {
				return err
			}
			if !applied {
				skipped = append(skipped, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return skipped, nil
}

// upsertUnlessBooked вставляет слот или меняет статус существующего,
// если тот не занят. Ключ при этом никогда не дублируется.
func upsertUnlessBooked(db *gorm.DB, key model.SlotKey, status model.SlotStatus) (bool, error) {
	slot := model.Slot{
		CalendarID: key.CalendarID,
		Date:       key.Date,
		TimeLabel:  key.TimeLabel,
		Status:     status,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   slotKeyColumns(),
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Neq{Column: clause.Column{Table: "slots", Name: "status"}, Value: model.SlotStatusBooked},
		}},
	}).Create(&slot)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormSlotRepository) EnsureAvailable(ctx context.Context, key model.SlotKey) (*model.Slot, error) {
	db := r.db.WithContext(ctx)
	slot := model.Slot{
		CalendarID: key.CalendarID,
		Date:       key.Date,
		TimeLabel:  key.TimeLabel,
		Status:     model.SlotStatusAvailable,
	}
	err := db.Clauses(clause.OnConflict{Columns: slotKeyColumns(), DoNothing: true}).
		Create(&slot).Error
	if err != nil {
		return nil, err
	}
	return getSlotByKey(db, key)
}

func slotKeyColumns() []clause.Column {
	return []clause.Column{{Name: "calendar_id"}, {Name: "date"}, {Name: "time_label"}}
}
