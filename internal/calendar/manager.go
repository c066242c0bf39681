package calendar

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

// BatchResult — итог пакетной правки: актуальный список и пропущенные занятые слоты.
type BatchResult struct {
	Slots   []model.Slot
	Skipped []repository.SlotEdit
}

// Manager — чтение доступности и атомарные операции над слотами календарей.
// Состояния в памяти нет: корректность обеспечивают условные записи в базе.
type Manager struct {
	calendars repository.CalendarRepository
	slots     repository.SlotRepository
	log       *zap.Logger
	now       func() time.Time
}

func NewManager(calendars repository.CalendarRepository, slots repository.SlotRepository, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		calendars: calendars,
		slots:     slots,
		log:       log,
		now:       time.Now,
	}
}

// WithClock подменяет источник текущего времени (для тестов).
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Now возвращает текущее время по часам менеджера.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Calendar возвращает описание календаря.
func (m *Manager) Calendar(ctx context.Context, calendarID string) (*model.Calendar, error) {
	cal, err := m.calendars.Get(ctx, calendarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: calendar %q", apperr.ErrNotFound, calendarID)
		}
		return nil, err
	}
	return cal, nil
}

func (m *Manager) today(cal *model.Calendar) datatypes.Date {
	return model.DateOnly(m.now().In(cal.Location()))
}

// ListSlots возвращает неистёкшие слоты календаря, попутно удаляя прошедшие.
func (m *Manager) ListSlots(ctx context.Context, calendarID string) ([]model.Slot, error) {
	cal, err := m.Calendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	today := m.today(cal)

	if n, err := m.slots.PurgeBefore(ctx, cal.ID, today); err != nil {
		// истёкшие слоты всё равно отфильтруются по дате
		m.log.Warn("purge expired slots failed", zap.String("calendar", cal.ID), zap.Error(err))
	} else if n > 0 {
		m.log.Debug("purged expired slots", zap.String("calendar", cal.ID), zap.Int64("count", n))
	}

	return m.slots.ListFrom(ctx, cal.ID, today)
}

func (m *Manager) checkLabel(cal *model.Calendar, label string) error {
	if _, _, err := ParseLabel(label); err != nil {
		return err
	}
	labels, err := cal.LabelList()
	if err != nil {
		return fmt.Errorf("calendar %s labels: %w", cal.ID, err)
	}
	if !slices.Contains(labels, label) {
		return fmt.Errorf("%w: %q in calendar %s", apperr.ErrInvalidLabel, label, cal.ID)
	}
	return nil
}

func (m *Manager) key(ctx context.Context, calendarID string, date datatypes.Date, label string) (*model.Calendar, model.SlotKey, error) {
	cal, err := m.Calendar(ctx, calendarID)
	if err != nil {
		return nil, model.SlotKey{}, err
	}
	if err := m.checkLabel(cal, label); err != nil {
		return nil, model.SlotKey{}, err
	}
	return cal, model.SlotKey{CalendarID: cal.ID, Date: model.DateOnly(time.Time(date)), TimeLabel: label}, nil
}

// Claim переводит слот в booked одной условной записью.
// Проигравший гонку получает ConflictError.
func (m *Manager) Claim(ctx context.Context, calendarID string, date datatypes.Date, label string) (*model.Slot, error) {
	return m.ClaimFor(ctx, uuid.Nil, calendarID, date, label)
}

// ClaimFor занимает слот от имени записи. Повтор той же записью не конфликтует.
func (m *Manager) ClaimFor(
	ctx context.Context,
	bookingID uuid.UUID,
	calendarID string,
	date datatypes.Date,
	label string,
) (*model.Slot, error) {
	cal, key, err := m.key(ctx, calendarID, date, label)
	if err != nil {
		return nil, err
	}

	ok, err := m.slots.Claim(ctx, key, bookingID)
	if err != nil {
		return nil, fmt.Errorf("claim slot %s: %w", key, err)
	}
	if !ok && cal.AllowImplicit {
		ok, err = m.slots.ClaimAbsent(ctx, key, bookingID)
		if err != nil {
			return nil, fmt.Errorf("claim slot %s: %w", key, err)
		}
	}
	if !ok {
		return nil, m.unavailable(ctx, key)
	}

	m.log.Info("slot claimed", zap.String("slot", key.String()))
	return m.slots.GetByKey(ctx, key)
}

// unavailable уточняет причину отказа только для сообщения об ошибке.
func (m *Manager) unavailable(ctx context.Context, key model.SlotKey) error {
	slot, err := m.slots.GetByKey(ctx, key)
	if err == nil && slot.Status == model.SlotStatusBooked {
		return fmt.Errorf("%w: %s", apperr.ErrSlotBooked, key)
	}
	return fmt.Errorf("%w: %s", apperr.ErrSlotUnavailable, key)
}

// Release возвращает занятый слот в available. false — слот не был занят.
func (m *Manager) Release(ctx context.Context, slotID uuid.UUID) (bool, error) {
	ok, err := m.slots.Release(ctx, slotID, uuid.Nil)
	if err != nil {
		return false, fmt.Errorf("release slot %s: %w", slotID, err)
	}
	if ok {
		m.log.Info("slot released", zap.String("slot_id", slotID.String()))
	}
	return ok, nil
}

func checkAdminStatus(status model.SlotStatus) error {
	if status == model.SlotStatusBooked {
		return apperr.Validation("status %q can only be set by a claim", status)
	}
	if !status.Valid() {
		return apperr.Validation("unknown slot status %q", status)
	}
	return nil
}

// SetStatus — прямая административная запись. Занятый слот не меняется,
// отказ возвращается как apperr.ErrSlotBooked.
func (m *Manager) SetStatus(
	ctx context.Context,
	calendarID string,
	date datatypes.Date,
	label string,
	status model.SlotStatus,
) (*model.Slot, error) {
	if err := checkAdminStatus(status); err != nil {
		return nil, err
	}
	_, key, err := m.key(ctx, calendarID, date, label)
	if err != nil {
		return nil, err
	}

	ok, err := m.slots.SetStatus(ctx, key, status)
	if err != nil {
		return nil, fmt.Errorf("set slot status %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSlotBooked, key)
	}
	return m.slots.GetByKey(ctx, key)
}

// ApplyBatch применяет пакет правок в одной транзакции. Правки занятых слотов
// пропускаются и перечисляются в Skipped.
func (m *Manager) ApplyBatch(ctx context.Context, calendarID string, edits []repository.SlotEdit) (*BatchResult, error) {
	cal, err := m.Calendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	normalized := make([]repository.SlotEdit, 0, len(edits))
	for i, e := range edits {
		if err := checkAdminStatus(e.Status); err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		if err := m.checkLabel(cal, e.TimeLabel); err != nil {
			return nil, fmt.Errorf("edit %d: %w", i, err)
		}
		e.Date = model.DateOnly(time.Time(e.Date))
		normalized = append(normalized, e)
	}

	skipped, err := m.slots.ApplyBatch(ctx, cal.ID, normalized)
	if err != nil {
		return nil, fmt.Errorf("apply batch: %w", err)
	}
	if len(skipped) > 0 {
		m.log.Info("batch edits skipped for booked slots",
			zap.String("calendar", cal.ID), zap.Int("skipped", len(skipped)))
	}

	slots, err := m.ListSlots(ctx, cal.ID)
	if err != nil {
		return nil, err
	}
	return &BatchResult{Slots: slots, Skipped: skipped}, nil
}

// Lookup возвращает слот, который можно забронировать: он должен быть в будущем
// и в состоянии available. В календарях с неявными слотами отсутствующая строка
// создаётся свободной.
func (m *Manager) Lookup(ctx context.Context, calendarID string, date datatypes.Date, label string) (*model.Slot, error) {
	cal, key, err := m.key(ctx, calendarID, date, label)
	if err != nil {
		return nil, err
	}

	tr, err := m.SlotRange(cal, key.Date, label)
	if err != nil {
		return nil, err
	}
	if !tr.Start.After(m.now()) {
		return nil, apperr.Validation("slot %s is in the past", key)
	}

	slot, err := m.slots.GetByKey(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if !cal.AllowImplicit {
			return nil, fmt.Errorf("%w: %s", apperr.ErrSlotUnavailable, key)
		}
		slot, err = m.slots.EnsureAvailable(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup slot %s: %w", key, err)
	}

	switch slot.Status {
	case model.SlotStatusAvailable:
		return slot, nil
	case model.SlotStatusBooked:
		return nil, fmt.Errorf("%w: %s", apperr.ErrSlotBooked, key)
	default:
		return nil, fmt.Errorf("%w: %s", apperr.ErrSlotUnavailable, key)
	}
}

// Slot возвращает слот по ID.
func (m *Manager) Slot(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	slot, err := m.slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: slot %s", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	return slot, nil
}

// PurgeExpired удаляет прошедшие слоты во всех календарях.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	cals, err := m.calendars.List(ctx)
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range cals {
		n, err := m.slots.PurgeBefore(ctx, cals[i].ID, m.today(&cals[i]))
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", cals[i].ID, err)
		}
		total += n
	}
	return total, nil
}

// SlotRange переводит (дата, метка) в конкретный интервал в часовом поясе календаря.
func (m *Manager) SlotRange(cal *model.Calendar, date datatypes.Date, label string) (TimeRange, error) {
	return LabelRange(time.Time(date), label, cal.Location())
}
