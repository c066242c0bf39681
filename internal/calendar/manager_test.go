package calendar_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/calendar"
	"github.com/Leganyst/session-booking/internal/dbtest"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

var now = time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)

func newManager(t *testing.T) (*calendar.Manager, *gorm.DB) {
	t.Helper()
	gdb := dbtest.Open(t)
	m := calendar.NewManager(
		repository.NewGormCalendarRepository(gdb),
		repository.NewGormSlotRepository(gdb),
		nil,
	).WithClock(func() time.Time { return now })
	return m, gdb
}

func date(t *testing.T, s string) datatypes.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func TestManager_ClaimScenario(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	d := date(t, "2025-11-20")
	const label = "08:00-08:15"

	if _, err := m.SetStatus(ctx, model.CalendarFreeTrial, d, label, model.SlotStatusAvailable); err != nil {
		t.Fatalf("set available: %v", err)
	}

	// клиент A занимает слот
	slot, err := m.Claim(ctx, model.CalendarFreeTrial, d, label)
	if err != nil {
		t.Fatalf("claim A: %v", err)
	}
	if slot.Status != model.SlotStatusBooked {
		t.Fatalf("expected booked, got %s", slot.Status)
	}

	// клиент B получает конфликт
	if _, err := m.Claim(ctx, model.CalendarFreeTrial, d, label); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("claim B: expected conflict, got %v", err)
	}

	// админ не может закрыть занятый слот
	if _, err := m.SetStatus(ctx, model.CalendarFreeTrial, d, label, model.SlotStatusClosed); !errors.Is(err, apperr.ErrSlotBooked) {
		t.Fatalf("set closed: expected ErrSlotBooked, got %v", err)
	}

	slots, err := m.ListSlots(ctx, model.CalendarFreeTrial)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 1 || slots[0].Status != model.SlotStatusBooked {
		t.Fatalf("slot must remain booked, got %+v", slots)
	}
}

func TestManager_ConcurrentClaims(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	d := date(t, "2025-11-21")
	const label = "10:00-11:30"

	if _, err := m.SetStatus(ctx, model.CalendarReservation, d, label, model.SlotStatusAvailable); err != nil {
		t.Fatalf("set available: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Claim(ctx, model.CalendarReservation, d, label)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, apperr.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != 9 {
		t.Fatalf("expected 1 ok and 9 conflicts, got %d and %d", ok, conflicts)
	}
}

func TestManager_InvalidLabel(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	d := date(t, "2025-11-20")

	// метка из другого календаря
	_, err := m.Claim(ctx, model.CalendarFreeTrial, d, "10:00-11:30")
	if !errors.Is(err, apperr.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	if _, err := m.SetStatus(ctx, model.CalendarReservation, d, "garbage", model.SlotStatusAvailable); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestManager_SetStatus_RejectsBookedTarget(t *testing.T) {
	m, _ := newManager(t)
	_, err := m.SetStatus(context.Background(), model.CalendarFreeTrial, date(t, "2025-11-20"), "08:00-08:15", model.SlotStatusBooked)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestManager_UnknownCalendar(t *testing.T) {
	m, _ := newManager(t)
	if _, err := m.ListSlots(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestManager_ListSlots_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	m, gdb := newManager(t)

	// прошедший слот кладём напрямую, в обход менеджера
	past := model.Slot{
		CalendarID: model.CalendarFreeTrial,
		Date:       date(t, "2025-11-18"),
		TimeLabel:  "08:00-08:15",
		Status:     model.SlotStatusAvailable,
	}
	if err := gdb.Create(&past).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.SetStatus(ctx, model.CalendarFreeTrial, date(t, "2025-11-19"), "08:00-08:15", model.SlotStatusAvailable); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.SetStatus(ctx, model.CalendarFreeTrial, date(t, "2025-11-20"), "08:00-08:15", model.SlotStatusClosed); err != nil {
		t.Fatalf("set: %v", err)
	}

	slots, err := m.ListSlots(ctx, model.CalendarFreeTrial)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 2 || model.FormatDate(slots[0].Date) != "2025-11-19" {
		t.Fatalf("unexpected slots %+v", slots)
	}

	var count int64
	gdb.Model(&model.Slot{}).Where("id = ?", past.ID).Count(&count)
	if count != 0 {
		t.Fatalf("expired slot must be purged on read")
	}
}

func TestManager_ApplyBatch(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	d := date(t, "2025-11-21")

	if _, err := m.SetStatus(ctx, model.CalendarReservation, d, "08:30-10:00", model.SlotStatusAvailable); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Claim(ctx, model.CalendarReservation, d, "08:30-10:00"); err != nil {
		t.Fatalf("claim: %v", err)
	}

	res, err := m.ApplyBatch(ctx, model.CalendarReservation, []repository.SlotEdit{
		{Date: d, TimeLabel: "08:30-10:00", Status: model.SlotStatusClosed},
		{Date: d, TimeLabel: "10:00-11:30", Status: model.SlotStatusAvailable},
		{Date: d, TimeLabel: "11:30-13:00", Status: model.SlotStatusClosed},
	})
	if err != nil {
		t.Fatalf("apply batch: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].TimeLabel != "08:30-10:00" {
		t.Fatalf("expected booked slot skipped, got %+v", res.Skipped)
	}
	if len(res.Slots) != 3 || res.Slots[0].Status != model.SlotStatusBooked {
		t.Fatalf("unexpected slots %+v", res.Slots)
	}

	// неверная метка отклоняет весь пакет до записи
	_, err = m.ApplyBatch(ctx, model.CalendarReservation, []repository.SlotEdit{
		{Date: d, TimeLabel: "13:00-14:30", Status: model.SlotStatusAvailable},
		{Date: d, TimeLabel: "13:00-13:15", Status: model.SlotStatusAvailable},
	})
	if !errors.Is(err, apperr.ErrInvalidLabel) {
		t.Fatalf("expected invalid label, got %v", err)
	}
	slots, _ := m.ListSlots(ctx, model.CalendarReservation)
	if len(slots) != 3 {
		t.Fatalf("rejected batch must not write, got %d slots", len(slots))
	}
}

func TestManager_Lookup(t *testing.T) {
	ctx := context.Background()
	m, gdb := newManager(t)
	d := date(t, "2025-11-20")

	if _, err := m.Lookup(ctx, model.CalendarFreeTrial, d, "08:00-08:15"); !errors.Is(err, apperr.ErrSlotUnavailable) {
		t.Fatalf("absent slot on explicit calendar: expected unavailable, got %v", err)
	}

	// прошедшее время
	if _, err := m.Lookup(ctx, model.CalendarFreeTrial, date(t, "2025-11-19"), "08:00-08:15"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("past slot: expected validation error, got %v", err)
	}

	if err := gdb.Model(&model.Calendar{}).Where("id = ?", model.CalendarFreeTrial).Update("allow_implicit", true).Error; err != nil {
		t.Fatalf("update calendar: %v", err)
	}
	slot, err := m.Lookup(ctx, model.CalendarFreeTrial, d, "08:00-08:15")
	if err != nil {
		t.Fatalf("implicit lookup: %v", err)
	}
	if slot.Status != model.SlotStatusAvailable {
		t.Fatalf("implicit slot must be available, got %s", slot.Status)
	}
}

func TestManager_ImplicitClaimAbsent(t *testing.T) {
	ctx := context.Background()
	m, gdb := newManager(t)
	if err := gdb.Model(&model.Calendar{}).Where("id = ?", model.CalendarFreeTrial).Update("allow_implicit", true).Error; err != nil {
		t.Fatalf("update calendar: %v", err)
	}
	d := date(t, "2025-11-22")

	if _, err := m.Claim(ctx, model.CalendarFreeTrial, d, "09:00-09:15"); err != nil {
		t.Fatalf("claim absent: %v", err)
	}
	if _, err := m.Claim(ctx, model.CalendarFreeTrial, d, "09:00-09:15"); !errors.Is(err, apperr.ErrSlotBooked) {
		t.Fatalf("second claim: expected ErrSlotBooked, got %v", err)
	}

	// закрытый слот не занимается даже в неявном календаре
	if _, err := m.SetStatus(ctx, model.CalendarFreeTrial, d, "09:15-09:30", model.SlotStatusClosed); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := m.Claim(ctx, model.CalendarFreeTrial, d, "09:15-09:30"); !errors.Is(err, apperr.ErrSlotUnavailable) {
		t.Fatalf("closed slot: expected unavailable, got %v", err)
	}
}
