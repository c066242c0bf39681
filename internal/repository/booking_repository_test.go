package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/dbtest"
	"github.com/Leganyst/session-booking/internal/model"
	"github.com/Leganyst/session-booking/internal/repository"
)

type fixture struct {
	db       *gorm.DB
	slots    *repository.GormSlotRepository
	bookings *repository.GormBookingRepository
}

func newFixture(t *testing.T) *fixture {
	gdb := dbtest.Open(t)
	return &fixture{
		db:       gdb,
		slots:    repository.NewGormSlotRepository(gdb),
		bookings: repository.NewGormBookingRepository(gdb),
	}
}

func (f *fixture) availableSlot(t *testing.T, cal, date, label string) *model.Slot {
	t.Helper()
	d, err := model.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	key := model.SlotKey{CalendarID: cal, Date: d, TimeLabel: label}
	if _, err := f.slots.SetStatus(context.Background(), key, model.SlotStatusAvailable); err != nil {
		t.Fatalf("set status: %v", err)
	}
	s, err := f.slots.GetByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	return s
}

func reservation(email string, slot *model.Slot) *model.Booking {
	return &model.Booking{
		Kind:        model.BookingKindReservation,
		Email:       email,
		SlotID:      slot.ID,
		DateTime:    slot.Day().Add(10 * time.Hour),
		ServiceType: model.ServiceTypeOnline,
		Amount:      15000,
		Currency:    "JPY",
	}
}

func TestBookingRepository_SecondPendingForEmailRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "10:00-11:30")

	first := reservation("A@Example.com", slot)
	if err := f.bookings.Create(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	trial := &model.Booking{
		Kind:     model.BookingKindFreeTrial,
		Email:    "a@example.com ",
		SlotID:   slot.ID,
		DateTime: first.DateTime,
	}
	err := f.bookings.Create(ctx, trial)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for second pending booking, got %v", err)
	}

	// после завершения первой записи вторая pending допустима
	changed, err := f.bookings.Transition(ctx, first.ID, model.BookingStatusPending, model.BookingStatusCompleted, time.Now(), false)
	if err != nil || !changed {
		t.Fatalf("transition: changed=%v err=%v", changed, err)
	}
	trial.ID = uuid.Nil
	if err := f.bookings.Create(ctx, trial); err != nil {
		t.Fatalf("create after completion: %v", err)
	}
}

func TestBookingRepository_ConcurrentInvoiceNumbersDistinct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "10:00-11:30")
	day := time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC)

	issue := func(seq int64) (string, []byte, error) {
		n := fmt.Sprintf("2025-11-20-%06d", seq)
		return n, []byte(n), nil
	}

	const n = 12
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := reservation(fmt.Sprintf("c%d@example.com", i), slot)
			inv, err := f.bookings.CreateWithInvoice(ctx, b, day, issue)
			if err != nil {
				t.Errorf("create with invoice: %v", err)
				return
			}
			mu.Lock()
			numbers[inv.Number] = true
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if len(numbers) != n {
		t.Fatalf("expected %d distinct invoice numbers, got %d", n, len(numbers))
	}
	for i := 1; i <= n; i++ {
		if !numbers[fmt.Sprintf("2025-11-20-%06d", i)] {
			t.Fatalf("missing sequence %d", i)
		}
	}
}

func TestBookingRepository_CreateWithInvoice_RollsBackOnDuplicatePending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "10:00-11:30")
	day := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	calls := 0
	issue := func(seq int64) (string, []byte, error) {
		calls++
		return fmt.Sprintf("2025-11-20-%06d", seq), []byte("pdf"), nil
	}

	if _, err := f.bookings.CreateWithInvoice(ctx, reservation("x@example.com", slot), day, issue); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := f.bookings.CreateWithInvoice(ctx, reservation("x@example.com", slot), day, issue)
	if !errors.Is(err, apperr.ErrPendingExists) {
		t.Fatalf("expected pending exists, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("invoice must not be issued for rejected booking, calls=%d", calls)
	}

	// счётчик не сдвинулся: следующий номер снова 2
	inv, err := f.bookings.CreateWithInvoice(ctx, reservation("y@example.com", slot), day, issue)
	if err != nil {
		t.Fatalf("third: %v", err)
	}
	if inv.Number != "2025-11-20-000002" {
		t.Fatalf("unexpected number %s", inv.Number)
	}
}

func TestBookingRepository_Transition_IsConditional(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	slot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "10:00-11:30")

	b := reservation("t@example.com", slot)
	if err := f.bookings.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, _ := f.slots.Claim(ctx, slot.Key(), b.ID); !ok {
		t.Fatalf("claim failed")
	}

	changed, err := f.bookings.Transition(ctx, b.ID, model.BookingStatusPending, model.BookingStatusCanceled, time.Now(), true)
	if err != nil || !changed {
		t.Fatalf("cancel: changed=%v err=%v", changed, err)
	}
	again, err := f.bookings.Transition(ctx, b.ID, model.BookingStatusPending, model.BookingStatusCanceled, time.Now(), true)
	if err != nil || again {
		t.Fatalf("second cancel must be a no-op: changed=%v err=%v", again, err)
	}

	got, err := f.bookings.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.BookingStatusCanceled || got.CanceledAt == nil {
		t.Fatalf("unexpected booking state: %+v", got)
	}
	s, _ := f.slots.GetByID(ctx, slot.ID)
	if s.Status != model.SlotStatusAvailable {
		t.Fatalf("slot must be released, got %s", s.Status)
	}
}

func TestBookingRepository_Reschedule_MovesClaimOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldSlot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "10:00-11:30")
	newSlot := f.availableSlot(t, model.CalendarReservation, "2025-11-21", "11:30-13:00")

	b := reservation("r@example.com", oldSlot)
	if err := f.bookings.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, _ := f.slots.Claim(ctx, oldSlot.Key(), b.ID); !ok {
		t.Fatalf("claim failed")
	}

	p := repository.RescheduleParams{
		BookingID:   b.ID,
		OldSlotID:   oldSlot.ID,
		NewSlot:     newSlot.Key(),
		NewDateTime: newSlot.Day().Add(11*time.Hour + 30*time.Minute),
		MoveClaim:   true,
	}
	if err := f.bookings.Reschedule(ctx, p); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	got, _ := f.bookings.GetByID(ctx, b.ID)
	if !got.IsEdited || got.SlotID != newSlot.ID {
		t.Fatalf("booking not moved: %+v", got)
	}
	o, _ := f.slots.GetByID(ctx, oldSlot.ID)
	n, _ := f.slots.GetByID(ctx, newSlot.ID)
	if o.Status != model.SlotStatusAvailable || n.Status != model.SlotStatusBooked {
		t.Fatalf("unexpected slot states old=%s new=%s", o.Status, n.Status)
	}

	// второй перенос запрещён, и занятость слотов не меняется
	p.OldSlotID = newSlot.ID
	p.NewSlot = oldSlot.Key()
	err := f.bookings.Reschedule(ctx, p)
	if !errors.Is(err, apperr.ErrAlreadyEdited) {
		t.Fatalf("expected already edited, got %v", err)
	}
	o, _ = f.slots.GetByID(ctx, oldSlot.ID)
	n, _ = f.slots.GetByID(ctx, newSlot.ID)
	if o.Status != model.SlotStatusAvailable || n.Status != model.SlotStatusBooked {
		t.Fatalf("failed reschedule must roll back: old=%s new=%s", o.Status, n.Status)
	}
}
