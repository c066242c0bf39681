// Package editor — пакетный редактор доступности для администратора.
// Правки копятся в локальном оверлее поверх последнего снимка календаря
// и уходят на сервер одним пакетом.
package editor

import (
	"context"
	"fmt"
	"sort"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
)

// Slot — слот в формате обмена: дата YYYY-MM-DD, метка, статус.
type Slot struct {
	Date      string
	TimeLabel string
	Status    model.SlotStatus
}

// Snapshot — состояние календаря на сервере.
type Snapshot struct {
	Labels []string
	Slots  []Slot
}

// CommitResult — итог пакетной записи.
type CommitResult struct {
	Sent    int
	Skipped []Slot
}

// Remote — сервер календаря.
type Remote interface {
	Snapshot(ctx context.Context, calendarID string) (*Snapshot, error)
	// Apply записывает правки и возвращает свежий список слотов и пропущенные правки.
	Apply(ctx context.Context, calendarID string, edits []Slot) (*Snapshot, []Slot, error)
}

// Editor держит снимок и оверлей одного календаря.
// Не предназначен для конкурентного использования; два администратора,
// редактирующие один календарь, перезаписывают правки друг друга.
type Editor struct {
	remote     Remote
	calendarID string

	labels   map[string]bool
	snapshot map[string]map[string]model.SlotStatus
	slots    []Slot
	overlay  map[string]map[string]model.SlotStatus
}

func New(remote Remote, calendarID string) *Editor {
	return &Editor{
		remote:     remote,
		calendarID: calendarID,
		labels:     map[string]bool{},
		snapshot:   map[string]map[string]model.SlotStatus{},
		overlay:    map[string]map[string]model.SlotStatus{},
	}
}

// Refresh загружает снимок с сервера. Оверлей не трогается.
func (e *Editor) Refresh(ctx context.Context) error {
	snap, err := e.remote.Snapshot(ctx, e.calendarID)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	e.replace(snap)
	return nil
}

func (e *Editor) replace(snap *Snapshot) {
	if len(snap.Labels) > 0 {
		e.labels = make(map[string]bool, len(snap.Labels))
		for _, l := range snap.Labels {
			e.labels[l] = true
		}
	}
	e.slots = append([]Slot(nil), snap.Slots...)
	e.snapshot = make(map[string]map[string]model.SlotStatus)
	for _, s := range snap.Slots {
		put(e.snapshot, s.Date, s.TimeLabel, s.Status)
	}
}

func put(m map[string]map[string]model.SlotStatus, date, label string, st model.SlotStatus) {
	day, ok := m[date]
	if !ok {
		day = make(map[string]model.SlotStatus)
		m[date] = day
	}
	day[label] = st
}

func lookup(m map[string]map[string]model.SlotStatus, date, label string) (model.SlotStatus, bool) {
	st, ok := m[date][label]
	return st, ok
}

// Slots возвращает последний полученный с сервера список.
func (e *Editor) Slots() []Slot {
	return append([]Slot(nil), e.slots...)
}

// EffectiveStatus: оверлей, затем снимок, иначе closed.
func (e *Editor) EffectiveStatus(date, label string) model.SlotStatus {
	if st, ok := lookup(e.overlay, date, label); ok {
		return st
	}
	if st, ok := lookup(e.snapshot, date, label); ok {
		return st
	}
	return model.SlotStatusClosed
}

// Toggle переключает available/closed в оверлее без обращения к серверу.
// Для занятого слота ничего не делает. Возвращает новый эффективный статус.
func (e *Editor) Toggle(date, label string) (model.SlotStatus, error) {
	if _, err := model.ParseDate(date); err != nil {
		return "", apperr.Validation("invalid date %q", date)
	}
	if len(e.labels) > 0 && !e.labels[label] {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidLabel, label)
	}

	current := e.EffectiveStatus(date, label)
	if current == model.SlotStatusBooked {
		return current, nil
	}

	next := model.SlotStatusAvailable
	if current == model.SlotStatusAvailable {
		next = model.SlotStatusClosed
	}

	// возврат к значению снимка убирает правку
	base, persisted := lookup(e.snapshot, date, label)
	if (persisted && base == next) || (!persisted && next == model.SlotStatusClosed) {
		e.drop(date, label)
		return next, nil
	}
	put(e.overlay, date, label, next)
	return next, nil
}

func (e *Editor) drop(date, label string) {
	day, ok := e.overlay[date]
	if !ok {
		return
	}
	delete(day, label)
	if len(day) == 0 {
		delete(e.overlay, date)
	}
}

// Pending — незакоммиченные правки, упорядоченные по (дата, метка).
func (e *Editor) Pending() []Slot {
	out := make([]Slot, 0)
	for date, day := range e.overlay {
		for label, st := range day {
			out = append(out, Slot{Date: date, TimeLabel: label, Status: st})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].TimeLabel < out[j].TimeLabel
	})
	return out
}

// CommitAll отправляет оверлей одним пакетом. При успехе снимок заменяется
// ответом сервера, оверлей очищается; при ошибке оверлей сохраняется.
func (e *Editor) CommitAll(ctx context.Context) (*CommitResult, error) {
	edits := e.Pending()
	if len(edits) == 0 {
		return &CommitResult{}, nil
	}

	snap, skipped, err := e.remote.Apply(ctx, e.calendarID, edits)
	if err != nil {
		return nil, fmt.Errorf("commit %d edits: %w", len(edits), err)
	}

	e.replace(snap)
	e.DiscardAll()
	return &CommitResult{Sent: len(edits), Skipped: skipped}, nil
}

// DiscardAll сбрасывает оверлей.
func (e *Editor) DiscardAll() {
	e.overlay = make(map[string]map[string]model.SlotStatus)
}
