package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Статус слота календаря.
type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
	SlotStatusClosed    SlotStatus = "closed"
)

// Valid сообщает, известен ли статус.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusBooked, SlotStatusClosed:
		return true
	}
	return false
}

// slots
// Ключ (calendar_id, date, time_label) уникален: повторная запись — только upsert.
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CalendarID string `gorm:"type:varchar(32);not null;uniqueIndex:idx_slot_key,priority:1"`

	// Чистая дата без времени.
	Date datatypes.Date `gorm:"type:date;not null;uniqueIndex:idx_slot_key,priority:2;index"`

	// Метка интервала из каталога календаря, сравнивается строго по строке.
	TimeLabel string `gorm:"type:varchar(16);not null;uniqueIndex:idx_slot_key,priority:3"`

	Status SlotStatus `gorm:"type:varchar(16);not null;default:'closed';index"`

	// Запись, занявшая слот; nil у незанятых и у слотов, занятых без записи.
	BookedBy *uuid.UUID `gorm:"type:uuid;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Calendar *Calendar `gorm:"foreignKey:CalendarID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// SlotKey — естественный ключ слота.
type SlotKey struct {
	CalendarID string
	Date       datatypes.Date
	TimeLabel  string
}

func (k SlotKey) String() string {
	return k.CalendarID + "/" + FormatDate(k.Date) + "/" + k.TimeLabel
}

// Key возвращает естественный ключ слота.
func (s *Slot) Key() SlotKey {
	return SlotKey{CalendarID: s.CalendarID, Date: s.Date, TimeLabel: s.TimeLabel}
}

// Day возвращает дату слота как time.Time (полночь UTC).
func (s *Slot) Day() time.Time {
	return time.Time(s.Date)
}

// DateOnly приводит момент времени к дате без времени в UTC —
// именно так даты слотов хранятся и сравниваются.
func DateOnly(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return DateOnly(t), nil
}

// FormatDate форматирует дату слота в YYYY-MM-DD.
func FormatDate(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

const DateLayout = "2006-01-02"

func (s *Slot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
