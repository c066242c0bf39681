package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Идентификаторы календарей.
const (
	CalendarFreeTrial   = "free_trial"
	CalendarReservation = "reservation"
)

// calendars — описание календаря и каталог его меток времени.
type Calendar struct {
	ID string `gorm:"type:varchar(32);primaryKey"`

	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Длительность одного слота в минутах (15 для пробных, 90 для платных).
	SlotMinutes int `gorm:"not null"`

	// Границы рабочего дня в формате HH:MM.
	DayStart string `gorm:"type:varchar(5);not null"`
	DayEnd   string `gorm:"type:varchar(5);not null"`

	// Если true, отсутствующий слот считается свободным и создаётся при бронировании.
	AllowImplicit bool `gorm:"not null;default:false"`

	// Каталог меток в виде JSON-массива строк.
	Labels datatypes.JSON

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// LabelList декодирует каталог меток.
func (c *Calendar) LabelList() ([]string, error) {
	if len(c.Labels) == 0 {
		return nil, nil
	}
	var labels []string
	if err := json.Unmarshal(c.Labels, &labels); err != nil {
		return nil, err
	}
	return labels, nil
}

// Location возвращает часовой пояс календаря, UTC при ошибке.
func (c *Calendar) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
