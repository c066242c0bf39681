package model

import "time"

// Событие жизненного цикла, для которого ищется шаблон уведомления.
type LifecycleEvent string

const (
	EventConfirmed   LifecycleEvent = "confirmed"
	EventCompleted   LifecycleEvent = "completed"
	EventCanceled    LifecycleEvent = "canceled"
	EventRescheduled LifecycleEvent = "rescheduled"
)

const (
	LocaleEN = "en"
	LocaleJA = "ja"
)

// message_templates — редактируемый каталог текстов уведомлений.
// Body — html/template.
type MessageTemplate struct {
	ID int64 `gorm:"primaryKey;autoIncrement"`

	Kind   BookingKind    `gorm:"type:varchar(16);not null;uniqueIndex:idx_template_key,priority:1"`
	Event  LifecycleEvent `gorm:"type:varchar(16);not null;uniqueIndex:idx_template_key,priority:2"`
	Locale string         `gorm:"type:varchar(8);not null;uniqueIndex:idx_template_key,priority:3"`

	Subject string `gorm:"type:varchar(255);not null"`
	Body    string `gorm:"type:text;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
