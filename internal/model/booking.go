package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingKind string

const (
	BookingKindFreeTrial   BookingKind = "free_trial"
	BookingKindReservation BookingKind = "reservation"
)

// CalendarID возвращает календарь, по которому бронируется этот вид записи.
func (k BookingKind) CalendarID() string {
	if k == BookingKindReservation {
		return CalendarReservation
	}
	return CalendarFreeTrial
}

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCanceled  BookingStatus = "canceled"
)

type ServiceType string

const (
	ServiceTypeOnline   ServiceType = "online"
	ServiceTypeInPerson ServiceType = "in_person"
)

// bookings — пробные и платные записи в одной таблице, различаются полем Kind.
// Частичный уникальный индекс по email гарантирует не более одной pending-записи на клиента,
// индекс по payment_reference — что один платёж оплачивает одну запись.
type Booking struct {
	ID   uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Kind BookingKind `gorm:"type:varchar(16);not null;index"`

	Email string `gorm:"type:varchar(255);not null;uniqueIndex:idx_booking_pending_email,where:status = 'pending'"`
	Name  string `gorm:"type:varchar(255)"`
	Phone string `gorm:"type:varchar(32)"`

	// Явная ссылка на занятый слот.
	SlotID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DateTime time.Time `gorm:"not null;index"`

	ServiceType      ServiceType `gorm:"type:varchar(16)"`
	Amount           int64       `gorm:"not null;default:0"`
	Currency         string      `gorm:"type:varchar(8)"`
	PaymentMethod    string      `gorm:"type:varchar(32)"`
	PaymentReference string      `gorm:"type:varchar(255);uniqueIndex:idx_booking_payment_reference,where:payment_reference <> ''"`
	PaidAt           *time.Time

	// Только для платных записей; nil у пробных.
	InvoiceNumber *string `gorm:"type:varchar(32);uniqueIndex"`

	IsEdited bool          `gorm:"not null;default:false"`
	Status   BookingStatus `gorm:"type:varchar(16);not null;index"`
	Locale   string        `gorm:"type:varchar(8);not null;default:'en'"`

	MeetingLink string `gorm:"type:text"`
	EventLink   string `gorm:"type:text"`

	CreatedAt  time.Time  `gorm:"not null"`
	UpdatedAt  time.Time  `gorm:"not null"`
	CanceledAt *time.Time

	Slot *Slot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// Terminal сообщает, что запись уже не изменится.
func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusCompleted || b.Status == BookingStatusCanceled
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
