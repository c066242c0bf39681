package model

import (
	"time"

	"github.com/google/uuid"
)

// invoices — неизменяемый документ, выпускается ровно один раз на платную запись.
type Invoice struct {
	Number    string    `gorm:"type:varchar(32);primaryKey"`
	BookingID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Document  []byte    `gorm:"not null"`
	IssuedAt  time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// invoice_counters — дневной счётчик номеров счетов.
type InvoiceCounter struct {
	Day     string `gorm:"type:varchar(10);primaryKey"`
	LastSeq int64  `gorm:"not null"`
}
