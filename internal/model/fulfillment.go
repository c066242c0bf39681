package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Шаг последовательности исполнения записи после подтверждения.
type FulfillmentStepName string

const (
	StepMeeting      FulfillmentStepName = "meeting"
	StepNotification FulfillmentStepName = "notification"
	StepClaim        FulfillmentStepName = "claim"
)

// FulfillmentSteps — порядок шагов, индекс с 1.
var FulfillmentSteps = []FulfillmentStepName{StepMeeting, StepNotification, StepClaim}

type StepState string

const (
	StepStatePending StepState = "pending"
	StepStateRunning StepState = "running"
	StepStateDone    StepState = "done"
	StepStateFailed  StepState = "failed"
)

// fulfillment_steps — состояние каждого шага, чтобы оператор видел, откуда продолжать.
type FulfillmentStep struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	BookingID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:idx_step_booking,priority:1"`
	Step      int                 `gorm:"not null;uniqueIndex:idx_step_booking,priority:2"`
	Name      FulfillmentStepName `gorm:"type:varchar(32);not null"`
	State     StepState           `gorm:"type:varchar(16);not null;index"`
	Attempts  int                 `gorm:"not null;default:0"`
	LastError string              `gorm:"type:text"`

	// Произвольные детали шага (ссылки на встречу и т.п.).
	Detail datatypes.JSON

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *FulfillmentStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
