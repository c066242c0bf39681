package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/model"
)

type CalendarRepository interface {
	// Get возвращает календарь по идентификатору.
	Get(ctx context.Context, id string) (*model.Calendar, error)
	// List возвращает все календари.
	List(ctx context.Context) ([]model.Calendar, error)
	// Save создаёт календарь или обновляет его описание.
	Save(ctx context.Context, cal *model.Calendar) error
}

type GormCalendarRepository struct {
	db *gorm.DB
}

func NewGormCalendarRepository(db *gorm.DB) *GormCalendarRepository {
	return &GormCalendarRepository{db: db}
}

func (r *GormCalendarRepository) Get(ctx context.Context, id string) (*model.Calendar, error) {
	var cal model.Calendar
	if err := r.db.WithContext(ctx).First(&cal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cal, nil
}

func (r *GormCalendarRepository) List(ctx context.Context) ([]model.Calendar, error) {
	var cals []model.Calendar
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&cals).Error; err != nil {
		return nil, err
	}
	return cals, nil
}

func (r *GormCalendarRepository) Save(ctx context.Context, cal *model.Calendar) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"time_zone", "slot_minutes", "day_start", "day_end", "allow_implicit", "labels", "updated_at",
			}),
		}).
		Create(cal).Error
}
