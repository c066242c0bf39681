package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/model"
)

type TemplateRepository interface {
	Get(ctx context.Context, kind model.BookingKind, event model.LifecycleEvent, locale string) (*model.MessageTemplate, error)
	// CreateMissing вставляет шаблоны, которых ещё нет; существующие не трогает.
	CreateMissing(ctx context.Context, tpls []model.MessageTemplate) error
}

type GormTemplateRepository struct {
	db *gorm.DB
}

func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

func (r *GormTemplateRepository) Get(
	ctx context.Context,
	kind model.BookingKind,
	event model.LifecycleEvent,
	locale string,
) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	err := r.db.WithContext(ctx).
		Where("kind = ? AND event = ? AND locale = ?", kind, event, locale).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormTemplateRepository) CreateMissing(ctx context.Context, tpls []model.MessageTemplate) error {
	if len(tpls) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: templateKeyColumns(), DoNothing: true}).
		Create(&tpls).Error
}

func templateKeyColumns() []clause.Column {
	return []clause.Column{{Name: "kind"}, {Name: "event"}, {Name: "locale"}}
}
