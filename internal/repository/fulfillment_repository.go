package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/session-booking/internal/model"
)

type FulfillmentRepository interface {
	// Ensure создаёт недостающие записи шагов в состоянии pending и возвращает все шаги.
	Ensure(ctx context.Context, bookingID uuid.UUID) ([]model.FulfillmentStep, error)
	// List возвращает шаги записи по порядку.
	List(ctx context.Context, bookingID uuid.UUID) ([]model.FulfillmentStep, error)
	// Begin захватывает шаг для выполнения: pending или failed -> running.
	// Шаг в running дольше lease считается брошенным и тоже захватывается.
	// false — шаг уже выполнен или выполняется другим прогоном.
	Begin(ctx context.Context, bookingID uuid.UUID, step int, lease time.Duration) (bool, error)
	// Record фиксирует результат попытки шага.
	Record(ctx context.Context, bookingID uuid.UUID, step int, state model.StepState, lastError string, detail datatypes.JSON) error
}

type GormFulfillmentRepository struct {
	db *gorm.DB
}

func NewGormFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

func (r *GormFulfillmentRepository) Ensure(ctx context.Context, bookingID uuid.UUID) ([]model.FulfillmentStep, error) {
	steps := make([]model.FulfillmentStep, 0, len(model.FulfillmentSteps))
	for i, name := range model.FulfillmentSteps {
		steps = append(steps, model.FulfillmentStep{
			BookingID: bookingID,
			Step:      i + 1,
			Name:      name,
			State:     model.StepStatePending,
		})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "step"}},
			DoNothing: true,
		}).
		Create(&steps).Error
	if err != nil {
		return nil, err
	}
	return r.List(ctx, bookingID)
}

func (r *GormFulfillmentRepository) List(ctx context.Context, bookingID uuid.UUID) ([]model.FulfillmentStep, error) {
	var steps []model.FulfillmentStep
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("step ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *GormFulfillmentRepository) Begin(ctx context.Context, bookingID uuid.UUID, step int, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&model.FulfillmentStep{}).
		Where("booking_id = ? AND step = ?", bookingID, step).
		Where("(state IN ? OR (state = ? AND updated_at < ?))",
			[]model.StepState{model.StepStatePending, model.StepStateFailed},
			model.StepStateRunning, now.Add(-lease),
		).
		Updates(map[string]any{
			"state":      model.StepStateRunning,
			"updated_at": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormFulfillmentRepository) Record(
	ctx context.Context,
	bookingID uuid.UUID,
	step int,
	state model.StepState,
	lastError string,
	detail datatypes.JSON,
) error {
	update := map[string]any{
		"state":      state,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastError,
	}
	if len(detail) > 0 {
		update["detail"] = detail
	}
	return r.db.WithContext(ctx).
		Model(&model.FulfillmentStep{}).
		Where("booking_id = ? AND step = ?", bookingID, step).
		Updates(update).
		Error
}
