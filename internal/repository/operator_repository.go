package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/model"
)

type OperatorRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	Create(ctx context.Context, op *model.Operator) error
	GetRole(ctx context.Context, operatorID uuid.UUID) (string, error)
}

type GormOperatorRepository struct {
	db *gorm.DB
}

func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// NormalizeEmail приводит email к виду, в котором он хранится.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *GormOperatorRepository) FindByEmail(ctx context.Context, email string) (*model.Operator, error) {
	n := NormalizeEmail(email)
	if n == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var op model.Operator
	if err := r.db.WithContext(ctx).Where("email = ?", n).First(&op).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *GormOperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Operator, error) {
	var op model.Operator
	if err := r.db.WithContext(ctx).First(&op, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *GormOperatorRepository) Create(ctx context.Context, op *model.Operator) error {
	op.Email = NormalizeEmail(op.Email)
	return r.db.WithContext(ctx).Create(op).Error
}

func (r *GormOperatorRepository) GetRole(ctx context.Context, operatorID uuid.UUID) (string, error) {
	var role model.Role
	err := r.db.WithContext(ctx).
		Table("roles").
		Select("roles.*").
		Joins("JOIN operators ON operators.role_id = roles.id").
		Where("operators.id = ?", operatorID).
		Take(&role).Error
	if err != nil {
		return "", err
	}
	return role.Code, nil
}

// ensureRole находит роль по коду или создаёт её.
func ensureRole(db *gorm.DB, code string) (*model.Role, error) {
	var role model.Role
	err := db.Where("code = ?", code).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	role.Code = code
	role.Name = code
	if err := db.Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// EnsureRole — то же самое для внешних вызывающих (сидинг).
func EnsureRole(ctx context.Context, db *gorm.DB, code string) (*model.Role, error) {
	return ensureRole(db.WithContext(ctx), code)
}
