// Package auth выдаёт операторам токен доступа и проверяет его на привилегированных RPC.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
)

const issuer = "session-booking"

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", apperr.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	ErrOperatorNotFound   = fmt.Errorf("%w: operator not found", apperr.ErrUnauthorized)
	ErrForbidden          = fmt.Errorf("%w: operator role is not allowed", apperr.ErrUnauthorized)
)

// OperatorStore — источник данных об операторах.
type OperatorStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Operator, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Operator, error)
	GetRole(ctx context.Context, operatorID uuid.UUID) (string, error)
}

// Claims — содержимое токена оператора.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// ValidatedOperator — результат успешной проверки токена.
type ValidatedOperator struct {
	ID    uuid.UUID
	Email string
	Role  string
}

type Authenticator struct {
	store  OperatorStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(store OperatorStore, secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock подменяет источник текущего времени (для тестов).
func (a *Authenticator) WithClock(now func() time.Time) *Authenticator {
	a.now = now
	return a
}

// HashPassword возвращает bcrypt-хэш пароля.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Login проверяет пароль оператора и выдаёт токен.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	op, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	role, err := a.store.GetRole(ctx, op.ID)
	if err != nil {
		return "", time.Time{}, err
	}
	return a.Issue(op, role)
}

// Issue подписывает токен оператора.
func (a *Authenticator) Issue(op *model.Operator, role string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		Email: op.Email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   op.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse проверяет подпись и срок действия токена.
func (a *Authenticator) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// ValidateOperator:
//   - проверяет токен;
//   - вытаскивает оператора из хранилища;
//   - проверяет, что его текущая роль входит в разрешённые;
//   - возвращает нормализованный результат или ошибку.
func (a *Authenticator) ValidateOperator(ctx context.Context, token string, roles ...string) (*ValidatedOperator, error) {
	claims, err := a.Parse(token)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	op, err := a.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	// роль берём из базы: токен мог быть выдан до понижения
	role, err := a.store.GetRole(ctx, op.ID)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 && !contains(roles, role) {
		return nil, ErrForbidden
	}

	return &ValidatedOperator{ID: op.ID, Email: op.Email, Role: role}, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
