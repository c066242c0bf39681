// Package identity выдаёт и проверяет одноразовые коды подтверждения email.
// Ядро записи видит только результат проверки.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/ratelim"
)

const (
	keyPrefix  = "identity:"
	codeDigits = 6
)

// CodeSender доставляет код клиенту (письмом).
type CodeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

type Service struct {
	rdb     *redis.Client
	ttl     time.Duration
	sender  CodeSender
	limiter *ratelim.KeyedLimiter
	log     *zap.Logger
}

func NewService(rdb *redis.Client, ttl time.Duration, sender CodeSender, limiter *ratelim.KeyedLimiter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{rdb: rdb, ttl: ttl, sender: sender, limiter: limiter, log: log}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeDigits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// Send создаёт код, кладёт его в redis под непрозрачным токеном и отправляет клиенту.
func (s *Service) Send(ctx context.Context, email string) (string, error) {
	email = normalize(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", apperr.Validation("valid email is required")
	}
	if s.limiter != nil && !s.limiter.Allow(email) {
		return "", fmt.Errorf("%w: too many codes requested for %s", apperr.ErrRateLimited, email)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	token := uuid.NewString()

	if err := s.rdb.Set(ctx, keyPrefix+token, email+"|"+code, s.ttl).Err(); err != nil {
		return "", apperr.External("identity store", err)
	}
	if err := s.sender.SendCode(ctx, email, code); err != nil {
		_ = s.rdb.Del(ctx, keyPrefix+token).Err()
		return "", apperr.External("identity delivery", err)
	}

	s.log.Info("identity code sent", zap.String("email", email))
	return token, nil
}

// Verify проверяет код. Токен одноразовый: любая попытка его гасит.
func (s *Service) Verify(ctx context.Context, email, token, code string) (bool, error) {
	if token == "" || code == "" {
		return false, nil
	}

	stored, err := s.rdb.GetDel(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperr.External("identity store", err)
	}

	storedEmail, storedCode, ok := strings.Cut(stored, "|")
	if !ok {
		return false, nil
	}
	emailOK := storedEmail == normalize(email)
	codeOK := subtle.ConstantTimeCompare([]byte(storedCode), []byte(strings.TrimSpace(code))) == 1
	return emailOK && codeOK, nil
}
