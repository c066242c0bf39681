package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/model"
)

// fakeStore — операторы в памяти.
type fakeStore struct {
	ops   map[uuid.UUID]*model.Operator
	roles map[uuid.UUID]string
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*model.Operator, error) {
	for _, op := range s.ops {
		if op.Email == email {
			return op, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*model.Operator, error) {
	op, ok := s.ops[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return op, nil
}

func (s *fakeStore) GetRole(_ context.Context, id uuid.UUID) (string, error) {
	return s.roles[id], nil
}

var now = time.Date(2025, 11, 19, 9, 0, 0, 0, time.UTC)

func newAuth(t *testing.T) (*Authenticator, *fakeStore, *model.Operator) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	op := &model.Operator{ID: uuid.New(), Email: "admin@example.com", PasswordHash: string(hash)}
	store := &fakeStore{
		ops:   map[uuid.UUID]*model.Operator{op.ID: op},
		roles: map[uuid.UUID]string{op.ID: model.RoleAdmin},
	}
	a := NewAuthenticator(store, "test-secret", time.Hour).WithClock(func() time.Time { return now })
	return a, store, op
}

func TestLogin(t *testing.T) {
	a, _, op := newAuth(t)
	ctx := context.Background()

	token, exp, err := a.Login(ctx, "admin@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !exp.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", exp)
	}
	claims, err := a.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != op.ID.String() || claims.Role != model.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, _, err := a.Login(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := a.Login(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("unknown email: expected unauthorized, got %v", err)
	}
}

func TestParse_Rejects(t *testing.T) {
	a, _, op := newAuth(t)

	token, _, err := a.Issue(op, model.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// истёкший токен
	late := NewAuthenticator(a.store, "test-secret", time.Hour).WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	if _, err := late.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: expected ErrInvalidToken, got %v", err)
	}

	// чужой секрет
	other := NewAuthenticator(a.store, "other-secret", time.Hour).WithClock(func() time.Time { return now })
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign secret: expected ErrInvalidToken, got %v", err)
	}

	// алгоритм none
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   op.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := a.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("none alg: expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateOperator_RoleFromStore(t *testing.T) {
	a, store, op := newAuth(t)
	token, _, err := a.Issue(op, model.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := a.ValidateOperator(context.Background(), token, model.RoleAdmin); err != nil {
		t.Fatalf("validate: %v", err)
	}

	// роль понижена после выдачи токена
	store.roles[op.ID] = "viewer"
	if _, err := a.ValidateOperator(context.Background(), token, model.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	delete(store.ops, op.ID)
	if _, err := a.ValidateOperator(context.Background(), token, model.RoleAdmin); !errors.Is(err, ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestUnaryServerInterceptor(t *testing.T) {
	a, _, op := newAuth(t)
	token, _, err := a.Issue(op, model.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	interceptor := UnaryServerInterceptor(a, func(m string) bool { return m == "/admin" }, nil)
	handler := func(ctx context.Context, _ any) (any, error) {
		got, ok := OperatorFromContext(ctx)
		if !ok {
			return "anonymous", nil
		}
		return got.Email, nil
	}

	// публичный метод без токена
	res, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/public"}, handler)
	if err != nil || res != "anonymous" {
		t.Fatalf("public: %v %v", res, err)
	}

	// привилегированный без токена
	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/admin"}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataKey, "Bearer "+token))
	res, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/admin"}, handler)
	if err != nil || res != "admin@example.com" {
		t.Fatalf("admin: %v %v", res, err)
	}
}
