// Package httpapi — HTTP-поверхность рядом с gRPC: health, вебхук Stripe и выдача счетов.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/model"
)

// Bookings — операции записи, нужные HTTP-обработчикам.
type Bookings interface {
	ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) (*booking.Report, error)
	Invoice(ctx context.Context, number string) (*model.Invoice, error)
}

// TokenValidator проверяет токен оператора.
type TokenValidator interface {
	ValidateOperator(ctx context.Context, token string, roles ...string) (*auth.ValidatedOperator, error)
}

// Check — проверка одной зависимости для /healthz.
type Check func(ctx context.Context) error

type Deps struct {
	Bookings      Bookings
	Auth          TokenValidator
	WebhookSecret string
	Checks        map[string]Check
	Log           *zap.Logger
}

type Handler struct {
	bookings      Bookings
	auth          TokenValidator
	webhookSecret string
	checks        map[string]Check
	log           *zap.Logger
}

func NewHandler(d Deps) *Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Handler{
		bookings:      d.Bookings,
		auth:          d.Auth,
		webhookSecret: d.WebhookSecret,
		checks:        d.Checks,
		log:           d.Log,
	}
}

// NewRouter собирает gin-движок со всеми маршрутами.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/healthz", h.Health)
	r.POST("/webhooks/stripe", h.StripeWebhook)

	admin := r.Group("/admin")
	admin.Use(OperatorAuth(h.auth))
	admin.GET("/invoices/:number", h.InvoiceDocument)

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

const operatorKey = "operator"

// OperatorAuth пропускает только запросы с действующим токеном администратора.
func OperatorAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		op, err := v.ValidateOperator(c.Request.Context(), strings.TrimPrefix(header, "Bearer "), model.RoleAdmin)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, auth.ErrForbidden) {
				status = http.StatusForbidden
			}
			c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Set(operatorKey, op)
		c.Next()
	}
}

// Health опрашивает зависимости. Любой сбой даёт 503.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	result := make(map[string]string, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			result[name] = err.Error()
			healthy = false
			continue
		}
		result[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": result})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": result})
}
