package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/payment"
)

const maxWebhookBody = 64 << 10

// StripeWebhook подтверждает оплату по событию payment_intent.succeeded.
// Stripe повторяет доставку при любом ответе кроме 2xx, поэтому 5xx отдаётся
// только на временные сбои.
func (h *Handler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	paid, err := payment.ParseWebhook(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.log.Warn("stripe webhook rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if paid == nil {
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	}

	id, err := uuid.Parse(paid.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking_id metadata"})
		return
	}

	report, err := h.bookings.ConfirmPayment(c.Request.Context(), id, paid.Reference)
	var stepErr *apperr.StepError
	switch {
	case err == nil:
	case errors.As(err, &stepErr):
		// оплата записана, шаг можно повторить через ResumeFulfillment
		h.log.Warn("fulfillment step failed after payment",
			zap.String("booking_id", id.String()),
			zap.Int("step", stepErr.Index),
			zap.Error(stepErr.Err),
		)
		c.JSON(http.StatusOK, gin.H{"booking_id": id.String(), "failed_step": stepErr.Index, "error": stepErr.Error()})
		return
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, apperr.ErrConflict):
		// запись уже завершена или отменена
		h.log.Info("payment for non-pending booking ignored", zap.String("booking_id", id.String()))
		c.JSON(http.StatusOK, gin.H{"ignored": true})
		return
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, apperr.ErrExternalService):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	default:
		h.log.Error("stripe webhook failed", zap.String("booking_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	steps := 0
	if report != nil {
		steps = len(report.Steps)
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id.String(), "steps": steps})
}

// InvoiceDocument отдаёт PDF счёта оператору.
func (h *Handler) InvoiceDocument(c *gin.Context) {
	inv, err := h.bookings.Invoice(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		h.log.Error("load invoice failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	if op, ok := c.Get(operatorKey); ok {
		h.log.Info("invoice downloaded",
			zap.String("number", inv.Number),
			zap.String("operator", op.(*auth.ValidatedOperator).Email),
		)
	}
	c.Header("Content-Disposition", `attachment; filename="invoice-`+inv.Number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", inv.Document)
}
