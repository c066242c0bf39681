// Package payment проверяет подтверждения оплаты от платёжного провайдера.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Leganyst/session-booking/internal/apperr"
)

// Verifier подтверждает, что платёж по ссылке действительно прошёл.
// bookingID пуст, пока записи ещё нет.
type Verifier interface {
	Verify(ctx context.Context, reference string, amount int64, currency, bookingID string) error
}

// StripeVerifier сверяет PaymentIntent: статус succeeded, сумма, валюта
// и, для существующей записи, metadata.booking_id.
type StripeVerifier struct {
	intents *paymentintent.Client
}

// NewStripeVerifier. backend == nil — стандартный API Stripe.
func NewStripeVerifier(secretKey string, backend stripe.Backend) *StripeVerifier {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &StripeVerifier{intents: &paymentintent.Client{B: backend, Key: secretKey}}
}

func (v *StripeVerifier) Verify(ctx context.Context, reference string, amount int64, currency, bookingID string) error {
	if reference == "" {
		return apperr.Validation("payment reference is required")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := v.intents.Get(reference, params)
	if err != nil {
		return apperr.External("stripe", err)
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return apperr.External("stripe", fmt.Errorf("payment intent %s is %s", reference, pi.Status))
	}
	if pi.Amount != amount {
		return apperr.External("stripe", fmt.Errorf("payment intent %s amount %d, expected %d", reference, pi.Amount, amount))
	}
	if currency != "" && !strings.EqualFold(string(pi.Currency), currency) {
		return apperr.External("stripe", fmt.Errorf("payment intent %s currency %s, expected %s", reference, pi.Currency, currency))
	}
	if bookingID != "" && pi.Metadata["booking_id"] != bookingID {
		return fmt.Errorf("%w: payment intent %s is for booking %q", apperr.ErrPaymentReused, reference, pi.Metadata["booking_id"])
	}
	return nil
}

// AcceptAll принимает любую непустую ссылку. Только для разработки:
// включается явно флагом PAYMENT_ACCEPT_ALL.
type AcceptAll struct{}

func (AcceptAll) Verify(_ context.Context, reference string, _ int64, _, _ string) error {
	if reference == "" {
		return apperr.Validation("payment reference is required")
	}
	return nil
}

// Succeeded — содержимое события успешной оплаты.
type Succeeded struct {
	BookingID string
	Reference string
	Amount    int64
	Currency  string
}

const eventPaymentSucceeded = "payment_intent.succeeded"

// ParseWebhook проверяет подпись и возвращает успешную оплату.
// Для прочих типов событий возвращает nil без ошибки.
func ParseWebhook(payload []byte, signature, secret string) (*Succeeded, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature: %v", apperr.ErrUnauthorized, err)
	}
	if string(event.Type) != eventPaymentSucceeded {
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, apperr.Validation("payment intent payload: %v", err)
	}
	bookingID := pi.Metadata["booking_id"]
	if bookingID == "" {
		return nil, apperr.Validation("payment intent %s has no booking_id metadata", pi.ID)
	}
	return &Succeeded{
		BookingID: bookingID,
		Reference: pi.ID,
		Amount:    pi.Amount,
		Currency:  string(pi.Currency),
	}, nil
}
