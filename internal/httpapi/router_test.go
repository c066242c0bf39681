package httpapi

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/Leganyst/session-booking/internal/apperr"
	"github.com/Leganyst/session-booking/internal/auth"
	"github.com/Leganyst/session-booking/internal/booking"
	"github.com/Leganyst/session-booking/internal/model"
)

const (
	secret    = "whsec_test"
	bookingID = "5f0c8f0e-8d8b-4a55-9d3c-1f2a3b4c5d6e"
)

type fakeBookings struct {
	confirmErr error
	confirmed  []string
	invoices   map[string]*model.Invoice
}

func (f *fakeBookings) ConfirmPayment(_ context.Context, id uuid.UUID, reference string) (*booking.Report, error) {
	f.confirmed = append(f.confirmed, id.String()+"/"+reference)
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return &booking.Report{BookingID: id, Steps: make([]booking.StepResult, 3)}, nil
}

func (f *fakeBookings) Invoice(_ context.Context, number string) (*model.Invoice, error) {
	if inv, ok := f.invoices[number]; ok {
		return inv, nil
	}
	return nil, apperr.ErrNotFound
}

type fakeValidator struct{}

func (fakeValidator) ValidateOperator(_ context.Context, token string, _ ...string) (*auth.ValidatedOperator, error) {
	switch token {
	case "good":
		return &auth.ValidatedOperator{Email: "ops@example.com", Role: model.RoleAdmin}, nil
	case "viewer":
		return nil, auth.ErrForbidden
	}
	return nil, auth.ErrInvalidToken
}

func router(b *fakeBookings, checks map[string]Check) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(Deps{
		Bookings:      b,
		Auth:          fakeValidator{},
		WebhookSecret: secret,
		Checks:        checks,
	}))
}

func signedEvent(eventType string) *webhook.SignedPayload {
	body := `{"id":"evt_1","object":"event","type":"` + eventType + `",` +
		`"data":{"object":{"id":"pi_123","object":"payment_intent","amount":15000,"currency":"jpy",` +
		`"status":"succeeded","metadata":{"booking_id":"` + bookingID + `"}}}}`
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: []byte(body), Secret: secret})
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStripeWebhook_ConfirmsPayment(t *testing.T) {
	b := &fakeBookings{}
	signed := signedEvent("payment_intent.succeeded")

	w := postWebhook(router(b, nil), signed.Payload, signed.Header)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{bookingID + "/pi_123"}, b.confirmed)
	assert.Contains(t, w.Body.String(), `"steps":3`)
}

func TestStripeWebhook_BadSignature(t *testing.T) {
	b := &fakeBookings{}
	signed := signedEvent("payment_intent.succeeded")

	w := postWebhook(router(b, nil), signed.Payload, "t=1,v1=deadbeef")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, b.confirmed)
}

func TestStripeWebhook_OtherEventIgnored(t *testing.T) {
	b := &fakeBookings{}
	signed := signedEvent("payment_intent.created")

	w := postWebhook(router(b, nil), signed.Payload, signed.Header)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, b.confirmed)
}

func TestStripeWebhook_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"step failed", &apperr.StepError{Index: 1, Step: string(model.StepMeeting), Err: errors.New("quota")}, http.StatusOK},
		{"not pending", apperr.ErrNotPending, http.StatusOK},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"stripe down", apperr.External("stripe", errors.New("timeout")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			signed := signedEvent("payment_intent.succeeded")
			w := postWebhook(router(&fakeBookings{confirmErr: tc.err}, nil), signed.Payload, signed.Header)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestInvoiceDocument(t *testing.T) {
	b := &fakeBookings{invoices: map[string]*model.Invoice{
		"2025-11-19-000001": {Number: "2025-11-19-000001", Document: []byte("%PDF-1.3")},
	}}
	r := router(b, nil)

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, get("/admin/invoices/2025-11-19-000001", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/admin/invoices/2025-11-19-000001", "bad").Code)
	assert.Equal(t, http.StatusForbidden, get("/admin/invoices/2025-11-19-000001", "viewer").Code)
	assert.Equal(t, http.StatusNotFound, get("/admin/invoices/2025-11-19-000099", "good").Code)

	w := get("/admin/invoices/2025-11-19-000001", "good")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	w := httptest.NewRecorder()
	router(&fakeBookings{}, map[string]Check{"db": ok}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router(&fakeBookings{}, map[string]Check{"db": ok, "redis": down}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
