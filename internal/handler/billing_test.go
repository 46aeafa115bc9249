package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dacv/strategist/internal/billing"
	"github.com/dacv/strategist/internal/entitlement"
	"github.com/dacv/strategist/internal/handler/dto"
)

type stubProvider struct {
	sub *billing.Subscription
	err error
}

func (p *stubProvider) Subscribe(context.Context, billing.SubscribeInput) (*billing.Subscription, error) {
	return p.sub, p.err
}

const subscribeBody = `{"payment_method_id":"pm_1","price_id":"price_1","user_id":"u1","email":"a@example.com"}`

func newBillingHandler(p billing.Provider) (*BillingHandler, *entitlement.Service) {
	ent := entitlement.NewService(entitlement.NewMemoryStore())
	svc := billing.NewService(p, ent, testLogger(), nil)
	return NewBillingHandler(svc, billing.Plans(billing.DefaultPriceIDs), "pk_test", testLogger()), ent
}

func TestBillingHandler_Plans(t *testing.T) {
	t.Parallel()
	h := NewBillingHandler(nil, billing.Plans(billing.DefaultPriceIDs), "pk_test", testLogger())

	rec := httptest.NewRecorder()
	h.Plans(rec, httptest.NewRequest(http.MethodGet, "/plans", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var resp dto.PlansResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.PublishableKey != "pk_test" {
		t.Errorf("unexpected publishable key %q", resp.PublishableKey)
	}
	if len(resp.Plans) != 3 || resp.Plans[0].PriceID != "price_1" {
		t.Errorf("unexpected plans: %+v", resp.Plans)
	}
}

func TestBillingHandler_CreateSubscriptionGrantsPaid(t *testing.T) {
	t.Parallel()
	h, ent := newBillingHandler(&stubProvider{sub: &billing.Subscription{
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		ClientSecret:   "pi_secret",
	}})

	rec := httptest.NewRecorder()
	h.CreateSubscription(rec, httptest.NewRequest(http.MethodPost, "/create-subscription", strings.NewReader(subscribeBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.CreateSubscriptionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Success || resp.SubscriptionID != "sub_1" || resp.ClientSecret != "pi_secret" {
		t.Errorf("unexpected response: %+v", resp)
	}

	usage, err := ent.Usage(context.Background(), "u1", 1)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if !usage.Paid {
		t.Error("expected user to be paid")
	}
}

func TestBillingHandler_CreateSubscriptionErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantError   string
		wantCodeStr string
		wantMessage string
	}{
		{
			name:        "card declined",
			err:         fmt.Errorf("%w: Your card was declined.", billing.ErrCardDeclined),
			wantCode:    http.StatusBadRequest,
			wantError:   "Card error",
			wantCodeStr: "CARD_DECLINED",
			wantMessage: "Your card was declined.",
		},
		{
			name:        "payment failed",
			err:         fmt.Errorf("%w: payment intent status requires_action", billing.ErrPaymentFailed),
			wantCode:    http.StatusBadRequest,
			wantError:   "Payment failed",
			wantCodeStr: "PAYMENT_FAILED",
		},
		{
			name:        "provider error",
			err:         fmt.Errorf("%w: failed to create customer: No such price", billing.ErrProvider),
			wantCode:    http.StatusBadRequest,
			wantError:   "Payment provider error",
			wantCodeStr: "PROVIDER_ERROR",
			wantMessage: "failed to create customer: No such price",
		},
		{
			name:        "unexpected",
			err:         fmt.Errorf("boom"),
			wantCode:    http.StatusInternalServerError,
			wantError:   "Server error",
			wantCodeStr: "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, ent := newBillingHandler(&stubProvider{err: tt.err})

			rec := httptest.NewRecorder()
			h.CreateSubscription(rec, httptest.NewRequest(http.MethodPost, "/create-subscription", strings.NewReader(subscribeBody)))
			if rec.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rec.Code)
			}
			body := decodeError(t, rec)
			if body.Error != tt.wantError || body.Code != tt.wantCodeStr {
				t.Errorf("unexpected body: %+v", body)
			}
			if tt.wantMessage != "" && body.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, body.Message)
			}

			usage, err := ent.Usage(context.Background(), "u1", 1)
			if err != nil {
				t.Fatalf("Usage: %v", err)
			}
			if usage.Paid {
				t.Error("failed subscribe must not grant paid")
			}
		})
	}
}

func TestBillingHandler_CreateSubscriptionInvalidBody(t *testing.T) {
	t.Parallel()
	h, _ := newBillingHandler(&stubProvider{})

	body := `{"payment_method_id":"pm_1","price_id":"price_1","user_id":"u1","email":"not-an-email"}`
	rec := httptest.NewRecorder()
	h.CreateSubscription(rec, httptest.NewRequest(http.MethodPost, "/create-subscription", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Error != "email must be a valid email address" {
		t.Errorf("unexpected error %q", got.Error)
	}
}

func TestBillingHandler_NotConfigured(t *testing.T) {
	t.Parallel()
	h := NewBillingHandler(nil, billing.Plans(billing.DefaultPriceIDs), "", testLogger())

	rec := httptest.NewRecorder()
	h.CreateSubscription(rec, httptest.NewRequest(http.MethodPost, "/create-subscription", strings.NewReader(subscribeBody)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
