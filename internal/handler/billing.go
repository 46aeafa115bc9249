package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dacv/strategist/internal/billing"
	"github.com/dacv/strategist/internal/handler/dto"
)

// Subscriber creates paid subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, in billing.SubscribeInput) (*billing.Subscription, error)
}

// BillingHandler serves the plan catalog and the subscribe flow.
type BillingHandler struct {
	svc            Subscriber
	plans          []billing.Plan
	publishableKey string
	logger         *slog.Logger
}

// NewBillingHandler creates a BillingHandler. A nil svc disables
// subscriptions while still serving the catalog.
func NewBillingHandler(svc Subscriber, plans []billing.Plan, publishableKey string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		svc:            svc,
		plans:          plans,
		publishableKey: publishableKey,
		logger:         logger,
	}
}

// Plans handles GET /plans.
func (h *BillingHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.PlansResponse{
		PublishableKey: h.publishableKey,
		Plans:          h.plans,
	})
}

// CreateSubscription handles POST /create-subscription.
func (h *BillingHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		writeError(w, http.StatusServiceUnavailable, "BILLING_UNAVAILABLE", "Billing is not configured")
		return
	}

	var req dto.CreateSubscriptionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	sub, err := h.svc.Subscribe(r.Context(), billing.SubscribeInput{
		Email:           req.Email,
		PaymentMethodID: req.PaymentMethodID,
		PriceID:         req.PriceID,
		UserID:          req.UserID,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CreateSubscriptionResponse{
		Success:        true,
		SubscriptionID: sub.SubscriptionID,
		ClientSecret:   sub.ClientSecret,
	})
}

func (h *BillingHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrCardDeclined):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Card error",
			Code:    "CARD_DECLINED",
			Message: detail(err, billing.ErrCardDeclined),
		})
	case errors.Is(err, billing.ErrPaymentFailed):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Payment failed",
			Code:    "PAYMENT_FAILED",
			Message: "Payment could not be processed",
		})
	case errors.Is(err, billing.ErrProvider):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Payment provider error",
			Code:    "PROVIDER_ERROR",
			Message: detail(err, billing.ErrProvider),
		})
	default:
		h.logger.Error("internal_error", "error", err)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Server error",
			Code:    "INTERNAL_ERROR",
			Message: "An internal error occurred",
		})
	}
}

// detail strips the sentinel prefix, leaving the provider's message.
func detail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}
