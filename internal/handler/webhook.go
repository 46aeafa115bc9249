package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"github.com/dacv/strategist/internal/handler/dto"
	"github.com/dacv/strategist/internal/webhook"
)

// maxWebhookBody caps provider event payloads.
const maxWebhookBody = 64 << 10

// EventVerifier authenticates a raw webhook delivery.
type EventVerifier interface {
	Verify(payload []byte, header string) (stripe.Event, error)
}

// EventDispatcher acts on a verified event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event stripe.Event) error
}

// WebhookHandler receives payment provider events.
type WebhookHandler struct {
	verifier   EventVerifier
	dispatcher EventDispatcher
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier EventVerifier, dispatcher EventDispatcher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, dispatcher: dispatcher, logger: logger}
}

// Receive handles POST /stripe-webhook.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read request body")
		return
	}
	if len(payload) > maxWebhookBody {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, webhook.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "WEBHOOK_UNAVAILABLE", "Webhook is not configured")
			return
		}
		h.logger.Warn("webhook rejected", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "INVALID_SIGNATURE", err.Error())
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.logger.Error("webhook dispatch failed",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "DISPATCH_FAILED", "Event could not be processed")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}
