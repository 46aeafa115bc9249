package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v79"

	"github.com/dacv/strategist/internal/metrics"
)

// Event types acted on by Dispatcher.
const (
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
)

// Granter records the paid entitlement.
type Granter interface {
	GrantPaid(ctx context.Context, userID, customerRef, subscriptionRef string) error
}

// Dispatcher routes verified events to their handlers.
type Dispatcher struct {
	granter  Granter
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewDispatcher creates a Dispatcher. A nil logger or recorder uses the defaults.
func NewDispatcher(granter Granter, logger *slog.Logger, recorder metrics.Recorder) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Dispatcher{granter: granter, logger: logger, recorder: recorder}
}

// Dispatch handles one event. Unknown types are acknowledged. An error means
// the event should be redelivered.
func (d *Dispatcher) Dispatch(ctx context.Context, event stripe.Event) error {
	eventType := string(event.Type)
	d.recorder.IncWebhookEvent(eventType)

	switch eventType {
	case EventInvoicePaymentSucceeded:
		return d.invoicePaid(event)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return d.subscriptionChanged(ctx, event)
	case EventSubscriptionDeleted:
		return d.subscriptionDeleted(event)
	default:
		d.logger.Debug("ignoring webhook event",
			slog.String("event_id", event.ID),
			slog.String("type", eventType),
		)
		return nil
	}
}

func (d *Dispatcher) invoicePaid(event stripe.Event) error {
	var invoice stripe.Invoice
	if err := decodeObject(event, &invoice); err != nil {
		d.skipUndecodable(event, err)
		return nil
	}

	attrs := []any{
		slog.String("event_id", event.ID),
		slog.String("invoice_id", invoice.ID),
		slog.Int64("amount_paid", invoice.AmountPaid),
	}
	if invoice.Customer != nil {
		attrs = append(attrs, slog.String("customer_id", invoice.Customer.ID))
	}
	d.logger.Info("recurring payment succeeded", attrs...)
	return nil
}

// subscriptionChanged grants the paid entitlement for active subscriptions
// that carry a user_id. It covers grants lost when the synchronous subscribe
// flow could not write the entitlement.
func (d *Dispatcher) subscriptionChanged(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := decodeObject(event, &sub); err != nil {
		return err
	}

	userID := sub.Metadata["user_id"]
	if sub.Status != stripe.SubscriptionStatusActive || userID == "" || sub.Customer == nil {
		d.logger.Debug("subscription event needs no grant",
			slog.String("event_id", event.ID),
			slog.String("subscription_id", sub.ID),
			slog.String("status", string(sub.Status)),
		)
		return nil
	}

	if err := d.granter.GrantPaid(ctx, userID, sub.Customer.ID, sub.ID); err != nil {
		return fmt.Errorf("failed to reconcile subscription %s: %w", sub.ID, err)
	}
	d.logger.Info("paid entitlement reconciled",
		slog.String("user_id", userID),
		slog.String("subscription_id", sub.ID),
	)
	return nil
}

// subscriptionDeleted only logs. The paid state is terminal.
func (d *Dispatcher) subscriptionDeleted(event stripe.Event) error {
	var sub stripe.Subscription
	if err := decodeObject(event, &sub); err != nil {
		d.skipUndecodable(event, err)
		return nil
	}
	d.logger.Info("subscription cancelled",
		slog.String("subscription_id", sub.ID),
		slog.String("user_id", sub.Metadata["user_id"]),
	)
	return nil
}

// skipUndecodable acknowledges a log-only event whose object cannot be read.
// Redelivery would fail the same way.
func (d *Dispatcher) skipUndecodable(event stripe.Event, err error) {
	d.logger.Warn("skipping undecodable webhook event",
		slog.String("event_id", event.ID),
		slog.String("type", string(event.Type)),
		slog.String("error", err.Error()),
	)
}

func decodeObject(event stripe.Event, v any) error {
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("failed to decode %s object: %w", event.Type, err)
	}
	return nil
}
