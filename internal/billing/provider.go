// Package billing creates paid subscriptions and grants the paid entitlement.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// Billing errors. Provider messages are wrapped so callers can show them.
var (
	ErrCardDeclined  = errors.New("card declined")
	ErrPaymentFailed = errors.New("payment failed")
	ErrProvider      = errors.New("payment provider error")
)

// SubscribeInput identifies the buyer and the price being subscribed to.
type SubscribeInput struct {
	Email           string
	PaymentMethodID string
	PriceID         string
	UserID          string
}

// Subscription is the outcome of a successful subscribe.
type Subscription struct {
	CustomerID     string
	SubscriptionID string
	ClientSecret   string
}

// Provider creates subscriptions with an external payment processor.
type Provider interface {
	Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error)
}

// StripeProvider implements Provider with the Stripe API.
type StripeProvider struct {
	api *client.API
}

// NewStripeProvider creates a provider for secretKey. A nil backends value
// uses the default Stripe endpoints.
func NewStripeProvider(secretKey string, backends *stripe.Backends) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &StripeProvider{api: api}
}

// Subscribe creates a customer with a default payment method, opens an
// incomplete subscription and confirms its first payment.
func (p *StripeProvider) Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error) {
	custParams := &stripe.CustomerParams{
		Email:         stripe.String(in.Email),
		PaymentMethod: stripe.String(in.PaymentMethodID),
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(in.PaymentMethodID),
		},
	}
	custParams.Context = ctx
	custParams.AddMetadata("user_id", in.UserID)

	customer, err := p.api.Customers.New(custParams)
	if err != nil {
		return nil, classify("create customer", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(customer.ID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(in.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	subParams.Context = ctx
	subParams.AddExpand("latest_invoice.payment_intent")
	subParams.AddMetadata("user_id", in.UserID)

	sub, err := p.api.Subscriptions.New(subParams)
	if err != nil {
		return nil, classify("create subscription", err)
	}
	if sub.LatestInvoice == nil || sub.LatestInvoice.PaymentIntent == nil {
		return nil, fmt.Errorf("%w: subscription %s has no payment intent", ErrPaymentFailed, sub.ID)
	}

	confirmParams := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(in.PaymentMethodID),
	}
	confirmParams.Context = ctx

	intent, err := p.api.PaymentIntents.Confirm(sub.LatestInvoice.PaymentIntent.ID, confirmParams)
	if err != nil {
		return nil, classify("confirm payment", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, fmt.Errorf("%w: payment intent status %s", ErrPaymentFailed, intent.Status)
	}

	return &Subscription{
		CustomerID:     customer.ID,
		SubscriptionID: sub.ID,
		ClientSecret:   intent.ClientSecret,
	}, nil
}

func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Msg)
		}
		return fmt.Errorf("%w: failed to %s: %s", ErrProvider, op, stripeErr.Msg)
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrProvider, op, err)
}
