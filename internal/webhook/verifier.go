// Package webhook verifies and handles payment provider webhook events.
package webhook

import (
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"
)

var (
	// ErrNotConfigured is returned when no signing secret is set.
	ErrNotConfigured = errors.New("webhook secret not configured")
	// ErrReplayWindowExceeded is returned when timestamp is outside replay window.
	ErrReplayWindowExceeded = errors.New("timestamp outside replay window")
	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("invalid signature")
)

const (
	// DefaultReplayWindow is the default replay protection window.
	DefaultReplayWindow = 5 * time.Minute
)

// Verifier checks the Stripe-Signature header and parses the event.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

// NewVerifier creates a Verifier for the endpoint signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret, tolerance: DefaultReplayWindow}
}

// Verify validates header against payload and returns the decoded event.
// Events from other API versions are accepted.
func (v *Verifier) Verify(payload []byte, header string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, ErrNotConfigured
	}

	event, err := stripewebhook.ConstructEventWithOptions(payload, header, v.secret,
		stripewebhook.ConstructEventOptions{
			Tolerance:                v.tolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		if errors.Is(err, stripewebhook.ErrTooOld) {
			return stripe.Event{}, ErrReplayWindowExceeded
		}
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}
