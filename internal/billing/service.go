package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dacv/strategist/internal/metrics"
)

// Granter records the paid entitlement.
type Granter interface {
	GrantPaid(ctx context.Context, userID, customerRef, subscriptionRef string) error
}

// Service runs the subscribe flow end to end.
type Service struct {
	provider Provider
	granter  Granter
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewService creates a Service. A nil logger or recorder uses the defaults.
func NewService(provider Provider, granter Granter, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		provider: provider,
		granter:  granter,
		logger:   logger,
		recorder: recorder,
	}
}

// Subscribe charges the user and, once payment succeeds, grants the paid
// entitlement.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error) {
	sub, err := s.provider.Subscribe(ctx, in)
	if err != nil {
		s.recorder.IncSubscription(outcome(err))
		s.logger.Warn("subscription failed",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := s.granter.GrantPaid(ctx, in.UserID, sub.CustomerID, sub.SubscriptionID); err != nil {
		s.recorder.IncSubscription("error")
		// The charge went through; the webhook reconciles the grant later.
		s.logger.Error("failed to grant paid entitlement",
			slog.String("user_id", in.UserID),
			slog.String("subscription_id", sub.SubscriptionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to grant paid entitlement: %w", err)
	}

	s.recorder.IncSubscription("succeeded")
	s.logger.Info("subscription created",
		slog.String("user_id", in.UserID),
		slog.String("subscription_id", sub.SubscriptionID),
	)
	return sub, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrCardDeclined):
		return "declined"
	case errors.Is(err, ErrPaymentFailed):
		return "failed"
	default:
		return "error"
	}
}
