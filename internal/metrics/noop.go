package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLookup is a no-op.
func (n *NoopRecorder) IncLookup(kind, source string) {}

// ObserveLookupDuration is a no-op.
func (n *NoopRecorder) ObserveLookupDuration(kind string, duration time.Duration) {}

// IncStrategyGenerated is a no-op.
func (n *NoopRecorder) IncStrategyGenerated() {}

// IncPaymentRequired is a no-op.
func (n *NoopRecorder) IncPaymentRequired() {}

// IncGenerationFailed is a no-op.
func (n *NoopRecorder) IncGenerationFailed() {}

// ObserveGenerationDuration is a no-op.
func (n *NoopRecorder) ObserveGenerationDuration(duration time.Duration) {}

// IncSubscription is a no-op.
func (n *NoopRecorder) IncSubscription(status string) {}

// IncWebhookEvent is a no-op.
func (n *NoopRecorder) IncWebhookEvent(eventType string) {}
