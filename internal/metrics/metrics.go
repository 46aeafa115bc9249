// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Lookup sources reported by IncLookup.
const (
	SourceLive     = "live"
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// External data lookups
	IncLookup(kind, source string)
	ObserveLookupDuration(kind string, duration time.Duration)

	// Strategy generation
	IncStrategyGenerated()
	IncPaymentRequired()
	IncGenerationFailed()
	ObserveGenerationDuration(duration time.Duration)

	// Billing
	IncSubscription(status string) // status: "succeeded", "declined", "failed", "error"
	IncWebhookEvent(eventType string)
}
