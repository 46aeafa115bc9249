package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Lookups                 map[string]uint64 // keyed by "kind/source"
	LookupDurationCount     uint64
	StrategiesGenerated     uint64
	PaymentRequired         uint64
	GenerationFailed        uint64
	GenerationDurationCount uint64
	Subscriptions           map[string]uint64
	WebhookEvents           map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	lookupDurationCount     uint64
	strategiesGenerated     uint64
	paymentRequired         uint64
	generationFailed        uint64
	generationDurationCount uint64

	mu            sync.Mutex
	lookups       map[string]uint64
	subscriptions map[string]uint64
	webhookEvents map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		lookups:       make(map[string]uint64),
		subscriptions: make(map[string]uint64),
		webhookEvents: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Lookups:                 copyCounts(m.lookups),
		LookupDurationCount:     atomic.LoadUint64(&m.lookupDurationCount),
		StrategiesGenerated:     atomic.LoadUint64(&m.strategiesGenerated),
		PaymentRequired:         atomic.LoadUint64(&m.paymentRequired),
		GenerationFailed:        atomic.LoadUint64(&m.generationFailed),
		GenerationDurationCount: atomic.LoadUint64(&m.generationDurationCount),
		Subscriptions:           copyCounts(m.subscriptions),
		WebhookEvents:           copyCounts(m.webhookEvents),
	}
}

// IncLookup increments the lookup counter for kind and source.
func (m *InMemoryRecorder) IncLookup(kind, source string) {
	m.mu.Lock()
	m.lookups[kind+"/"+source]++
	m.mu.Unlock()
}

// ObserveLookupDuration records a lookup duration.
func (m *InMemoryRecorder) ObserveLookupDuration(kind string, duration time.Duration) {
	atomic.AddUint64(&m.lookupDurationCount, 1)
}

// IncStrategyGenerated increments the generated counter.
func (m *InMemoryRecorder) IncStrategyGenerated() {
	atomic.AddUint64(&m.strategiesGenerated, 1)
}

// IncPaymentRequired increments the payment-required counter.
func (m *InMemoryRecorder) IncPaymentRequired() {
	atomic.AddUint64(&m.paymentRequired, 1)
}

// IncGenerationFailed increments the failed generation counter.
func (m *InMemoryRecorder) IncGenerationFailed() {
	atomic.AddUint64(&m.generationFailed, 1)
}

// ObserveGenerationDuration records a generation duration.
func (m *InMemoryRecorder) ObserveGenerationDuration(duration time.Duration) {
	atomic.AddUint64(&m.generationDurationCount, 1)
}

// IncSubscription increments the subscription counter for status.
func (m *InMemoryRecorder) IncSubscription(status string) {
	m.mu.Lock()
	m.subscriptions[status]++
	m.mu.Unlock()
}

// IncWebhookEvent increments the webhook counter for eventType.
func (m *InMemoryRecorder) IncWebhookEvent(eventType string) {
	m.mu.Lock()
	m.webhookEvents[eventType]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
