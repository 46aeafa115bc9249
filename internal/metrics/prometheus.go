package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "strategist"

// PrometheusRecorder exports Recorder events as Prometheus collectors.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	lookupsTotal       *prometheus.CounterVec
	lookupDuration     *prometheus.HistogramVec
	strategiesTotal    prometheus.Counter
	paymentRequired    prometheus.Counter
	generationFailed   prometheus.Counter
	generationDuration prometheus.Histogram
	subscriptionsTotal *prometheus.CounterVec
	webhookEvents      *prometheus.CounterVec
}

// NewPrometheus registers all collectors on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	p := &PrometheusRecorder{
		registry: reg,
		lookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "requests_total",
				Help:      "External data lookups by kind and source (live, cache, fallback)",
			},
			[]string{"kind", "source"},
		),
		lookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lookup",
				Name:      "duration_seconds",
				Help:      "External data lookup duration in seconds",
				Buckets:   []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind"},
		),
		strategiesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "generated_total",
			Help:      "Strategies generated successfully",
		}),
		paymentRequired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "payment_required_total",
			Help:      "Generation requests denied because the free tier was exhausted",
		}),
		generationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "failed_total",
			Help:      "Generation requests that failed at the completion provider",
		}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "strategy",
			Name:      "duration_seconds",
			Help:      "End-to-end strategy generation duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 20, 30, 60},
		}),
		subscriptionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "subscriptions_total",
				Help:      "Subscription attempts by outcome",
			},
			[]string{"status"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "billing",
				Name:      "webhook_events_total",
				Help:      "Verified payment webhook events by type",
			},
			[]string{"type"},
		),
	}

	reg.MustRegister(
		p.lookupsTotal,
		p.lookupDuration,
		p.strategiesTotal,
		p.paymentRequired,
		p.generationFailed,
		p.generationDuration,
		p.subscriptionsTotal,
		p.webhookEvents,
	)

	return p
}

// Handler returns the /metrics HTTP handler for this registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncLookup implements Recorder.
func (p *PrometheusRecorder) IncLookup(kind, source string) {
	p.lookupsTotal.WithLabelValues(kind, source).Inc()
}

// ObserveLookupDuration implements Recorder.
func (p *PrometheusRecorder) ObserveLookupDuration(kind string, duration time.Duration) {
	p.lookupDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// IncStrategyGenerated implements Recorder.
func (p *PrometheusRecorder) IncStrategyGenerated() { p.strategiesTotal.Inc() }

// IncPaymentRequired implements Recorder.
func (p *PrometheusRecorder) IncPaymentRequired() { p.paymentRequired.Inc() }

// IncGenerationFailed implements Recorder.
func (p *PrometheusRecorder) IncGenerationFailed() { p.generationFailed.Inc() }

// ObserveGenerationDuration implements Recorder.
func (p *PrometheusRecorder) ObserveGenerationDuration(duration time.Duration) {
	p.generationDuration.Observe(duration.Seconds())
}

// IncSubscription implements Recorder.
func (p *PrometheusRecorder) IncSubscription(status string) {
	p.subscriptionsTotal.WithLabelValues(status).Inc()
}

// IncWebhookEvent implements Recorder.
func (p *PrometheusRecorder) IncWebhookEvent(eventType string) {
	p.webhookEvents.WithLabelValues(eventType).Inc()
}
