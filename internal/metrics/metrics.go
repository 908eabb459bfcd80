package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the price fetch service.
// A nil *Metrics records nothing.
type Metrics struct {
	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderErrorsTotal     *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// Rotation metrics
	RotationsTotal *prometheus.CounterVec
	LastPrice      *prometheus.GaugeVec

	// Quote metrics
	QuoteRequestsTotal   *prometheus.CounterVec
	QuoteRequestDuration *prometheus.HistogramVec
	QuotesGeneratedTotal prometheus.Counter

	// Cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	// Event metrics
	QuoteEventsTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "price_fetch_service"
	}
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of fetch attempts against price providers",
			},
			[]string{"provider", "status"},
		),

		ProviderErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of failed fetch attempts by cause",
			},
			[]string{"provider", "error_type"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Duration of fetch attempts in seconds, including time spent waiting for the fetch gate",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),

		RotationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rotations_total",
				Help:      "Total number of provider rotations by outcome",
			},
			[]string{"hop", "status"},
		),

		LastPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Most recently fetched price per hop",
			},
			[]string{"hop"},
		),

		QuoteRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_requests_total",
				Help:      "Total number of quote requests",
			},
			[]string{"status"},
		),

		QuoteRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quote_request_duration_seconds",
				Help:      "Duration of quote requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"cache_hit"},
		),

		QuotesGeneratedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quotes_generated_total",
				Help:      "Total number of quotes composed from fresh prices",
			},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of quote cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of quote cache misses",
			},
		),

		QuoteEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quote_events_total",
				Help:      "Total number of quote events published",
			},
			[]string{"status"},
		),
	}
}

// RecordProviderRequest records a fetch attempt
func (m *Metrics) RecordProviderRequest(provider, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordProviderError records a failed fetch attempt
func (m *Metrics) RecordProviderError(provider, errorType string) {
	if m == nil {
		return
	}
	m.ProviderErrorsTotal.WithLabelValues(provider, errorType).Inc()
}

// RecordRotation records the outcome of a rotation and the price it produced
func (m *Metrics) RecordRotation(hop, status string, price float64) {
	if m == nil {
		return
	}
	m.RotationsTotal.WithLabelValues(hop, status).Inc()
	if status == "success" {
		m.LastPrice.WithLabelValues(hop).Set(price)
	}
}

// RecordQuoteRequest records metrics for a quote request
func (m *Metrics) RecordQuoteRequest(status string, durationSeconds float64, cacheHit bool) {
	if m == nil {
		return
	}
	m.QuoteRequestsTotal.WithLabelValues(status).Inc()

	cacheHitStr := "false"
	if cacheHit {
		cacheHitStr = "true"
	}
	m.QuoteRequestDuration.WithLabelValues(cacheHitStr).Observe(durationSeconds)
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissesTotal.Inc()
}

// RecordQuoteGenerated records a freshly composed quote
func (m *Metrics) RecordQuoteGenerated() {
	if m == nil {
		return
	}
	m.QuotesGeneratedTotal.Inc()
}

// RecordQuoteEvent records a quote event publish attempt
func (m *Metrics) RecordQuoteEvent(status string) {
	if m == nil {
		return
	}
	m.QuoteEventsTotal.WithLabelValues(status).Inc()
}
