package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordProviderRequest(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordProviderRequest("data.bter.com", "success", 0.2)
	m.RecordProviderRequest("data.bter.com", "failure", 0.1)
	m.RecordProviderRequest("data.bter.com", "success", 0.3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("data.bter.com", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("data.bter.com", "failure")))
}

func TestRecordRotation_SetsLastPriceOnSuccess(t *testing.T) {
	m := NewMetrics("test", prometheus.NewRegistry())

	m.RecordRotation("first_hop", "success", 0.0000085)
	m.RecordRotation("first_hop", "exhausted", 0)

	assert.Equal(t, 0.0000085, testutil.ToFloat64(m.LastPrice.WithLabelValues("first_hop")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RotationsTotal.WithLabelValues("first_hop", "exhausted")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordProviderRequest("p", "success", 1)
		m.RecordProviderError("p", "connect_failed")
		m.RecordRotation("first_hop", "success", 1)
		m.RecordQuoteRequest("success", 1, true)
		m.RecordCacheHit()
		m.RecordCacheMiss()
		m.RecordQuoteGenerated()
		m.RecordQuoteEvent("published")
	})
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics("", prometheus.NewRegistry())
		NewMetrics("", prometheus.NewRegistry())
	})
}
