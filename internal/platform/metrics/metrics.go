// Package metrics はPrometheusのメトリクスを定義します。
// nil の *Metrics に対する記録は何もしないため、テストや計測不要な構成では nil を渡せます。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache operation labels.
const (
	CacheGet = "get"
	CachePut = "put"

	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheCorrupt  = "corrupt"
	CacheError    = "error"
	CacheStored   = "stored"
	CacheDisabled = "disabled"
)

// Metrics holds the Prometheus collectors of the API server.
type Metrics struct {
	CacheOps        *prometheus.CounterVec   // labels: op, result
	Requests        *prometheus.CounterVec   // labels: indicator, outcome
	RequestDuration *prometheus.HistogramVec // labels: indicator, outcome
	ComputeDuration *prometheus.HistogramVec // labels: indicator
	UsageIncrements *prometheus.CounterVec   // labels: result
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_cache_operations_total",
			Help: "Result cache operations by outcome",
		}, []string{"op", "result"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_requests_total",
			Help: "Indicator requests by outcome",
		}, []string{"indicator", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indicator_request_duration_seconds",
			Help:    "Indicator request latency from validation to response",
			Buckets: prometheus.DefBuckets,
		}, []string{"indicator", "outcome"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indicator_compute_duration_seconds",
			Help:    "Indicator engine compute latency",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"indicator"}),
		UsageIncrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_usage_increments_total",
			Help: "Daily usage counter increments by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.CacheOps,
		m.Requests,
		m.RequestDuration,
		m.ComputeDuration,
		m.UsageIncrements,
	)
	return m
}

// CacheOp counts one cache operation.
func (m *Metrics) CacheOp(op, result string) {
	if m == nil {
		return
	}
	m.CacheOps.WithLabelValues(op, result).Inc()
}

// ObserveRequest records the outcome and latency of one indicator request.
func (m *Metrics) ObserveRequest(indicator, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(indicator, outcome).Inc()
	m.RequestDuration.WithLabelValues(indicator, outcome).Observe(d.Seconds())
}

// ObserveCompute records engine latency.
func (m *Metrics) ObserveCompute(indicator string, d time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.WithLabelValues(indicator).Observe(d.Seconds())
}

// UsageIncrement counts one usage counter update ("admitted", "ceiling", "error").
func (m *Metrics) UsageIncrement(result string) {
	if m == nil {
		return
	}
	m.UsageIncrements.WithLabelValues(result).Inc()
}
