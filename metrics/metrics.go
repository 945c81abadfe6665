// Package metrics exposes Prometheus instrumentation for the pension contract.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/pension-engine/pension"
)

// Metrics provides observability for contract operations. Each instance owns
// its registry so several contracts (and tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	// Operation outcomes by operation name and error kind ("ok" on success)
	Operations *prometheus.CounterVec

	// Operation latency by operation name
	Latency *prometheus.HistogramVec

	// Payout amounts returned by initiate_payout, in smallest units
	PayoutAmount prometheus.Histogram
}

var _ pension.Observer = (*Metrics)(nil)

// New creates a Metrics instance with every pension metric registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pension_operations_total",
			Help: "Total contract operations by operation and outcome kind",
		}, []string{"op", "kind"}),

		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pension_operation_duration_seconds",
			Help:    "Duration of contract operations including the store transaction",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"op"}),

		PayoutAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pension_initiated_payout_amount",
			Help:    "Net payout per period fixed at pension initiation",
			Buckets: prometheus.ExponentialBuckets(1000, 4, 10),
		}),
	}
}

// ObserveOperation records one completed contract operation.
func (m *Metrics) ObserveOperation(op string, kind pension.ErrorKind, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := string(kind)
	if outcome == "" {
		outcome = "ok"
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.Latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObservePayout records a payout amount fixed by initiation.
func (m *Metrics) ObservePayout(amount uint64) {
	if m != nil {
		m.PayoutAmount.Observe(float64(amount))
	}
}

// Registry returns the private registry, for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
