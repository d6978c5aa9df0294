package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weatherku"

// Service states reported by the ServiceState gauge.
const (
	StateRunning  = 0
	StateDraining = 1
	StateStopped  = 2
)

// Metrics holds the Prometheus collectors for the weather table service.
type Metrics struct {
	Requests *prometheus.CounterVec // labels: operation={range,all,stats,insert,update,delete}, outcome={ok,rejected,unavailable}
	Records  prometheus.Gauge

	// Persistence metrics.
	Flushes       *prometheus.CounterVec // labels: outcome={ok,error}
	FlushDuration prometheus.Histogram

	ServiceState prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Table operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records currently held in the table.",
		}),
		Flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Backing file rewrites by outcome.",
		}, []string{"outcome"}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Duration of a backing file rewrite.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ServiceState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_state",
			Help:      "0 running, 1 draining, 2 stopped.",
		}),
	}
}

// NewMetrics creates all collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(
		m.Requests,
		m.Records,
		m.Flushes,
		m.FlushDuration,
		m.ServiceState,
	)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
