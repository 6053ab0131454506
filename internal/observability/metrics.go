package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. A nil
// *Metrics is valid and records nothing, which keeps tests quiet.
type Metrics struct {
	Turns               *prometheus.CounterVec
	TurnDuration        prometheus.Histogram
	ShortTermEvictions  prometheus.Counter
	Promotions          *prometheus.CounterVec
	SweepRuns           *prometheus.CounterVec
	LongTermFactsStored prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed turns by outcome.",
		}, []string{"outcome"}),
		TurnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "End-to-end turn latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		ShortTermEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_term_evictions_total",
			Help:      "Turns evicted from short-term buffers.",
		}),
		Promotions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotions_total",
			Help:      "Overflow promotions by outcome.",
		}, []string{"outcome"}),
		SweepRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_runs_total",
			Help:      "Mid-term expiry sweeps by outcome.",
		}, []string{"outcome"}),
		LongTermFactsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "longterm_facts_stored_total",
			Help:      "Long-term facts written via the admin path.",
		}),
	}
}

func (m *Metrics) TurnFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Turns.WithLabelValues(outcome).Inc()
	m.TurnDuration.Observe(d.Seconds())
}

func (m *Metrics) Eviction() {
	if m == nil {
		return
	}
	m.ShortTermEvictions.Inc()
}

func (m *Metrics) Promotion(outcome string) {
	if m == nil {
		return
	}
	m.Promotions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SweepFinished(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SweepRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FactStored() {
	if m == nil {
		return
	}
	m.LongTermFactsStored.Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
