package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/boxoffice/internal/ir"
)

// Metrics are the Prometheus collectors the engine updates. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	TicketsSold prometheus.Gauge
	QueueDepth  prometheus.Gauge
}

// NewMetrics registers the engine collectors with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "boxoffice_transitions_total",
			Help: "Applied ledger transitions by op, outcome and rejection code",
		}, []string{"op", "outcome", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "boxoffice_transition_duration_seconds",
			Help:    "Time to apply and record one transition",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		TicketsSold: f.NewGauge(prometheus.GaugeOpts{
			Name: "boxoffice_tickets_sold",
			Help: "Tickets with an owner",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "boxoffice_queue_depth",
			Help: "Commands waiting for the engine loop",
		}),
	}
}

func (m *Metrics) observe(t ir.Transition, elapsed time.Duration, sold int) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(string(t.Op), string(t.Outcome), t.Code).Inc()
	m.Duration.WithLabelValues(string(t.Op)).Observe(elapsed.Seconds())
	m.TicketsSold.Set(float64(sold))
}

func (m *Metrics) setSold(n int) {
	if m == nil {
		return
	}
	m.TicketsSold.Set(float64(n))
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
