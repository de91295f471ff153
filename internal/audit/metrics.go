package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dispatcher outcomes.
type Metrics struct {
	// SinkWrites counts final write outcomes. Labels: sink, result (success, failure).
	SinkWrites *prometheus.CounterVec
	// Retries counts repeated write attempts. Labels: sink.
	Retries *prometheus.CounterVec
	// Dropped counts entries discarded because the queue was full or closed.
	Dropped prometheus.Counter
}

// NewMetrics registers the audit metrics with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SinkWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "audit",
			Name:      "sink_writes_total",
			Help:      "Audit sink write outcomes.",
		}, []string{"sink", "result"}),
		Retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "audit",
			Name:      "sink_retries_total",
			Help:      "Audit sink write retries.",
		}, []string{"sink"}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "audit",
			Name:      "dropped_total",
			Help:      "Audit entries dropped before reaching any sink.",
		}),
	}
}
