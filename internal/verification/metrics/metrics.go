package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module. All methods
// are safe on a nil receiver.
type Metrics struct {
	// Ledger mutations by kind and method
	LedgerChanges *prometheus.CounterVec

	// Signal outcomes by method and result (completed, already_completed, not_completed)
	SignalOutcomes *prometheus.CounterVec

	// External collaborator latency by collaborator and result
	ExternalLatency *prometheus.HistogramVec

	// Snapshot store failures by operation
	PersistenceFailures *prometheus.CounterVec

	// Ledgers held in memory and those awaiting a retried save
	ActiveLedgers prometheus.Gauge
	DirtyLedgers  prometheus.Gauge
}

// New creates a new Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		LedgerChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_ledger_changes_total",
			Help: "Effective ledger mutations by kind and method",
		}, []string{"kind", "method"}),

		SignalOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_verification_outcomes_total",
			Help: "Verification signal outcomes by method and result",
		}, []string{"method", "result"}),

		ExternalLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veridion_external_call_duration_seconds",
			Help:    "Duration of calls to OAuth providers and Horizon",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"collaborator", "result"}),

		PersistenceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridion_ledger_persistence_failures_total",
			Help: "Snapshot store failures by operation",
		}, []string{"operation"}),

		ActiveLedgers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "veridion_ledgers_active",
			Help: "Ledgers currently held in memory",
		}),

		DirtyLedgers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "veridion_ledgers_dirty",
			Help: "Ledgers whose latest state has not been persisted",
		}),
	}
}

// IncrementLedgerChange records an effective ledger mutation.
func (m *Metrics) IncrementLedgerChange(kind, method string) {
	if m != nil {
		m.LedgerChanges.WithLabelValues(kind, method).Inc()
	}
}

// IncrementOutcome records a signal outcome.
func (m *Metrics) IncrementOutcome(method, result string) {
	if m != nil {
		m.SignalOutcomes.WithLabelValues(method, result).Inc()
	}
}

// ObserveExternal records a collaborator call.
func (m *Metrics) ObserveExternal(collaborator string, err error, d time.Duration) {
	if m != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		m.ExternalLatency.WithLabelValues(collaborator, result).Observe(d.Seconds())
	}
}

// IncrementPersistenceFailure records a failed store operation.
func (m *Metrics) IncrementPersistenceFailure(operation string) {
	if m != nil {
		m.PersistenceFailures.WithLabelValues(operation).Inc()
	}
}

// SetActiveLedgers sets the in-memory ledger gauge.
func (m *Metrics) SetActiveLedgers(n int) {
	if m != nil {
		m.ActiveLedgers.Set(float64(n))
	}
}

// SetDirtyLedgers sets the unpersisted ledger gauge.
func (m *Metrics) SetDirtyLedgers(n int) {
	if m != nil {
		m.DirtyLedgers.Set(float64(n))
	}
}
