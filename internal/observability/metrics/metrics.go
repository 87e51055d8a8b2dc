// Package metrics registers the Prometheus instruments exposed on /metrics.
// All record methods are nil-safe so wiring stays optional in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "medibot"

// IntakeMetrics counts conversation traffic and oracle usage.
type IntakeMetrics struct {
	SessionsStarted prometheus.Counter
	Transitions     *prometheus.CounterVec
	OracleRequests  *prometheus.CounterVec
	OracleLatency   prometheus.Histogram
}

// NewIntakeMetrics registers the intake instruments on the given registerer.
func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	factory := promauto.With(reg)
	return &IntakeMetrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_sessions_started_total",
			Help:      "Number of intake conversations opened.",
		}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intake_transitions_total",
			Help:      "Phase transitions by phase and result.",
		}, []string{"phase", "result"}),
		OracleRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "LLM calls by call site and outcome.",
		}, []string{"call", "outcome"}),
		OracleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_latency_seconds",
			Help:      "LLM round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordSessionStarted bumps the session counter.
func (m *IntakeMetrics) RecordSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// RecordTransition records one phase transition outcome.
func (m *IntakeMetrics) RecordTransition(phase, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(phase, result).Inc()
}

// RecordOracleRequest records one LLM call and its latency in seconds.
func (m *IntakeMetrics) RecordOracleRequest(call, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.OracleRequests.WithLabelValues(call, outcome).Inc()
	m.OracleLatency.Observe(seconds)
}

// BookingMetrics counts slot queries and reservation outcomes.
type BookingMetrics struct {
	Reservations *prometheus.CounterVec
	SlotQueries  prometheus.Counter
}

// NewBookingMetrics registers the booking instruments on the given registerer.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	factory := promauto.With(reg)
	return &BookingMetrics{
		Reservations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reservation attempts by outcome.",
		}, []string{"outcome"}),
		SlotQueries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_queries_total",
			Help:      "Availability lookups served.",
		}),
	}
}

// RecordReservation records one reservation attempt outcome.
func (m *BookingMetrics) RecordReservation(outcome string) {
	if m == nil {
		return
	}
	m.Reservations.WithLabelValues(outcome).Inc()
}

// RecordSlotQuery bumps the availability lookup counter.
func (m *BookingMetrics) RecordSlotQuery() {
	if m == nil {
		return
	}
	m.SlotQueries.Inc()
}
