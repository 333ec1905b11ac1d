package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts normalizer outcomes. A nil *Metrics is a valid no-op so
// tests can run without a registry.
type Metrics struct {
	entriesWritten    *prometheus.CounterVec
	skippedNoActor    *prometheus.CounterVec
	swallowedFailures *prometheus.CounterVec
}

// New registers on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-supplied registry (tests).
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		entriesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ludendorff_audit_entries_written_total",
			Help: "Log entries appended, by record type and operation",
		}, []string{"record_type", "operation"}),
		skippedNoActor: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ludendorff_audit_skipped_missing_actor_total",
			Help: "Changes skipped because the record carried no actor metadata",
		}, []string{"record_type"}),
		swallowedFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ludendorff_audit_swallowed_failures_total",
			Help: "Log or strip write failures that were logged and swallowed",
		}, []string{"record_type"}),
	}
}

func (m *Metrics) Written(recordType, operation string) {
	if m == nil {
		return
	}
	m.entriesWritten.WithLabelValues(recordType, operation).Inc()
}

func (m *Metrics) SkippedMissingActor(recordType string) {
	if m == nil {
		return
	}
	m.skippedNoActor.WithLabelValues(recordType).Inc()
}

func (m *Metrics) Failed(recordType string) {
	if m == nil {
		return
	}
	m.swallowedFailures.WithLabelValues(recordType).Inc()
}
