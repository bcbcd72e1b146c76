// Package monitoring exposes pipeline counters and run health snapshots.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what the reconciliation pipeline does. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Extracted candidates by field and method
	Candidates *prometheus.CounterVec

	// Validation rejections by field
	Rejections *prometheus.CounterVec

	// Cross-source merges by identity key
	Merges *prometheus.CounterVec

	// Recovered cleaning step failures by step
	CleaningErrors *prometheus.CounterVec

	// Finalized records by confidence tier
	Records *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. Pass
// prometheus.NewRegistry() in tests to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Candidates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_extract_candidates_total",
			Help: "Candidate values produced by extraction, by field and method",
		}, []string{"field", "method"}),

		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_validate_rejections_total",
			Help: "Candidate values rejected by the field validator, by field",
		}, []string{"field"}),

		Merges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_merge_matches_total",
			Help: "Records matched across sources, by identity key",
		}, []string{"key"}), // key: "email", "phone", "domain_name", "name", "none"

		CleaningErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_clean_errors_total",
			Help: "Cleaning steps that failed and kept the original value, by step",
		}, []string{"step"}),

		Records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_records_total",
			Help: "Finalized contact records by confidence tier",
		}, []string{"confidence"}),
	}
}

// AddCandidates records n candidates for a field and method.
func (m *Metrics) AddCandidates(field, method string, n int) {
	if m != nil && n > 0 {
		m.Candidates.WithLabelValues(field, method).Add(float64(n))
	}
}

// IncrementRejection records a validation rejection.
func (m *Metrics) IncrementRejection(field string) {
	if m != nil {
		m.Rejections.WithLabelValues(field).Inc()
	}
}

// IncrementMerge records one merge decision.
func (m *Metrics) IncrementMerge(key string) {
	if m != nil {
		m.Merges.WithLabelValues(key).Inc()
	}
}

// IncrementCleaningError records a recovered cleaning failure.
func (m *Metrics) IncrementCleaningError(step string) {
	if m != nil {
		m.CleaningErrors.WithLabelValues(step).Inc()
	}
}

// IncrementRecord records a finalized record.
func (m *Metrics) IncrementRecord(confidence string) {
	if m != nil {
		m.Records.WithLabelValues(confidence).Inc()
	}
}
