package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for eligibility checks and list imports.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Check verdicts by outcome (passed, blocked, error) and deciding stage
	Checks *prometheus.CounterVec

	// Full check latency including session checkout
	CheckLatency prometheus.Histogram

	// Per-stage latency
	StageLatency *prometheus.HistogramVec

	// Lookup failures folded into the trace
	LookupErrors *prometheus.CounterVec

	// Imported rows by list and result (imported, duplicate, error)
	ImportRows *prometheus.CounterVec
}

// New registers all metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eligibility_checks_total",
			Help: "Total eligibility checks by outcome and deciding stage",
		}, []string{"outcome", "decided_by"}),

		CheckLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "eligibility_check_duration_seconds",
			Help:    "Duration of a full eligibility check including connection checkout",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eligibility_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"stage"}), // stage: normalize, blacklist, whitelist, status_list

		LookupErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eligibility_lookup_errors_total",
			Help: "List lookups that failed and were recorded as error steps",
		}, []string{"lookup"}),

		ImportRows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "address_list_import_rows_total",
			Help: "Rows processed by list imports by list and result",
		}, []string{"list", "result"}),
	}
}

// ObserveStage records the duration of one pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// LookupFailed counts a failed list lookup.
func (m *Metrics) LookupFailed(lookup string) {
	if m != nil {
		m.LookupErrors.WithLabelValues(lookup).Inc()
	}
}

// ObserveCheck records a finished check.
func (m *Metrics) ObserveCheck(outcome, decidedBy string, d time.Duration) {
	if m != nil {
		m.Checks.WithLabelValues(outcome, decidedBy).Inc()
		m.CheckLatency.Observe(d.Seconds())
	}
}

// AddImportRows records the row counts of one import.
func (m *Metrics) AddImportRows(list string, imported, duplicates, errors int) {
	if m != nil {
		m.ImportRows.WithLabelValues(list, "imported").Add(float64(imported))
		m.ImportRows.WithLabelValues(list, "duplicate").Add(float64(duplicates))
		m.ImportRows.WithLabelValues(list, "error").Add(float64(errors))
	}
}
