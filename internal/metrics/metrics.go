// Package metrics holds the Prometheus metrics of the processing engine.
//
// A nil *Metrics is valid and records nothing, so components accept an
// optional *Metrics without checking whether metrics are enabled.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "govstack"

// Metrics holds the engine counters and histograms.
type Metrics struct {
	// Mapping
	documentsMapped *prometheus.CounterVec // By mode
	fieldsMapped    *prometheus.CounterVec // By destination
	arrayRows       *prometheus.CounterVec // By grid
	fieldFailures   *prometheus.CounterVec // By section
	mappingDuration prometheus.Histogram

	// Validation
	validationErrors *prometheus.CounterVec // By error kind
	validations      *prometheus.CounterVec // By outcome: valid, invalid

	// Registration
	registrations        *prometheus.CounterVec   // By service and outcome
	registrationDuration *prometheus.HistogramVec // By service
}

// New creates the metrics and registers them with reg.
// A nil reg disables metrics and returns a nil *Metrics.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil // Metrics disabled
	}

	m := &Metrics{
		documentsMapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapper",
			Name:      "documents_total",
			Help:      "Total number of documents mapped",
		}, []string{"mode"}), // mode: single, multi

		fieldsMapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapper",
			Name:      "fields_total",
			Help:      "Total number of scalar fields written",
		}, []string{"destination"}),

		arrayRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapper",
			Name:      "array_rows_total",
			Help:      "Total number of array section rows produced",
		}, []string{"grid"}),

		fieldFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mapper",
			Name:      "field_failures_total",
			Help:      "Total number of field extractions that failed and produced no value",
		}, []string{"section"}),

		mappingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mapper",
			Name:      "duration_seconds",
			Help:      "Document mapping duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),

		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "errors_total",
			Help:      "Total number of validation errors",
		}, []string{"kind"}),

		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "documents_total",
			Help:      "Total number of documents validated",
		}, []string{"outcome"}),

		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "requests_total",
			Help:      "Total number of registration requests",
		}, []string{"service", "outcome"}), // outcome: submitted, validation_failed, error

		registrationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registration",
			Name:      "duration_seconds",
			Help:      "Registration processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
	}

	collectors := []prometheus.Collector{
		m.documentsMapped, m.fieldsMapped, m.arrayRows, m.fieldFailures, m.mappingDuration,
		m.validationErrors, m.validations,
		m.registrations, m.registrationDuration,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// RecordDocumentMapped records one mapped document.
func (m *Metrics) RecordDocumentMapped(multiDestination bool, duration time.Duration) {
	if m == nil {
		return
	}

	mode := "single"
	if multiDestination {
		mode = "multi"
	}

	m.documentsMapped.WithLabelValues(mode).Inc()
	m.mappingDuration.Observe(duration.Seconds())
}

// RecordFields records n scalar fields written to destination.
func (m *Metrics) RecordFields(destination string, n int) {
	if m == nil || n == 0 {
		return
	}

	m.fieldsMapped.WithLabelValues(destination).Add(float64(n))
}

// RecordArrayRows records n rows produced for grid.
func (m *Metrics) RecordArrayRows(grid string, n int) {
	if m == nil || n == 0 {
		return
	}

	m.arrayRows.WithLabelValues(grid).Add(float64(n))
}

// RecordFieldFailure records a swallowed extraction failure.
func (m *Metrics) RecordFieldFailure(section string) {
	if m == nil {
		return
	}

	m.fieldFailures.WithLabelValues(section).Inc()
}

// RecordValidation records a validation outcome and its errors by kind.
func (m *Metrics) RecordValidation(valid bool, errorsByKind map[string]int) {
	if m == nil {
		return
	}

	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}

	m.validations.WithLabelValues(outcome).Inc()

	for kind, n := range errorsByKind {
		m.validationErrors.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordRegistration records a registration request outcome.
func (m *Metrics) RecordRegistration(service, outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	m.registrations.WithLabelValues(service, outcome).Inc()
	m.registrationDuration.WithLabelValues(service).Observe(duration.Seconds())
}
