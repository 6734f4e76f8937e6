// Package observe provides application-wide observability primitives for
// Lector: OpenTelemetry metrics, structured logging, and HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Lector metrics.
const meterName = "github.com/lectorhq/lector"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per backend operation ---

	// ClassifyDuration tracks bulk vocabulary-status lookup latency.
	ClassifyDuration metric.Float64Histogram

	// TranslateDuration tracks word/sentence translation latency.
	TranslateDuration metric.Float64Histogram

	// --- Counters ---

	// VocabRequests counts vocabulary backend calls. Use with attributes:
	//   attribute.String("operation", ...), attribute.String("status", ...)
	VocabRequests metric.Int64Counter

	// BoundaryEvents counts consumed speech word boundaries. Use with
	// attribute: attribute.String("outcome", "resolved"|"miss")
	BoundaryEvents metric.Int64Counter

	// DriftRecoveries counts boundaries resolved by fuzzy re-anchoring
	// after an offset-table miss.
	DriftRecoveries metric.Int64Counter

	// HighlightTransitions counts highlight moves driven by playback.
	HighlightTransitions metric.Int64Counter

	// StatusChanges counts user-initiated learning-status edits. Use with
	// attribute: attribute.String("status", ...)
	StatusChanges metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live reading sessions.
	ActiveSessions metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for interactive backend calls.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ClassifyDuration, err = m.Float64Histogram("lector.classify.duration",
		metric.WithDescription("Latency of bulk vocabulary-status lookups."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranslateDuration, err = m.Float64Histogram("lector.translate.duration",
		metric.WithDescription("Latency of contextual word translation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.VocabRequests, err = m.Int64Counter("lector.vocab.requests",
		metric.WithDescription("Total vocabulary backend requests by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.BoundaryEvents, err = m.Int64Counter("lector.speech.boundary_events",
		metric.WithDescription("Total consumed word boundary events by outcome."),
	); err != nil {
		return nil, err
	}
	if met.DriftRecoveries, err = m.Int64Counter("lector.speech.drift_recoveries",
		metric.WithDescription("Total boundaries re-anchored by fuzzy matching after an offset miss."),
	); err != nil {
		return nil, err
	}
	if met.HighlightTransitions, err = m.Int64Counter("lector.highlight.transitions",
		metric.WithDescription("Total highlight moves driven by speech playback."),
	); err != nil {
		return nil, err
	}
	if met.StatusChanges, err = m.Int64Counter("lector.vocab.status_changes",
		metric.WithDescription("Total learning-status edits by new status."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveSessions, err = m.Int64UpDownCounter("lector.active_sessions",
		metric.WithDescription("Number of live reading sessions."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("lector.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordVocabRequest is a convenience method that records a vocabulary
// backend request counter increment with the standard attribute set.
func (m *Metrics) RecordVocabRequest(ctx context.Context, operation, status string) {
	m.VocabRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordBoundaryEvent records one consumed word boundary and its outcome.
func (m *Metrics) RecordBoundaryEvent(ctx context.Context, resolved bool) {
	outcome := "resolved"
	if !resolved {
		outcome = "miss"
	}
	m.BoundaryEvents.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}

// RecordStatusChange records one learning-status edit.
func (m *Metrics) RecordStatusChange(ctx context.Context, status string) {
	m.StatusChanges.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
