// Package observe provides application-wide observability primitives:
// OpenTelemetry metrics with a Prometheus exporter bridge.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped
// via the standard /metrics endpoint set up by [InitProvider]. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/yomubot/yomu"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// SynthesisDuration tracks text-to-speech synthesis latency. Use with
	// attributes:
	//   attribute.String("backend", ...), attribute.String("status", ...)
	SynthesisDuration metric.Float64Histogram

	// CacheLookups counts synthesis cache lookups. Use with attribute:
	//   attribute.String("result", "hit"|"miss")
	CacheLookups metric.Int64Counter

	// SegmentsEnqueued counts audio segments handed to playback queues.
	SegmentsEnqueued metric.Int64Counter

	// MessagesRead counts chat messages accepted for reading.
	MessagesRead metric.Int64Counter

	// MessagesLagged counts low-priority messages skipped because a reader
	// fell behind its queue.
	MessagesLagged metric.Int64Counter

	// ActiveSessions tracks the number of live per-guild reading sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// synthesis API round trips.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SynthesisDuration, err = m.Float64Histogram("yomu.synthesis.duration",
		metric.WithDescription("Latency of text-to-speech synthesis by backend and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CacheLookups, err = m.Int64Counter("yomu.cache.lookups",
		metric.WithDescription("Total synthesis cache lookups by result."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsEnqueued, err = m.Int64Counter("yomu.segments.enqueued",
		metric.WithDescription("Total audio segments enqueued for playback."),
	); err != nil {
		return nil, err
	}
	if met.MessagesRead, err = m.Int64Counter("yomu.messages.read",
		metric.WithDescription("Total chat messages accepted for reading."),
	); err != nil {
		return nil, err
	}
	if met.MessagesLagged, err = m.Int64Counter("yomu.messages.lagged",
		metric.WithDescription("Total low-priority messages skipped due to queue lag."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("yomu.active_sessions",
		metric.WithDescription("Number of live per-guild reading sessions."),
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

// RecordSynthesis records one synthesis round trip with the standard
// attribute set.
func (m *Metrics) RecordSynthesis(ctx context.Context, backend string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SynthesisDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(
			attribute.String("backend", backend),
			attribute.String("status", status),
		),
	)
}

// RecordCacheLookup records one synthesis cache lookup.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
}
