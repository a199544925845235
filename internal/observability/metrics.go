// Package observability provides Prometheus metrics for the chat pipeline.
//
// Metrics are exposed via the /metrics endpoint. All methods are safe for
// concurrent use and are no-ops on a nil *Metrics, so callers that do not
// care about instrumentation can pass nil.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "hazeaihub"
	chatSubsystem    = "chat"
)

// Turn outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeEmpty     = "empty"
	OutcomeCanceled  = "canceled"
	OutcomeUpstream  = "upstream_error"
	OutcomeClient    = "client_error"
)

// Persistence results.
const (
	PersistOK              = "ok"
	PersistSessionNotFound = "session_not_found"
	PersistFailed          = "failed"
)

// Metrics holds all Prometheus metrics for streaming chat turns.
type Metrics struct {
	// TurnsTotal counts finished turns.
	// Labels: outcome (completed, empty, canceled, upstream_error, client_error)
	TurnsTotal *prometheus.CounterVec

	// ChunksTotal counts classified chunks.
	// Labels: channel (thinking, answer)
	ChunksTotal *prometheus.CounterVec

	// MalformedPayloadsTotal counts upstream payloads that failed to parse.
	MalformedPayloadsTotal prometheus.Counter

	// PersistTotal counts turn persistence attempts.
	// Labels: result (ok, session_not_found, failed)
	PersistTotal *prometheus.CounterVec

	// UpstreamErrorsTotal counts upstream failures.
	// Labels: kind (dns, connection_refused, tls, timeout, canceled, status, transport)
	UpstreamErrorsTotal *prometheus.CounterVec

	// TimeToFirstChunkSeconds measures latency from request to first chunk.
	TimeToFirstChunkSeconds prometheus.Histogram

	// ActiveStreams tracks turns currently streaming.
	ActiveStreams prometheus.Gauge
}

// NewMetrics creates and registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to stay isolated from the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turns_total",
				Help:      "Total number of chat turns by outcome",
			},
			[]string{"outcome"},
		),
		ChunksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "chunks_total",
				Help:      "Total number of stream chunks by channel",
			},
			[]string{"channel"},
		),
		MalformedPayloadsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "malformed_payloads_total",
				Help:      "Total number of upstream payloads skipped as malformed",
			},
		),
		PersistTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "persist_total",
				Help:      "Total number of turn persistence attempts by result",
			},
			[]string{"result"},
		),
		UpstreamErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream failures by kind",
			},
			[]string{"kind"},
		),
		TimeToFirstChunkSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "time_to_first_chunk_seconds",
				Help:      "Time from request to first classified chunk in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
		),
		ActiveStreams: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "active_streams",
				Help:      "Number of chat turns currently streaming",
			},
		),
	}
}

// RecordTurn counts a finished turn.
func (m *Metrics) RecordTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

// RecordChunk counts a classified chunk.
func (m *Metrics) RecordChunk(channel string) {
	if m == nil {
		return
	}
	m.ChunksTotal.WithLabelValues(channel).Inc()
}

// RecordMalformed counts a skipped payload.
func (m *Metrics) RecordMalformed() {
	if m == nil {
		return
	}
	m.MalformedPayloadsTotal.Inc()
}

// RecordPersist counts a persistence attempt.
func (m *Metrics) RecordPersist(result string) {
	if m == nil {
		return
	}
	m.PersistTotal.WithLabelValues(result).Inc()
}

// RecordUpstreamError counts an upstream failure.
func (m *Metrics) RecordUpstreamError(kind string) {
	if m == nil {
		return
	}
	m.UpstreamErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordFirstChunk observes the latency to the first chunk of a turn.
func (m *Metrics) RecordFirstChunk(d time.Duration) {
	if m == nil {
		return
	}
	m.TimeToFirstChunkSeconds.Observe(d.Seconds())
}

// StreamStarted increments the active stream gauge and returns the matching
// decrement.
func (m *Metrics) StreamStarted() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveStreams.Inc()
	return m.ActiveStreams.Dec
}
