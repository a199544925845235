package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTurn(OutcomeCompleted)
	m.RecordTurn(OutcomeCompleted)
	m.RecordTurn(OutcomeCanceled)
	m.RecordChunk("thinking")
	m.RecordChunk("answer")
	m.RecordChunk("answer")
	m.RecordMalformed()
	m.RecordPersist(PersistOK)
	m.RecordUpstreamError("dns")
	m.RecordFirstChunk(150 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues(OutcomeCanceled)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChunksTotal.WithLabelValues("answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedPayloadsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistTotal.WithLabelValues(PersistOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrorsTotal.WithLabelValues("dns")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TimeToFirstChunkSeconds))
}

func TestMetricsActiveStreams(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	done1 := m.StreamStarted()
	done2 := m.StreamStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveStreams))

	done1()
	done2()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveStreams))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTurn(OutcomeCompleted)
		m.RecordChunk("answer")
		m.RecordMalformed()
		m.RecordPersist(PersistFailed)
		m.RecordUpstreamError("tls")
		m.RecordFirstChunk(time.Second)
		m.StreamStarted()()
	})
}
