package nanolog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEmitAndDrop(t *testing.T) {
	m := NewMetrics()

	snap := m.Snapshot()
	assert.Zero(t, snap.EmittedOps)
	assert.Zero(t, snap.DroppedOps)

	m.RecordEmit(1_000)
	m.RecordEmit(2_000)
	m.RecordDrop()

	snap = m.Snapshot()
	assert.EqualValues(t, 2, snap.EmittedOps)
	assert.EqualValues(t, 1, snap.DroppedOps)
	assert.InDelta(t, 1.0/3.0, snap.DropRate, 0.01)
}

func TestMetricsFlush(t *testing.T) {
	m := NewMetrics()

	m.RecordFlush(1024, true)
	m.RecordFlush(512, false)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.FlushOps)
	assert.EqualValues(t, 1536, snap.FlushBytes)
	assert.EqualValues(t, 1, snap.FlushErrors)
}

func TestMetricsQueueDepth(t *testing.T) {
	m := NewMetrics()

	m.RecordQueueDepth(10)
	m.RecordQueueDepth(20)
	m.RecordQueueDepth(15)

	snap := m.Snapshot()
	assert.EqualValues(t, 20, snap.MaxQueueDepth)
	assert.InDelta(t, float64(10+20+15)/3.0, snap.AvgQueueDepth, 0.01)
}

func TestMetricsAvgLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordEmit(1_000_000)
	m.RecordEmit(2_000_000)

	snap := m.Snapshot()
	assert.EqualValues(t, 1_500_000, snap.AvgLatencyNs)
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()
	time.Sleep(10 * time.Millisecond)

	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.UptimeNs, uint64(10*time.Millisecond))

	m.Stop()
	time.Sleep(5 * time.Millisecond)

	snap2 := m.Snapshot()
	assert.LessOrEqual(t, snap2.UptimeNs, snap.UptimeNs+uint64(2*time.Millisecond))
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.RecordEmit(1_000)
	m.RecordQueueDepth(10)

	require.NotZero(t, m.Snapshot().EmittedOps)

	m.Reset()

	snap := m.Snapshot()
	assert.Zero(t, snap.EmittedOps)
	assert.Zero(t, snap.MaxQueueDepth)
}

func TestObserverImplementations(t *testing.T) {
	var noop Observer = NoOpObserver{}
	assert.NotPanics(t, func() {
		noop.ObserveEmit(1_000)
		noop.ObserveDrop()
		noop.ObserveFlush(1_000, true)
		noop.ObserveQueueDepth(5)
		noop.ObserveTruncate()
		noop.ObserveClockAnomaly()
		noop.ObserveRewind(2)
	})

	m := NewMetrics()
	obs := NewStatsObserver(m)
	obs.ObserveEmit(1_000)
	obs.ObserveDrop()
	obs.ObserveFlush(2_048, true)
	obs.ObserveQueueDepth(3)
	obs.ObserveTruncate()
	obs.ObserveClockAnomaly()
	obs.ObserveRewind(4)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.EmittedOps)
	assert.EqualValues(t, 1, snap.DroppedOps)
	assert.EqualValues(t, 2048, snap.FlushBytes)
	assert.EqualValues(t, 3, snap.MaxQueueDepth)
	assert.EqualValues(t, 1, snap.Truncated)
	assert.EqualValues(t, 1, snap.ClockAnomalies)
	assert.EqualValues(t, 4, snap.RewindCount)
}

func TestMetricsHistogramPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordEmit(500) // 500ns, well under the 1us bucket
	}
	for i := 0; i < 49; i++ {
		m.RecordEmit(5_000_000) // 5ms
	}
	m.RecordEmit(50_000_000) // 50ms, the P99 tail

	snap := m.Snapshot()
	assert.EqualValues(t, 100, snap.EmittedOps)
	assert.LessOrEqual(t, snap.LatencyP50Ns, uint64(10_000_000))
	assert.GreaterOrEqual(t, snap.LatencyP99Ns, uint64(1_000_000))

	var total uint64
	for _, v := range snap.LatencyHistogram {
		total += v
	}
	assert.NotZero(t, total)
}
