package nanolog

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the capture-to-render latency histogram buckets,
// in nanoseconds, logarithmically spaced from 1us to 10s. "Latency" here is
// the span between a call site's TSC capture and the consumer rendering
// that message into the sink's batch — the number a latency-sensitive
// caller actually cares about.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks operational statistics for a Logger: how many messages
// were captured, how many were dropped because a producer's ring was
// full, how the sink is keeping up, and the capture-to-render latency
// distribution.
type Metrics struct {
	EmittedOps     atomic.Uint64 // Successfully captured messages
	DroppedOps     atomic.Uint64 // Messages dropped: producer ring was full
	FlushOps       atomic.Uint64 // Sink flush calls
	FlushBytes     atomic.Uint64 // Bytes handed to the sink's writer
	FlushErrors    atomic.Uint64 // Sink write errors
	Truncated      atomic.Uint64 // Lines truncated past the scratch hard cap
	ClockAnomalies atomic.Uint64 // Backward wall-clock samples seen during calibration
	RewindCount    atomic.Uint64 // Ring rewind markers written across all producers

	QueueDepthTotal atomic.Uint64 // Cumulative queue-depth samples
	QueueDepthCount atomic.Uint64
	MaxQueueDepth   atomic.Uint32

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64

	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordEmit records one successfully captured message.
func (m *Metrics) RecordEmit(latencyNs uint64) {
	m.EmittedOps.Add(1)
	m.recordLatency(latencyNs)
}

// RecordDrop records one message dropped because its producer ring had no
// free blocks.
func (m *Metrics) RecordDrop() {
	m.DroppedOps.Add(1)
}

// RecordFlush records one sink flush of n bytes.
func (m *Metrics) RecordFlush(n uint64, success bool) {
	m.FlushOps.Add(1)
	m.FlushBytes.Add(n)
	if !success {
		m.FlushErrors.Add(1)
	}
}

// RecordTruncate records one rendered line that overflowed the scratch
// buffer's hard cap and was truncated.
func (m *Metrics) RecordTruncate() {
	m.Truncated.Add(1)
}

// RecordClockAnomaly records one calibration where the wall clock sample
// moved backward or ns_per_tsc had to be clamped to its last known-good
// value instead of a computed non-positive one.
func (m *Metrics) RecordClockAnomaly() {
	m.ClockAnomalies.Add(1)
}

// RecordRewind records n ring rewind markers, each written because a
// message would otherwise have straddled the arena's end.
func (m *Metrics) RecordRewind(n uint64) {
	m.RewindCount.Add(n)
}

// RecordQueueDepth records a sampled producer queue depth (in blocks).
func (m *Metrics) RecordQueueDepth(depth uint32) {
	m.QueueDepthTotal.Add(uint64(depth))
	m.QueueDepthCount.Add(1)
	for {
		current := m.MaxQueueDepth.Load()
		if depth <= current {
			break
		}
		if m.MaxQueueDepth.CompareAndSwap(current, depth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop marks the logger as stopped, fixing StopTime for uptime accounting.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics with
// derived statistics filled in.
type MetricsSnapshot struct {
	EmittedOps     uint64
	DroppedOps     uint64
	FlushOps       uint64
	FlushBytes     uint64
	FlushErrors    uint64
	Truncated      uint64
	ClockAnomalies uint64
	RewindCount    uint64

	AvgQueueDepth float64
	MaxQueueDepth uint32

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64

	EmitRate  float64 // messages captured per second
	DropRate  float64 // fraction of attempted emits dropped
}

// Snapshot creates a point-in-time snapshot of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		EmittedOps:     m.EmittedOps.Load(),
		DroppedOps:     m.DroppedOps.Load(),
		FlushOps:       m.FlushOps.Load(),
		FlushBytes:     m.FlushBytes.Load(),
		FlushErrors:    m.FlushErrors.Load(),
		Truncated:      m.Truncated.Load(),
		ClockAnomalies: m.ClockAnomalies.Load(),
		RewindCount:    m.RewindCount.Load(),
		MaxQueueDepth:  m.MaxQueueDepth.Load(),
	}

	queueDepthTotal := m.QueueDepthTotal.Load()
	queueDepthCount := m.QueueDepthCount.Load()
	if queueDepthCount > 0 {
		snap.AvgQueueDepth = float64(queueDepthTotal) / float64(queueDepthCount)
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	if snap.UptimeNs > 0 {
		uptimeSeconds := float64(snap.UptimeNs) / 1e9
		snap.EmitRate = float64(snap.EmittedOps) / uptimeSeconds
	}

	attempted := snap.EmittedOps + snap.DroppedOps
	if attempted > 0 {
		snap.DropRate = float64(snap.DroppedOps) / float64(attempted)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyBuckets[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile
// (0.0-1.0) using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyBuckets[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyBuckets[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset zeroes all counters and restarts the uptime clock; intended for
// tests that want a clean Metrics between scenarios.
func (m *Metrics) Reset() {
	m.EmittedOps.Store(0)
	m.DroppedOps.Store(0)
	m.FlushOps.Store(0)
	m.FlushBytes.Store(0)
	m.FlushErrors.Store(0)
	m.Truncated.Store(0)
	m.ClockAnomalies.Store(0)
	m.RewindCount.Store(0)
	m.QueueDepthTotal.Store(0)
	m.QueueDepthCount.Store(0)
	m.MaxQueueDepth.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyBuckets[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection without depending on the
// built-in Metrics type.
type Observer interface {
	ObserveEmit(latencyNs uint64)
	ObserveDrop()
	ObserveFlush(bytes uint64, success bool)
	ObserveQueueDepth(depth uint32)
	ObserveTruncate()
	ObserveClockAnomaly()
	ObserveRewind(count uint64)
}

// NoOpObserver discards every observation.
type NoOpObserver struct{}

func (NoOpObserver) ObserveEmit(uint64)        {}
func (NoOpObserver) ObserveDrop()              {}
func (NoOpObserver) ObserveFlush(uint64, bool) {}
func (NoOpObserver) ObserveQueueDepth(uint32)  {}
func (NoOpObserver) ObserveTruncate()          {}
func (NoOpObserver) ObserveClockAnomaly()      {}
func (NoOpObserver) ObserveRewind(uint64)      {}

// StatsObserver implements Observer by recording into a Metrics instance.
type StatsObserver struct {
	metrics *Metrics
}

// NewStatsObserver creates an observer that records into m.
func NewStatsObserver(m *Metrics) *StatsObserver {
	return &StatsObserver{metrics: m}
}

func (o *StatsObserver) ObserveEmit(latencyNs uint64) { o.metrics.RecordEmit(latencyNs) }
func (o *StatsObserver) ObserveDrop()                 { o.metrics.RecordDrop() }
func (o *StatsObserver) ObserveFlush(bytes uint64, success bool) {
	o.metrics.RecordFlush(bytes, success)
}
func (o *StatsObserver) ObserveQueueDepth(depth uint32) { o.metrics.RecordQueueDepth(depth) }
func (o *StatsObserver) ObserveTruncate()               { o.metrics.RecordTruncate() }
func (o *StatsObserver) ObserveClockAnomaly()           { o.metrics.RecordClockAnomaly() }
func (o *StatsObserver) ObserveRewind(count uint64)     { o.metrics.RecordRewind(count) }

var _ Observer = (*StatsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)
