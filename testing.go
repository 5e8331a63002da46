package nanolog

import (
	"sync"

	"github.com/ehrlich-b/nanolog/internal/sink"
	"github.com/ehrlich-b/nanolog/internal/wire"
)

// RecordingSink is a test double that captures every decoded line passed to
// OnRecord instead of writing it anywhere, and tracks call counts the way a
// handful of unit tests want to assert against directly.
type RecordingSink struct {
	mu    sync.RWMutex
	lines []string
	idle  int
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// OnRecord decodes msg's argument payload through the process-wide decoder
// registry and appends the rendered text to the recorded lines.
func (r *RecordingSink) OnRecord(producerID uint32, clock sink.Clock, msg []byte) {
	var hdr wire.MsgHeader
	wire.UnmarshalHeader(msg, &hdr)
	argPayload := msg[wire.HeaderSize:hdr.Size]

	var buf recordingBuffer
	wire.Decode(hdr.DecodeFn, &buf, argPayload)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, string(buf))
}

// OnIdle counts how many times the consumer reported an idle drain pass.
func (r *RecordingSink) OnIdle(nowNS int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idle++
}

// Flush is a no-op; RecordingSink has no batch to flush.
func (r *RecordingSink) Flush(nowNS int64) {}

// Lines returns a copy of every line recorded so far, in render order.
func (r *RecordingSink) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// IdleCount reports how many times OnIdle fired.
func (r *RecordingSink) IdleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.idle
}

// Reset clears every recorded line and the idle counter.
func (r *RecordingSink) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
	r.idle = 0
}

type recordingBuffer []byte

func (b *recordingBuffer) WriteBytes(p []byte) {
	*b = append(*b, p...)
}

// DeterministicClock is a test Clock whose ToNanos is a pure linear function
// of a caller-supplied nanoseconds-per-cycle ratio, with no seqlock, no
// calibration, and no dependence on rdtsc — useful for asserting exact
// rendered timestamps without flakiness from the real TSC.
type DeterministicClock struct {
	baseTSC    uint64
	baseNS     int64
	nsPerCycle float64
}

// NewDeterministicClock creates a DeterministicClock anchored at
// (baseTSC, baseNS) with the given nanoseconds-per-cycle ratio.
func NewDeterministicClock(baseTSC uint64, baseNS int64, nsPerCycle float64) *DeterministicClock {
	return &DeterministicClock{baseTSC: baseTSC, baseNS: baseNS, nsPerCycle: nsPerCycle}
}

// ToNanos converts tscVal to nanoseconds using the fixed linear mapping.
func (d *DeterministicClock) ToNanos(tscVal uint64) int64 {
	delta := int64(tscVal) - int64(d.baseTSC)
	return d.baseNS + int64(float64(delta)*d.nsPerCycle)
}
