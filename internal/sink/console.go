package sink

import (
	"io"
	"sync"

	"github.com/ehrlich-b/nanolog/internal/constants"
	"github.com/ehrlich-b/nanolog/internal/wire"
)

// Clock is the subset of *tsc.Clock the sink needs: converting a message's
// captured TSC reading to wall-clock nanoseconds.
type Clock interface {
	ToNanos(tscVal uint64) int64
}

// ConsoleSink drains decoded messages into a line-buffered batch and
// flushes the batch to an io.Writer once it crosses a size or staleness
// threshold. One ConsoleSink is shared by the whole consumer loop; it is
// not safe for concurrent OnRecord calls (the consumer loop is always the
// sole caller), but Flush may be called from a separate shutdown path, so
// it is guarded by a mutex.
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer

	batch   []byte
	scratch *Scratch

	timeCache TimeCache
	tidCache  *TidCache

	flushBytes      int
	flushIntervalNS int64
	lastFlushNS     int64

	lastTruncated bool
}

// Option configures a ConsoleSink at construction time.
type Option func(*ConsoleSink)

// WithFlushBytes overrides the default batch-size flush threshold.
func WithFlushBytes(n int) Option {
	return func(s *ConsoleSink) { s.flushBytes = n }
}

// WithFlushInterval overrides the default max-staleness flush threshold,
// in nanoseconds.
func WithFlushInterval(ns int64) Option {
	return func(s *ConsoleSink) { s.flushIntervalNS = ns }
}

// NewConsoleSink creates a sink writing rendered batches to out.
func NewConsoleSink(out io.Writer, opts ...Option) *ConsoleSink {
	s := &ConsoleSink{
		out:             out,
		batch:           make([]byte, 0, constants.BatchInitialCapacity),
		scratch:         NewScratch(),
		tidCache:        NewTidCache(),
		flushBytes:      constants.DefaultFlushBytes,
		flushIntervalNS: constants.DefaultFlushIntervalNS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnRecord renders one drained message (header + argument payload, as
// returned by ringqueue.Consumer.Front) into the batch. producerID
// identifies which registered producer queue the message came from and is
// rendered as the "T=NNNNN" tag in place of an OS thread ID, since the
// registry already hands out a stable per-producer ordinal. The rendered
// line is `[MM-DD HH:MM:SS.mmm.uuu T=NNNNN LEVEL module::file#line] body`;
// the call site's decoder (wire.Decode) is responsible for writing the
// "module::file#line] " prefix ahead of the formatted body, since only the
// decoder knows its own registration site.
func (s *ConsoleSink) OnRecord(producerID uint32, clock Clock, msg []byte) {
	var hdr wire.MsgHeader
	wire.UnmarshalHeader(msg, &hdr)
	argPayload := msg[wire.HeaderSize:hdr.Size]

	nowNS := clock.ToNanos(hdr.TSC)
	s.timeCache.Refresh(nowNS)

	s.scratch.Reset()
	wire.Decode(hdr.DecodeFn, s.scratch, argPayload)
	s.lastTruncated = s.scratch.Truncated()

	s.batch = append(s.batch, '[')
	s.batch = append(s.batch, s.timeCache.Prefix()...)
	s.batch = append(s.batch, ' ')
	s.batch = append(s.batch, s.tidCache.Tag(producerID)...)
	s.batch = append(s.batch, ' ')
	s.batch = append(s.batch, levelString(Level(hdr.Level))...)
	s.batch = append(s.batch, ' ')
	s.batch = append(s.batch, s.scratch.Bytes()...)
	s.batch = append(s.batch, '\n')

	if s.ShouldFlush(nowNS) {
		s.Flush(nowNS)
	}
}

// LastRecordTruncated reports whether the line rendered by the most recent
// OnRecord call overflowed the scratch buffer's hard cap.
func (s *ConsoleSink) LastRecordTruncated() bool {
	return s.lastTruncated
}

// ShouldFlush reports whether the batch has crossed its size or staleness
// threshold as of nowNS.
func (s *ConsoleSink) ShouldFlush(nowNS int64) bool {
	if len(s.batch) >= s.flushBytes {
		return true
	}
	return len(s.batch) > 0 && nowNS-s.lastFlushNS >= s.flushIntervalNS
}

// OnIdle is called by the consumer loop after a stretch of rounds with
// nothing to drain from any registered producer. Its only job is to apply
// the staleness-based flush the byte-threshold branch of ShouldFlush would
// otherwise never trigger during a quiet period.
func (s *ConsoleSink) OnIdle(nowNS int64) {
	if s.ShouldFlush(nowNS) {
		s.Flush(nowNS)
	}
}

// Flush writes the accumulated batch to the underlying writer and resets
// it, regardless of threshold. Safe to call from outside the consumer
// loop (e.g. on shutdown); pass the current time so the staleness clock
// restarts from this point.
func (s *ConsoleSink) Flush(nowNS int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFlushNS = nowNS
	if len(s.batch) == 0 {
		return
	}
	_, _ = s.out.Write(s.batch)
	s.batch = s.batch[:0]
}

// SetLastFlushNS is used by the consumer loop to seed the staleness clock
// right after construction, so the first message doesn't look infinitely
// stale against a zero-value lastFlushNS.
func (s *ConsoleSink) SetLastFlushNS(nowNS int64) {
	s.lastFlushNS = nowNS
}
