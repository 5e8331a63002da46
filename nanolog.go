// Package nanolog is a low-latency, asynchronous, in-process structured
// logger for latency-sensitive call sites: a producer goroutine captures a
// format string's arguments as raw bytes onto a lock-free ring queue and
// returns immediately, while a single background goroutine drains every
// registered ring, decodes, and renders to a batched sink.
package nanolog

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ehrlich-b/nanolog/internal/constants"
	"github.com/ehrlich-b/nanolog/internal/logging"
	"github.com/ehrlich-b/nanolog/internal/ringqueue"
	"github.com/ehrlich-b/nanolog/internal/sink"
	"github.com/ehrlich-b/nanolog/internal/tsc"
	"github.com/ehrlich-b/nanolog/internal/wire"
)

// Level is a log severity ordinal; it is also the exact value stored in a
// captured message's header.
type Level uint32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

// Options configures a Logger. Start from DefaultOptions and override only
// what you need; the zero value of most fields means "use the default",
// except ConsumerCPU, where 0 is a valid CPU index — leave it at the
// DefaultOptions() value of -1 if you don't want core pinning.
type Options struct {
	// QueueBlocks is the per-producer ring capacity, in blocks.
	QueueBlocks uint32
	// Output is where the console sink writes rendered batches.
	Output io.Writer
	// FlushBytes is the batch-size flush threshold.
	FlushBytes int
	// FlushIntervalNS is the max staleness, in nanoseconds, of an
	// unflushed batch.
	FlushIntervalNS int64
	// Level is the initial enabled threshold; messages below it are
	// dropped at the call site without ever reaching a ring.
	Level Level
	// Observer receives metrics events; nil installs a StatsObserver
	// backed by a fresh Metrics.
	Observer Observer
	// ConsumerCPU pins the consumer goroutine's OS thread to this CPU
	// index via SchedSetaffinity. -1 disables pinning.
	ConsumerCPU int
	// InitCalibrateWindow is how long the initial TSC calibration samples
	// the wall clock before computing nanoseconds-per-cycle.
	InitCalibrateWindow time.Duration
	// IdleRoundsBeforeOnIdle is how many consecutive empty drain passes
	// the consumer tolerates before forcing a staleness-based flush.
	IdleRoundsBeforeOnIdle int
	// Sink overrides the default console sink entirely, bypassing Output
	// and the flush knobs. Tests substitute a RecordingSink here.
	Sink Sink
}

// Sink renders decoded log records. *sink.ConsoleSink and
// *RecordingSink both implement it.
type Sink interface {
	OnRecord(producerID uint32, clock sink.Clock, msg []byte)
	OnIdle(nowNS int64)
	Flush(nowNS int64)
}

// DefaultOptions returns sensible defaults for all fields.
func DefaultOptions() Options {
	return Options{
		QueueBlocks:            constants.DefaultQueueBlocks,
		Output:                 os.Stdout,
		FlushBytes:             constants.DefaultFlushBytes,
		FlushIntervalNS:        constants.DefaultFlushIntervalNS,
		Level:                  LevelInfo,
		ConsumerCPU:            -1,
		InitCalibrateWindow:    time.Duration(constants.DefaultInitCalibrateNS),
		IdleRoundsBeforeOnIdle: constants.IdleRoundsBeforeOnIdle,
	}
}

// Logger owns the producer registry, the calibrated clock, the sink, and
// the background consumer goroutine. Create one with New, attach a
// Producer per logging goroutine with Attach, and Close it on shutdown to
// flush and join the consumer.
type Logger struct {
	opts     Options
	registry *ringqueue.Registry
	clock    *tsc.Clock
	sinkImpl Sink
	metrics  *Metrics
	observer Observer
	level    atomic.Uint32

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// New starts a Logger: it performs the initial TSC calibration (blocking
// for opts.InitCalibrateWindow) and launches the background consumer
// goroutine.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		opts:     opts,
		registry: ringqueue.NewRegistry(),
		clock:    tsc.New(),
		metrics:  NewMetrics(),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	l.level.Store(uint32(opts.Level))

	if opts.Observer != nil {
		l.observer = opts.Observer
	} else {
		l.observer = NewStatsObserver(l.metrics)
	}

	if opts.Sink != nil {
		l.sinkImpl = opts.Sink
	} else {
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		flushBytes := opts.FlushBytes
		if flushBytes == 0 {
			flushBytes = constants.DefaultFlushBytes
		}
		flushIntervalNS := opts.FlushIntervalNS
		if flushIntervalNS == 0 {
			flushIntervalNS = constants.DefaultFlushIntervalNS
		}
		l.sinkImpl = sink.NewConsoleSink(out,
			sink.WithFlushBytes(flushBytes),
			sink.WithFlushInterval(flushIntervalNS))
	}

	window := opts.InitCalibrateWindow
	if window == 0 {
		window = time.Duration(constants.DefaultInitCalibrateNS)
	}
	l.clock.Init(window)

	go l.consumerLoop()
	return l, nil
}

// Enabled reports whether level is at or above the logger's current
// threshold.
func (l *Logger) Enabled(level Level) bool {
	return uint32(level) >= l.level.Load()
}

// SetLevel changes the enabled threshold.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(uint32(level))
}

// Metrics returns the logger's built-in Metrics instance (populated only
// if Options.Observer was left nil).
func (l *Logger) Metrics() *Metrics {
	return l.metrics
}

// MetricsSnapshot is a convenience wrapper around Metrics().Snapshot().
func (l *Logger) MetricsSnapshot() MetricsSnapshot {
	return l.metrics.Snapshot()
}

// Close stops the consumer loop, drains and flushes whatever remains
// queued, and waits for the consumer goroutine to exit. Safe to call more
// than once.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopCh)
		<-l.doneCh
		l.metrics.Stop()
	})
	return nil
}

// Attach creates a Producer bound to a freshly registered ring queue. Call
// it once per goroutine that will log — the standard substitute, in Go,
// for the thread-local producer registration a native implementation gets
// for free: Go has no portable, safe way to stash a ring handle in
// goroutine-local storage, so the handle is passed explicitly instead.
func (l *Logger) Attach() *Producer {
	q := ringqueue.New(l.opts.QueueBlocks)
	id := l.registry.Register(q)
	return &Producer{logger: l, prod: ringqueue.NewProducer(q), id: id}
}

func (l *Logger) consumerLoop() {
	defer close(l.doneCh)

	if l.opts.ConsumerCPU >= 0 {
		if err := pinToCPU(l.opts.ConsumerCPU); err != nil {
			logging.Default().Warnf("nanolog: consumer CPU pin failed: %v", err)
		}
	}

	if seeder, ok := l.sinkImpl.(interface{ SetLastFlushNS(int64) }); ok {
		seeder.SetLastFlushNS(l.clock.Now())
	}

	consumers := make(map[uint32]*ringqueue.Consumer)
	lastRewind := make(map[uint32]uint64)
	idleRounds := 0

	for {
		select {
		case <-l.stopCh:
			l.drainOnce(consumers)
			l.reportRewinds(lastRewind)
			l.sinkImpl.Flush(l.clock.Now())
			return
		default:
		}

		progressed := l.drainOnce(consumers)
		l.reportRewinds(lastRewind)

		tscNow := tsc.ReadTSC()
		if l.clock.ShouldCalibrate(tscNow) {
			if l.clock.Calibrate() {
				l.observer.ObserveClockAnomaly()
			}
		}

		if progressed {
			idleRounds = 0
			continue
		}

		idleRounds++
		if idleRounds >= l.opts.IdleRoundsBeforeOnIdle {
			l.sinkImpl.OnIdle(l.clock.ToNanos(tscNow))
			idleRounds = 0
			time.Sleep(time.Millisecond)
		}
	}
}

// drainOnce makes one round-robin pass over every registered producer,
// draining each to empty, and reports whether it rendered anything.
func (l *Logger) drainOnce(consumers map[uint32]*ringqueue.Consumer) bool {
	progressed := false
	for _, entry := range l.registry.Snapshot() {
		c, ok := consumers[entry.ID]
		if !ok {
			c = ringqueue.NewConsumer(entry.Queue)
			consumers[entry.ID] = c
		}
		for {
			msg, ok := c.Front()
			if !ok {
				break
			}
			l.renderOne(entry.ID, msg)
			c.Pop()
			progressed = true
		}
	}
	return progressed
}

// reportRewinds accumulates the delta in each registered queue's lifetime
// rewind counter since the last round into the observer, so
// Metrics.RewindCount tracks ring-wraparound pressure across all producers
// without the hot producer path ever touching metrics itself.
func (l *Logger) reportRewinds(lastSeen map[uint32]uint64) {
	for _, entry := range l.registry.Snapshot() {
		count := entry.Queue.RewindCount()
		if delta := count - lastSeen[entry.ID]; delta > 0 {
			l.observer.ObserveRewind(delta)
		}
		lastSeen[entry.ID] = count
	}
}

func (l *Logger) renderOne(producerID uint32, msg []byte) {
	var hdr wire.MsgHeader
	wire.UnmarshalHeader(msg, &hdr)
	capturedNS := l.clock.ToNanos(hdr.TSC)

	l.sinkImpl.OnRecord(producerID, l.clock, msg)
	if t, ok := l.sinkImpl.(interface{ LastRecordTruncated() bool }); ok && t.LastRecordTruncated() {
		l.observer.ObserveTruncate()
	}

	latency := l.clock.Now() - capturedNS
	if latency < 0 {
		latency = 0
	}
	l.observer.ObserveEmit(uint64(latency))
}

func pinToCPU(cpu int) error {
	runtime.LockOSThread()
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		if errno, ok := err.(syscall.Errno); ok {
			return NewErrnoError("pin_consumer_cpu", ErrCodeCorePinFailed, errno)
		}
		return WrapError("pin_consumer_cpu", err)
	}
	return nil
}

// Producer is a single goroutine's handle onto its own SPSC ring queue.
// Not safe for concurrent use by more than one goroutine — that would
// violate the single-producer invariant the whole point of per-goroutine
// rings exists to uphold.
type Producer struct {
	logger *Logger
	prod   *ringqueue.Producer
	id     uint32
}

// Detach unregisters the producer's queue from the consumer's round-robin.
// Any messages already committed are still drained before the consumer
// forgets it.
func (p *Producer) Detach() {
	p.logger.registry.Unregister(p.id)
}

// emit captures one log call. It returns false iff the message was dropped
// because the producer's ring had no free blocks; a call filtered by the
// level threshold never reaches the ring at all and is not a drop, so it
// returns true.
func (p *Producer) emit(level Level, argsSize int, decodeSiteID uint64, encode func(payload []byte) int) bool {
	if !p.logger.Enabled(level) {
		return true
	}
	tscVal := tsc.ReadTSC()
	totalSize := wire.HeaderSize + argsSize
	buf, ok := p.prod.TryAlloc(totalSize)
	if !ok {
		p.logger.observer.ObserveDrop()
		return false
	}
	hdr := wire.MsgHeader{
		Size:     uint32(totalSize),
		Level:    uint32(level),
		TSC:      tscVal,
		DecodeFn: decodeSiteID,
	}
	wire.MarshalHeader(&hdr, buf)
	encode(buf[wire.HeaderSize:])
	p.prod.Commit()
	return true
}

// splitPlaceholders splits format on its n "{}" argument placeholders into
// n+1 literal segments, panicking at site-registration time (not on the
// hot path) if the count doesn't match.
func splitPlaceholders(format string, n int) []string {
	parts := strings.Split(format, "{}")
	if len(parts) != n+1 {
		panic(wireFormatArityPanic(format, n))
	}
	return parts
}

func wireFormatArityPanic(format string, n int) string {
	return "nanolog: format " + strconv.Quote(format) + " needs exactly " + strconv.Itoa(n) + " {} placeholders"
}

// sourceLocation identifies the call site skip frames above its own call
// (skip=0 is sourceLocation itself), returning the enclosing package name,
// the file's basename without extension, and the line number.
func sourceLocation(skip int) (module, file string, line int) {
	pc, fullPath, ln, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", "unknown", 0
	}
	base := filepath.Base(fullPath)
	file = strings.TrimSuffix(base, filepath.Ext(base))
	line = ln

	module = "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		name := fn.Name()
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if idx := strings.Index(name, "."); idx >= 0 {
			name = name[:idx]
		}
		module = name
	}
	return module, file, line
}

// sourceLocationPrefix renders the "module::file#line] " bytes a site's
// decoder writes ahead of its formatted body. It always resolves to the
// line that invoked the NewSiteN constructor three frames up
// (sourceLocation <- sourceLocationPrefix <- NewSiteN <- call site), so
// every NewSiteN constructor calls it with no knowledge of its own depth.
func sourceLocationPrefix() []byte {
	module, file, line := sourceLocation(3)
	var b strings.Builder
	b.WriteString(module)
	b.WriteString("::")
	b.WriteString(file)
	b.WriteByte('#')
	b.WriteString(strconv.Itoa(line))
	b.WriteString("] ")
	return []byte(b.String())
}

// appendArgValue renders one decoded primitive argument as decimal text.
func appendArgValue(out wire.TextWriter, v wire.ArgValue) {
	var buf [32]byte
	switch v.Tag {
	case wire.TagF64:
		out.WriteBytes(strconv.AppendFloat(buf[:0], v.F64, 'g', -1, 64))
	case wire.TagU64:
		out.WriteBytes(strconv.AppendUint(buf[:0], v.U64, 10))
	case wire.TagI64:
		out.WriteBytes(strconv.AppendInt(buf[:0], v.I64, 10))
	default:
		out.WriteBytes([]byte("<pod>"))
	}
}

func decodeArgsInOrder(payload []byte, n int) []wire.ArgValue {
	out := make([]wire.ArgValue, n)
	off := wire.TagHeaderSize
	for i := 0; i < n; i++ {
		tag := wire.ReadTag(payload, i)
		v, next := wire.ReadArg(payload, tag, off)
		out[i] = v
		off = next
	}
	return out
}

func renderPrimitives(out wire.TextWriter, parts []string, payload []byte, n int) {
	args := decodeArgsInOrder(payload, n)
	for i, v := range args {
		out.WriteBytes([]byte(parts[i]))
		appendArgValue(out, v)
	}
	out.WriteBytes([]byte(parts[len(parts)-1]))
}

// Site0 is a registered call site with no captured arguments.
type Site0 struct{ decodeSiteID uint64 }

// NewSite0 registers format (which must contain no "{}" placeholders) as a
// call site and returns a handle for logging it. Call this once per call
// site, typically from a package-level var initializer.
func NewSite0(format string) *Site0 {
	parts := splitPlaceholders(format, 0)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		out.WriteBytes([]byte(parts[0]))
	})
	return &Site0{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site0) Log(p *Producer, level Level) bool {
	return p.emit(level, 0, s.decodeSiteID, func(payload []byte) int { return 0 })
}

// Site1 is a registered call site capturing one primitive argument.
type Site1[T1 wire.Loggable] struct{ decodeSiteID uint64 }

// NewSite1 registers format (exactly one "{}") as a call site.
func NewSite1[T1 wire.Loggable](format string) *Site1[T1] {
	parts := splitPlaceholders(format, 1)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 1)
	})
	return &Site1[T1]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site1[T1]) Log(p *Producer, level Level, a1 T1) bool {
	return p.emit(level, wire.TagHeaderSize+8, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg1(payload, a1)
	})
}

// Site2 is a registered call site capturing two primitive arguments.
type Site2[T1, T2 wire.Loggable] struct{ decodeSiteID uint64 }

func NewSite2[T1, T2 wire.Loggable](format string) *Site2[T1, T2] {
	parts := splitPlaceholders(format, 2)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 2)
	})
	return &Site2[T1, T2]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site2[T1, T2]) Log(p *Producer, level Level, a1 T1, a2 T2) bool {
	return p.emit(level, wire.TagHeaderSize+16, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg2(payload, a1, a2)
	})
}

// Site3 is a registered call site capturing three primitive arguments.
type Site3[T1, T2, T3 wire.Loggable] struct{ decodeSiteID uint64 }

func NewSite3[T1, T2, T3 wire.Loggable](format string) *Site3[T1, T2, T3] {
	parts := splitPlaceholders(format, 3)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 3)
	})
	return &Site3[T1, T2, T3]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site3[T1, T2, T3]) Log(p *Producer, level Level, a1 T1, a2 T2, a3 T3) bool {
	return p.emit(level, wire.TagHeaderSize+24, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg3(payload, a1, a2, a3)
	})
}

// Site4 is a registered call site capturing four primitive arguments.
type Site4[T1, T2, T3, T4 wire.Loggable] struct{ decodeSiteID uint64 }

func NewSite4[T1, T2, T3, T4 wire.Loggable](format string) *Site4[T1, T2, T3, T4] {
	parts := splitPlaceholders(format, 4)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 4)
	})
	return &Site4[T1, T2, T3, T4]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site4[T1, T2, T3, T4]) Log(p *Producer, level Level, a1 T1, a2 T2, a3 T3, a4 T4) bool {
	return p.emit(level, wire.TagHeaderSize+32, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg4(payload, a1, a2, a3, a4)
	})
}

// Site5 is a registered call site capturing five primitive arguments.
type Site5[T1, T2, T3, T4, T5 wire.Loggable] struct{ decodeSiteID uint64 }

func NewSite5[T1, T2, T3, T4, T5 wire.Loggable](format string) *Site5[T1, T2, T3, T4, T5] {
	parts := splitPlaceholders(format, 5)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 5)
	})
	return &Site5[T1, T2, T3, T4, T5]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site5[T1, T2, T3, T4, T5]) Log(p *Producer, level Level, a1 T1, a2 T2, a3 T3, a4 T4, a5 T5) bool {
	return p.emit(level, wire.TagHeaderSize+40, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg5(payload, a1, a2, a3, a4, a5)
	})
}

// Site6 is a registered call site capturing six primitive arguments, the
// arity ceiling a single call site may capture.
type Site6[T1, T2, T3, T4, T5, T6 wire.Loggable] struct{ decodeSiteID uint64 }

func NewSite6[T1, T2, T3, T4, T5, T6 wire.Loggable](format string) *Site6[T1, T2, T3, T4, T5, T6] {
	parts := splitPlaceholders(format, 6)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		renderPrimitives(out, parts, payload, 6)
	})
	return &Site6[T1, T2, T3, T4, T5, T6]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site6[T1, T2, T3, T4, T5, T6]) Log(p *Producer, level Level, a1 T1, a2 T2, a3 T3, a4 T4, a5 T5, a6 T6) bool {
	return p.emit(level, wire.TagHeaderSize+48, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeArg6(payload, a1, a2, a3, a4, a5, a6)
	})
}

// Site1POD is a registered call site capturing one embedded POD argument.
// T's WriteText is resolved statically at registration time, so (unlike
// wire.EncodePODArg1's siteID parameter, kept for format compatibility but
// unused here) no runtime POD-type dispatch table is needed.
type Site1POD[T wire.UserPod] struct{ decodeSiteID uint64 }

func NewSite1POD[T wire.UserPod](format string) *Site1POD[T] {
	parts := splitPlaceholders(format, 1)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		out.WriteBytes([]byte(parts[0]))
		tag := wire.ReadTag(payload, 0)
		v, _ := wire.ReadArg(payload, tag, wire.TagHeaderSize)
		var zero T
		zero.WriteText(out, v.PODBytes)
		out.WriteBytes([]byte(parts[1]))
	})
	return &Site1POD[T]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *Site1POD[T]) Log(p *Producer, level Level, a1 T) bool {
	size := wire.TagHeaderSize + 8 + int(unsafe.Sizeof(a1))
	return p.emit(level, size, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodePODArg1(payload, 0, a1)
	})
}

// SiteMixed2 is a registered call site capturing one primitive argument
// followed by one embedded POD argument.
type SiteMixed2[T1 wire.Loggable, T2 wire.UserPod] struct{ decodeSiteID uint64 }

func NewSiteMixed2[T1 wire.Loggable, T2 wire.UserPod](format string) *SiteMixed2[T1, T2] {
	parts := splitPlaceholders(format, 2)
	loc := sourceLocationPrefix()
	id := wire.RegisterDecoder(format, func(out wire.TextWriter, payload []byte) {
		out.WriteBytes(loc)
		out.WriteBytes([]byte(parts[0]))
		tag0 := wire.ReadTag(payload, 0)
		v0, off := wire.ReadArg(payload, tag0, wire.TagHeaderSize)
		appendArgValue(out, v0)
		out.WriteBytes([]byte(parts[1]))
		tag1 := wire.ReadTag(payload, 1)
		v1, _ := wire.ReadArg(payload, tag1, off)
		var zero T2
		zero.WriteText(out, v1.PODBytes)
		out.WriteBytes([]byte(parts[2]))
	})
	return &SiteMixed2[T1, T2]{decodeSiteID: id}
}

// Log emits this site's line through p at level. It returns false iff the
// message was dropped because the producer's ring was full.
func (s *SiteMixed2[T1, T2]) Log(p *Producer, level Level, a1 T1, a2 T2) bool {
	size := wire.TagHeaderSize + 8 + 8 + int(unsafe.Sizeof(a2))
	return p.emit(level, size, s.decodeSiteID, func(payload []byte) int {
		return wire.EncodeMixedArg2(payload, a1, 0, a2)
	})
}
