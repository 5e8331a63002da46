// Package constants holds the compile-time/init-time knobs shared across
// nanolog's internal packages.
package constants

import "time"

// Ring and wire-format constants.
const (
	// BlockSize is the fixed cache-line-sized ring unit. Messages occupy
	// an integer number of blocks; must stay a multiple of the header's
	// alignment.
	BlockSize = 64

	// MsgHeaderSize is the size in bytes of the fixed message header
	// (Size uint32, Level uint32, TSC uint64, DecodeFn uint64).
	MsgHeaderSize = 24

	// DefaultQueueBlocks is the default per-producer ring capacity in
	// blocks. Must be a power of two.
	DefaultQueueBlocks = 1 << 16

	// MaxArity is the largest number of arguments a call site may capture.
	MaxArity = 6
)

// Batching and flush policy, mirroring the device-lifecycle timing block
// this package once held: these bound how stale unflushed output may get
// and how large a batch may grow before it is written out.
const (
	// DefaultFlushBytes is the soft upper bound on batch size before the
	// consumer flushes to the sink.
	DefaultFlushBytes = 256 * 1024

	// DefaultFlushIntervalNS is the maximum staleness of unflushed output.
	DefaultFlushIntervalNS = int64(1_500_000) // 1.5ms

	// DefaultCalibrateIntervalNS is the interval between TSC re-calibrations.
	DefaultCalibrateIntervalNS = int64(time.Second)

	// DefaultInitCalibrateNS is the initial calibration sampling window.
	DefaultInitCalibrateNS = int64(300 * time.Millisecond)

	// IdleRoundsBeforeOnIdle is how many consecutive no-progress rounds
	// the consumer loop tolerates before invoking OnIdle.
	IdleRoundsBeforeOnIdle = 1024
)

// Scratch/batch buffer sizing.
const (
	// ScratchInitialCapacity is the starting size of the per-consumer
	// scratch buffer used to stage one rendered line.
	ScratchInitialCapacity = 512

	// ScratchHardCap bounds how large the scratch buffer may grow before
	// a line is truncated instead of the buffer growing further.
	ScratchHardCap = 4096

	// BatchInitialCapacity is the starting capacity of the accumulation
	// buffer the consumer appends rendered lines into between flushes.
	BatchInitialCapacity = 256 * 1024
)

// MaxTidCacheEntries bounds the precomputed "T=NNNNN" thread-ordinal strings.
const MaxTidCacheEntries = 256
