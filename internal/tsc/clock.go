// Package tsc provides a calibrated cycles-to-nanoseconds clock: a cheap
// cycle-counter read on the hot path, periodically correlated against the
// wall clock so ToNanos stays accurate despite TSC frequency drift. Readers
// and the calibrating writer coordinate through a seqlock instead of a
// mutex, since the hot path must never block on the consumer's
// recalibration.
package tsc

import (
	"math"
	"time"

	"github.com/ehrlich-b/nanolog/internal/constants"
	"sync/atomic"
)

// Clock converts raw TSC cycle counts to wall-clock nanoseconds. The zero
// value is not usable; construct with New and call Init once before any
// ToNanos call.
type Clock struct {
	seq atomic.Uint32 // odd while a writer is mid-update

	nsPerTSCBits atomic.Uint64 // math.Float64bits(ns-per-cycle)
	baseTSC      atomic.Uint64
	baseNS       atomic.Int64

	// baseNSErrBits is math.Float64bits of the prediction error (calculated
	// - actual wall-clock ns) observed at the last calibration. Calibrate
	// uses it as a first-order drift slope to project the error forward.
	baseNSErrBits atomic.Uint64

	calibrateIntervalNS int64
	nextCalibrateTSC    atomic.Uint64

	sync func() (tscVal uint64, ns int64)
}

// New creates a Clock that samples the real cycle counter and wall clock.
func New() *Clock {
	return &Clock{sync: syncTime, calibrateIntervalNS: constants.DefaultCalibrateIntervalNS}
}

// NewForTest builds a Clock with fixed calibration parameters and no
// further drift correction, for deterministic unit tests.
func NewForTest(nsPerTSC float64, baseTSC uint64, baseNS int64) *Clock {
	c := &Clock{calibrateIntervalNS: constants.DefaultCalibrateIntervalNS}
	c.writeParams(nsPerTSC, baseTSC, baseNS)
	c.nextCalibrateTSC.Store(^uint64(0))
	return c
}

// Init performs the first calibration: it samples a correlated
// (tsc, wall-clock-ns) pair, waits window, samples again, and derives
// nanoseconds-per-cycle from the two samples.
func (c *Clock) Init(window time.Duration) {
	if window <= 0 {
		window = time.Duration(constants.DefaultInitCalibrateNS)
	}
	tsc0, ns0 := c.sample()
	time.Sleep(window)
	tsc1, ns1 := c.sample()

	deltaTSC := tsc1 - tsc0
	if deltaTSC == 0 {
		// Degenerate (fallback clock, or a window too short to observe
		// any cycles): treat one TSC tick as one nanosecond.
		c.writeParams(1.0, tsc0, ns0)
	} else {
		nsPerTSC := float64(ns1-ns0) / float64(deltaTSC)
		c.writeParams(nsPerTSC, tsc0, ns0)
	}
	c.nextCalibrateTSC.Store(tsc1 + c.tscForNS(c.calibrateIntervalNS))
}

// Calibrate re-anchors the clock against a fresh wall-clock sample,
// correcting for TSC frequency drift since the last calibration. The
// consumer loop calls this periodically (see ShouldCalibrate), never the
// producer. It reports anomaly=true if the wall clock appeared to move
// backward since the last calibration, or if the corrected ns_per_tsc
// would not be positive; in that second case ns_per_tsc is clamped to its
// last known-good (positive) value instead of the newly computed one.
func (c *Clock) Calibrate() (anomaly bool) {
	tscNow, nsNow := c.sample()
	baseTSC := c.baseTSC.Load()
	baseNS := c.baseNS.Load()
	nsPerTSC := c.GetNsPerTSC()

	deltaTSC := int64(tscNow - baseTSC)
	prevErrNS := math.Float64frombits(c.baseNSErrBits.Load())

	if nsNow < baseNS {
		anomaly = true
	}

	newNsPerTSC := nsPerTSC
	if deltaTSC != 0 {
		calculatedNS := baseNS + int64(float64(deltaTSC)*nsPerTSC)
		errNS := float64(calculatedNS - nsNow)

		// Project the error forward by one calibration interval using the
		// previous interval's error as a first-order drift slope, and
		// adjust ns_per_tsc so the projection is canceled by the next
		// calibration.
		projectedErrNS := errNS + (errNS - prevErrNS)
		candidate := nsPerTSC - projectedErrNS/float64(deltaTSC)
		if candidate > 0 {
			newNsPerTSC = candidate
		} else {
			anomaly = true
		}
		c.baseNSErrBits.Store(math.Float64bits(errNS))
	}

	c.writeParams(newNsPerTSC, tscNow, nsNow)
	c.nextCalibrateTSC.Store(tscNow + c.tscForNS(c.calibrateIntervalNS))
	return anomaly
}

// ShouldCalibrate reports whether tscVal has crossed the next scheduled
// recalibration point.
func (c *Clock) ShouldCalibrate(tscVal uint64) bool {
	return tscVal >= c.nextCalibrateTSC.Load()
}

// ToNanos converts a raw TSC reading to wall-clock nanoseconds, retrying
// across the seqlock if a calibration was in flight.
func (c *Clock) ToNanos(tscVal uint64) int64 {
	for {
		s1 := c.seq.Load()
		if s1&1 != 0 {
			continue
		}
		nsPerTSC := math.Float64frombits(c.nsPerTSCBits.Load())
		baseTSC := c.baseTSC.Load()
		baseNS := c.baseNS.Load()
		s2 := c.seq.Load()
		if s1 != s2 {
			continue
		}
		delta := int64(tscVal - baseTSC)
		return baseNS + int64(float64(delta)*nsPerTSC)
	}
}

// Now reads the cycle counter and converts it to wall-clock nanoseconds in
// one call.
func (c *Clock) Now() int64 {
	return c.ToNanos(ReadTSC())
}

// GetNsPerTSC returns the clock's current nanoseconds-per-cycle ratio.
func (c *Clock) GetNsPerTSC() float64 {
	return math.Float64frombits(c.nsPerTSCBits.Load())
}

// GetTSCGHz returns the clock's currently estimated TSC frequency in GHz.
func (c *Clock) GetTSCGHz() float64 {
	nsPerTSC := c.GetNsPerTSC()
	if nsPerTSC == 0 {
		return 0
	}
	return 1.0 / nsPerTSC
}

func (c *Clock) writeParams(nsPerTSC float64, baseTSC uint64, baseNS int64) {
	c.seq.Add(1)
	c.nsPerTSCBits.Store(math.Float64bits(nsPerTSC))
	c.baseTSC.Store(baseTSC)
	c.baseNS.Store(baseNS)
	c.seq.Add(1)
}

func (c *Clock) tscForNS(ns int64) uint64 {
	nsPerTSC := c.GetNsPerTSC()
	if nsPerTSC <= 0 {
		return 0
	}
	return uint64(float64(ns) / nsPerTSC)
}

func (c *Clock) sample() (uint64, int64) {
	if c.sync != nil {
		return c.sync()
	}
	return syncTime()
}

// syncTime produces a correlated (tsc, wall-clock-ns) pair. It samples
// several times and keeps the pair with the smallest TSC span observed
// around the wall-clock read, the same minimum-jitter trick the
// calibration routine this was distilled from uses to fight scheduler
// preemption mid-sample.
func syncTime() (tscVal uint64, ns int64) {
	const samples = 3
	bestSpan := uint64(math.MaxUint64)
	var bestTSC uint64
	var bestNS int64
	for i := 0; i < samples; i++ {
		t0 := ReadTSC()
		wall := time.Now().UnixNano()
		t1 := ReadTSC()
		span := t1 - t0
		if span < bestSpan {
			bestSpan = span
			bestTSC = t0 + span/2
			bestNS = wall
		}
	}
	return bestTSC, bestNS
}
