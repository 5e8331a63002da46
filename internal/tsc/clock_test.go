package tsc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToNanosLinearFromBase(t *testing.T) {
	c := NewForTest(2.0, 1000, 500_000)

	assert.Equal(t, int64(500_000), c.ToNanos(1000))
	assert.Equal(t, int64(500_020), c.ToNanos(1010))
	assert.Equal(t, int64(501_000), c.ToNanos(1500))
}

func TestGetTSCGHzMatchesNsPerTSC(t *testing.T) {
	c := NewForTest(0.4, 0, 0) // 2.5 GHz part
	assert.InDelta(t, 2.5, c.GetTSCGHz(), 1e-9)
}

func TestCalibrateReanchorsAndProjectsDrift(t *testing.T) {
	c := NewForTest(1.0, 0, 0)

	calls := 0
	c.sync = func() (uint64, int64) {
		calls++
		return 2000, 4000 // model predicts 2000ns at this tsc, actual is 4000ns: -2000ns error
	}
	anomaly := c.Calibrate()

	assert.Equal(t, 1, calls)
	assert.False(t, anomaly)
	// Calibrate re-anchors to the fresh sample and projects the observed
	// error forward by one interval (using the zero-valued prior error as
	// the first-order slope), landing on a corrected ns_per_tsc rather than
	// the naive two-point slope.
	assert.Equal(t, uint64(2000), c.baseTSC.Load())
	assert.Equal(t, int64(4000), c.baseNS.Load())
	assert.InDelta(t, 3.0, c.GetNsPerTSC(), 1e-9)
	assert.Equal(t, int64(4000), c.ToNanos(2000))
}

func TestCalibrateClampsNsPerTSCPositiveOnAnomaly(t *testing.T) {
	c := NewForTest(1.0, 0, 0)
	c.sync = func() (uint64, int64) {
		return 1000, -5000 // wall clock moved backward relative to base
	}

	anomaly := c.Calibrate()

	assert.True(t, anomaly)
	assert.Greater(t, c.GetNsPerTSC(), 0.0)
	assert.InDelta(t, 1.0, c.GetNsPerTSC(), 1e-9) // clamped to the last known-good rate
}

func TestShouldCalibrateCrossesThreshold(t *testing.T) {
	c := NewForTest(1.0, 0, 0)
	c.nextCalibrateTSC.Store(100)
	assert.False(t, c.ShouldCalibrate(99))
	assert.True(t, c.ShouldCalibrate(100))
	assert.True(t, c.ShouldCalibrate(101))
}

func TestReadTSCIsMonotonicNondecreasing(t *testing.T) {
	a := ReadTSC()
	b := ReadTSC()
	assert.GreaterOrEqual(t, b, a)
}
