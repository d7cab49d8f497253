package timebase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPPSOnlyFreeRunAdvancesTenSeconds(t *testing.T) {
	clock := New(OffsetNone, LatencyUbloxFam, nil)
	clock.OnPPSAndFix(1000, 5000) // utc_second=1000 at monotonic ms 5000

	advancedTotal := 0
	for i := 1; i <= 10; i++ {
		advancedTotal += clock.FreeRun(5000 + int64(i)*1000)
	}

	assert.Equal(t, 10, advancedTotal)
	assert.Equal(t, int64(1010), clock.UTCSecond())
}

func TestPPSMillisNeverDecreases(t *testing.T) {
	clock := New(OffsetNone, LatencyUbloxFam, nil)
	clock.OnPPSAndFix(100, 10_000)
	before := clock.PPSMillis()

	clock.OnPPSAndFix(101, 9_000) // a bogus, earlier capture
	assert.Equal(t, before, clock.PPSMillis(), "I4: pps_ms must never go backwards")
}

func TestChipOffsetApplied(t *testing.T) {
	clock := New(OffsetFLARMPreferred, LatencyUbloxFam, nil)
	clock.OnPPSAndFix(1, 1000)
	assert.Equal(t, int64(1025), clock.PPSMillis())
}

func TestFreeRunWithoutCalibrationIsNoop(t *testing.T) {
	clock := New(OffsetNone, LatencyUbloxFam, nil)
	assert.Equal(t, 0, clock.FreeRun(5000))
	assert.False(t, clock.Ready())
}

func TestOnFixWithoutPPSUsesRMCFirstLatency(t *testing.T) {
	clock := New(OffsetNone, LatencyUbloxFam, nil)
	clock.OnFixWithoutPPS(42, 10_000, true)
	assert.Equal(t, int64(10_000-67), clock.PPSMillis())

	clock2 := New(OffsetNone, LatencyUbloxFam, nil)
	clock2.OnFixWithoutPPS(42, 10_000, false)
	assert.Equal(t, int64(10_000-138), clock2.PPSMillis())
}

func TestLeapSecondsAppliesCorrectionWhileInvalid(t *testing.T) {
	leap := NewLeapSecondsState(18)
	leap.OnAlmanacInvalid(0, 15)
	assert.Equal(t, int64(3), leap.Correction())
	assert.False(t, leap.Settled())
}

func TestLeapSecondsRetryCadence(t *testing.T) {
	leap := NewLeapSecondsState(18)
	leap.OnAlmanacInvalid(0, 15)
	// Too soon - should not re-query or change state.
	leap.OnAlmanacInvalid(1000, 10)
	assert.Equal(t, int64(3), leap.Correction(), "retry should be suppressed before 43s elapse")

	leap.OnAlmanacInvalid(43_000, 10)
	assert.Equal(t, int64(8), leap.Correction())
}

func TestLeapSecondsGivesUpAfter18Attempts(t *testing.T) {
	leap := NewLeapSecondsState(18)
	now := int64(0)
	for i := 0; i < 18; i++ {
		leap.OnAlmanacInvalid(now, 15)
		now += leapQueryIntervalMillis
	}
	assert.True(t, leap.Settled())
}

func TestLeapSecondsValidClearsCorrection(t *testing.T) {
	leap := NewLeapSecondsState(18)
	leap.OnAlmanacInvalid(0, 15)
	require.Equal(t, int64(3), leap.Correction())

	var persisted int
	leap.OnAlmanacValid(18, func(v int) { persisted = v })
	assert.Equal(t, int64(0), leap.Correction())
	assert.Equal(t, 18, persisted)
	assert.True(t, leap.Settled())
}
