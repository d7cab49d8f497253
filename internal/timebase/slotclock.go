// Package timebase turns NMEA fix events and PPS edges into a calibrated
// {utc_second, pps_ms} slot clock (spec §4.2), the Go analogue of the
// firmware's Time.cpp.  The one genuinely concurrent boundary in the whole
// pipeline lives here: an interrupt-level PPS capture writes a single
// monotonic timestamp that the cooperative main loop reads once per tick.
package timebase

import (
	"sync/atomic"
	"time"
)

// ChipOffset is the calibration constant added to a PPS capture for a given
// GNSS chip family (spec §4.2).
type ChipOffset int64

const (
	// OffsetFLARMPreferred is +25 ms, tuned for the preferred receive
	// behaviour of FLARM-family radios.
	OffsetFLARMPreferred ChipOffset = 25
	// OffsetUblox7Late is -100 ms, for the u-blox-7 variant whose pulse
	// runs late.
	OffsetUblox7Late ChipOffset = -100
	// OffsetNone applies no correction.
	OffsetNone ChipOffset = 0
)

// ChipLatency holds the per-chip, per-sentence latency constants used when
// PPS is unavailable (spec §4.2 table), milliseconds from the true second
// to sentence-end.
type ChipLatency struct {
	GGAMillis int64
	RMCMillis int64
}

var (
	LatencySonyCXD  = ChipLatency{GGAMillis: 24, RMCMillis: 38}
	LatencyUbloxFam = ChipLatency{GGAMillis: 138, RMCMillis: 67}
	LatencyMediaTek = ChipLatency{GGAMillis: 48, RMCMillis: 175}
	LatencyAT65L76K = ChipLatency{GGAMillis: 70, RMCMillis: 135}
	LatencyGokeAir  = ChipLatency{GGAMillis: 185, RMCMillis: 265}
)

// PPSCapture is the single-producer/single-consumer shared variable between
// the interrupt-level PPS edge and the cooperative main loop: an atomic
// 64-bit monotonic capture timestamp plus a "new edge" flag.  Write is
// called from interrupt context (or its goroutine stand-in); TakeIfNew is
// called by the main loop when a fix arrives.
type PPSCapture struct {
	millis atomic.Int64
	seen   atomic.Bool
}

// Write records a new PPS edge at the given monotonic millisecond.
func (c *PPSCapture) Write(capturedAtMillis int64) {
	c.millis.Store(capturedAtMillis)
	c.seen.Store(true)
}

// TakeIfNew returns the most recently captured edge and clears the "new"
// flag, or ok=false if no edge has arrived since the last take.
func (c *PPSCapture) TakeIfNew() (capturedAtMillis int64, ok bool) {
	if !c.seen.CompareAndSwap(true, false) {
		return 0, false
	}
	return c.millis.Load(), true
}

// SlotClock is the calibrated {utc_second, pps_ms} pair the scheduler reads
// to compute transmit instants (spec §3).
type SlotClock struct {
	utcSecond int64
	ppsMillis int64
	haveClock bool

	chipOffset  ChipOffset
	chipLatency ChipLatency

	leap *LeapSecondsState
}

// New creates a SlotClock for the given chip's calibration constants.
func New(offset ChipOffset, latency ChipLatency, leap *LeapSecondsState) *SlotClock {
	return &SlotClock{chipOffset: offset, chipLatency: latency, leap: leap}
}

// UTCSecond returns the current calibrated UTC second, leap-seconds
// corrected.
func (s *SlotClock) UTCSecond() int64 {
	correction := int64(0)
	if s.leap != nil {
		correction = s.leap.Correction()
	}
	return s.utcSecond - correction
}

// PPSMillis returns the monotonic millisecond of the last accepted (or
// free-run estimated) PPS edge.
func (s *SlotClock) PPSMillis() int64 {
	return s.ppsMillis
}

// Ready reports whether the clock has been calibrated by at least one fix
// or PPS edge.
func (s *SlotClock) Ready() bool {
	return s.haveClock
}

// OnPPSAndFix is called when a PPS capture and a fix for the same second
// are both available: pps_ms := pps_captured_at_ms + chip_offset (spec
// §4.2).  It enforces I4: pps_ms never decreases.
func (s *SlotClock) OnPPSAndFix(utcSecond int64, ppsCapturedAtMillis int64) {
	candidate := ppsCapturedAtMillis + int64(s.chipOffset)
	s.commit(utcSecond, candidate)
}

// OnFixWithoutPPS is called when PPS is unavailable: pps_ms := commit_ms -
// chip_latency(sentence) (spec §4.2). rmcFirst selects which sentence's
// latency constant applies - true when RMC is the one that completed the
// fix (nmea.Fix.RMCFirst).
func (s *SlotClock) OnFixWithoutPPS(utcSecond int64, commitMillis int64, rmcFirst bool) {
	latency := s.chipLatency.GGAMillis
	if rmcFirst {
		latency = s.chipLatency.RMCMillis
	}
	candidate := commitMillis - latency
	s.commit(utcSecond, candidate)
}

func (s *SlotClock) commit(utcSecond, ppsMillisCandidate int64) {
	if s.haveClock && ppsMillisCandidate < s.ppsMillis {
		// I4: pps_ms is never set to a value less than the previous one.
		return
	}
	s.utcSecond = utcSecond
	s.ppsMillis = ppsMillisCandidate
	s.haveClock = true
}

// FreeRun advances the clock between fixes: each time nowMillis reaches
// pps_ms + 1000, utc_second increments by 1 and pps_ms gains 1000 (spec
// §4.2).  It may advance more than one second if called infrequently.
// Returns the number of seconds advanced.
func (s *SlotClock) FreeRun(nowMillis int64) int {
	if !s.haveClock {
		return 0
	}
	advanced := 0
	for nowMillis >= s.ppsMillis+1000 {
		s.ppsMillis += 1000
		s.utcSecond++
		advanced++
	}
	return advanced
}

// nowMonotonicMillis returns the milliseconds elapsed since epoch.  Nothing
// in the repository calls it; tests drive FreeRun/OnPPSAndFix directly.
func nowMonotonicMillis(epoch time.Time) int64 {
	return time.Since(epoch).Milliseconds()
}
