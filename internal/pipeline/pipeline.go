// Package pipeline wires the NMEA parser, time base, scheduler, codec,
// radio, and traffic table into one cooperative main-loop pass (spec §4
// "Control flow"): fix events update the time base, the scheduler computes
// a transmit instant only once the time base has settled for this second,
// and decoded packets are filtered into the traffic table.
package pipeline

import (
	"io"

	"github.com/softrf-go/adslbeacon/internal/codec"
	"github.com/softrf-go/adslbeacon/internal/nmea"
	"github.com/softrf-go/adslbeacon/internal/radio"
	"github.com/softrf-go/adslbeacon/internal/scheduler"
	"github.com/softrf-go/adslbeacon/internal/timebase"
	"github.com/softrf-go/adslbeacon/internal/traffic"
)

// Config carries the fixed parameters Pipeline needs at construction:
// ownship identity, radio, chip calibration, and filtering policy.
type Config struct {
	Identity      codec.Identity
	Driver        radio.Driver
	Primary       scheduler.Protocol
	AltProtocol   *scheduler.Protocol
	ChipOffset    timebase.ChipOffset
	ChipLatency   timebase.ChipLatency
	TrafficFilter traffic.Filter
	TableCapacity int

	// Trace, if non-nil, receives a copy of every transmitted and accepted
	// received frame, oldest first. Typically a logging.FrameArchive.
	Trace io.Writer
}

// Pipeline is the assembled real-time core (spec §4): one NMEA parser, one
// slot clock, one scheduler, and one traffic table, all driven by a single
// caller-owned tick loop.
type Pipeline struct {
	cfg Config

	Parser    *nmea.Parser
	Clock     *timebase.SlotClock
	Scheduler *scheduler.Scheduler
	Table     *traffic.Table
	PPS       timebase.PPSCapture

	leap      *timebase.LeapSecondsState
	latestFix *nmea.Fix
	nowMillis func() int64
}

// New assembles a Pipeline. nowMillis supplies the monotonic millisecond
// clock used for fix timestamps, free-running, and transmit timing.
func New(cfg Config, leap *timebase.LeapSecondsState, nowMillis func() int64) *Pipeline {
	p := &Pipeline{cfg: cfg, leap: leap, nowMillis: nowMillis}

	p.Parser = nmea.New(nowMillis, p.onFix)
	p.Clock = timebase.New(cfg.ChipOffset, cfg.ChipLatency, leap)
	p.Scheduler = scheduler.New(cfg.Identity.Address, cfg.Primary, cfg.AltProtocol, cfg.Driver)
	capacity := cfg.TableCapacity
	if capacity <= 0 {
		capacity = 64
	}
	p.Table = traffic.New(capacity)

	return p
}

// onFix is the parser's commit callback (spec §4 "each fix event drives
// the time base"): it records the fix and updates the slot clock,
// preferring a PPS-calibrated edge over the per-chip latency estimate.
func (p *Pipeline) onFix(fix nmea.Fix) {
	p.latestFix = &fix
	utcSecond := fix.UTC.Unix()

	if capturedAt, ok := p.PPS.TakeIfNew(); ok {
		p.Clock.OnPPSAndFix(utcSecond, capturedAt)
		return
	}
	p.Clock.OnFixWithoutPPS(utcSecond, fix.CapturedAtMillis, fix.RMCFirst)
}

// FeedNMEA drains one byte of NMEA input through the parser.
func (p *Pipeline) FeedNMEA(b byte) {
	p.Parser.Encode(b)
}

// Tick runs one pass of the cooperative main loop (spec §4/§5): free-run
// the clock, and - only once the time base has been updated for this
// second - ask the scheduler to plan and, if its instant has arrived,
// transmit; then poll the radio for anything received and fold a
// successful decode into the traffic table.
func (p *Pipeline) Tick(nowMillis int64) {
	p.Clock.FreeRun(nowMillis)
	if !p.Clock.Ready() {
		return
	}

	second := int(p.Clock.UTCSecond())
	plan := p.Scheduler.Plan(p.Clock.PPSMillis(), second)

	status := scheduler.FixStatus{
		Valid:    p.latestFix.Valid(nowMillis),
		Airborne: p.latestFix != nil && !isOnGround(p.latestFix),
	}
	_ = p.Scheduler.Transmit(plan, nowMillis, status, p.encodeOwnship)

	p.pollAndAcceptOneDecode(nowMillis)
	p.Table.AgeSweep(nowMillis)
}

// isOnGround treats a fix with negligible ground speed as on-ground; the
// concrete GNSS-derived airborne/on-ground classification lives with the
// caller's flight-state tracking in a full installation, this is the
// minimal signal the pipeline itself can derive from a Fix alone.
func isOnGround(fix *nmea.Fix) bool {
	const groundSpeedThresholdMPS = 5.0
	return fix.GroundSpeedMPS < groundSpeedThresholdMPS
}

// secondOfMinute applies the leap-seconds correction to the GNSS-reported
// second before it goes on the wire (spec §4.4 step 1, scenario 6:
// "seconds-of-minute = gnss_sec - 3, wrapped mod 60").
func (p *Pipeline) secondOfMinute(fix *nmea.Fix) int {
	sec := fix.UTC.Second()
	if p.leap != nil {
		sec -= int(p.leap.Correction())
	}
	return ((sec % 60) + 60) % 60
}

func (p *Pipeline) encodeOwnship() []byte {
	fix := p.latestFix
	st := codec.State{
		FlightState: codec.FlightStateAirborne,
	}
	if fix != nil {
		st.Latitude = fix.LatitudeDeg
		st.Longitude = fix.LongitudeDeg
		st.AltitudeM = fix.AltitudeMetres
		st.ClimbRateMPS = fix.VerticalSpeedMPS
		st.TrackDeg = fix.GroundTrackDeg
		st.SpeedKnots = fix.GroundSpeedMPS / knotsToMPSInverse
		st.SecondOfMinute = uint8(p.secondOfMinute(fix))
		if isOnGround(fix) {
			st.FlightState = codec.FlightStateOnGround
		}
	}
	frame := codec.Encode(p.cfg.Identity, st)
	if p.cfg.Trace != nil {
		p.cfg.Trace.Write(frame)
	}
	return frame
}

// knotsToMPSInverse converts m/s back to knots (the Fix stores ground
// speed in m/s; the wire codec wants knots, per the unit boundary rule in
// spec §4.4).
const knotsToMPSInverse = 0.514444

// pollAndAcceptOneDecode drains a pending radio reception, decodes it, and
// - if the traffic filter accepts it - upserts the result into the table
// (spec §4.4 decode pipeline steps 1-5).
func (p *Pipeline) pollAndAcceptOneDecode(nowMillis int64) {
	received, ok := p.Scheduler.PollReceive()
	if !ok || !received.CRCOK {
		return
	}

	decoded, err := codec.Decode(received.Data)
	if err != nil {
		return
	}

	crc := frameCRC(received.Data)
	if !p.cfg.TrafficFilter.Accept(p.Table, decoded.Address, crc, nowMillis) {
		return
	}
	if p.cfg.Trace != nil {
		p.cfg.Trace.Write(received.Data)
	}

	// An own-address echo only reaches here when landed-out relay mode
	// let it past the filter (I3); mark it relayed regardless of the
	// wire bit so a downstream display can show "you are also being
	// relayed" (spec §8 scenario 4, SPEC_FULL.md §9).
	if decoded.Address == p.cfg.TrafficFilter.OwnAddress {
		decoded.State.Relay = true
	}

	p.Table.Upsert(decoded.Address, decoded.Identity, decoded.State, crc, nowMillis)
	if p.cfg.TrafficFilter.IsPrimaryProtocol {
		p.Table.MarkSeenViaPrimary(decoded.Address, nowMillis)
	}
}

// frameCRC extracts the trailing 3-byte CRC from a wire frame as a single
// integer, matching the value codec.Encode appended, so the traffic table
// can use it for duplicate detection without re-deriving it.
func frameCRC(frame []byte) uint32 {
	if len(frame) < codec.FrameBytes {
		return 0
	}
	hi := uint32(frame[1+codec.PayloadBytes])
	mi := uint32(frame[1+codec.PayloadBytes+1])
	lo := uint32(frame[1+codec.PayloadBytes+2])
	return hi<<16 | mi<<8 | lo
}
