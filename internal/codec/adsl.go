package codec

import (
	"errors"
	"time"
)

// Identity is the static part of a beacon's own transmission: its address,
// address type, and aircraft type (spec §3 Aircraft, §4.4 step 1).
type Identity struct {
	Address      uint32
	AddressType  AddressType
	AircraftType AircraftType
}

// State is the dynamic part of a transmission, taken from the current Fix
// plus scheduler-provided flight-state/relay flags (spec §4.4 step 1).
type State struct {
	Latitude      float64
	Longitude     float64
	AltitudeM     float64
	ClimbRateMPS  float64
	TrackDeg      float64
	SpeedKnots    float64
	HDOPClass     uint8
	SecondOfMinute uint8
	FlightState   FlightState
	Relay         bool
}

// frameVersion is the only version this codec emits; decode accepts it and
// rejects anything else (an unknown version carries a bit layout this
// codec can't interpret).
const frameVersion = 1

// FrameBytes is the total wire size: 1 version byte + 20 payload bytes + 3
// CRC bytes (spec §4.4).
const FrameBytes = 1 + PayloadBytes + 3

var (
	// ErrShortFrame is returned by Decode when the input is smaller than
	// FrameBytes.
	ErrShortFrame = errors.New("codec: frame too short")
	// ErrBadCRC is returned by Decode when the trailing CRC doesn't match
	// the recomputed value - a corrupted-in-flight or foreign packet.
	ErrBadCRC = errors.New("codec: CRC mismatch")
	// ErrBadVersion is returned by Decode for a version byte this codec
	// doesn't know how to interpret.
	ErrBadVersion = errors.New("codec: unsupported version")
)

// Encode builds the wire frame for identity+state (spec §4.4): populate the
// five-word payload, substitute STATIC for WINCH with a forced airborne
// flight state (step 4, since a winch launch has no wire representation),
// scramble the payload keyed on address+version, then append the CRC of
// version+scrambled-payload.
func Encode(id Identity, st State) []byte {
	p := &Packet{Version: frameVersion}

	p.SetAddress(id.Address)
	p.SetAddressType(id.AddressType)

	aircraftType := id.AircraftType
	flightState := st.FlightState
	if aircraftType == AircraftTypeWinch {
		aircraftType = AircraftTypeStatic
		flightState = FlightStateAirborne
	}
	p.SetAircraftType(aircraftType)
	p.SetFlightState(flightState)
	p.SetRelay(st.Relay)

	p.SetLatitude(st.Latitude)
	p.SetLongitude(st.Longitude)
	p.SetAltitude(st.AltitudeM)
	p.SetClimbRateMPS(st.ClimbRateMPS)
	p.SetTrackDeg(st.TrackDeg)
	p.SetSpeedKnots(st.SpeedKnots)
	p.SetHorizontalAccuracyClass(st.HDOPClass)
	p.SetSecondOfMinute(st.SecondOfMinute)

	scramble(&p.payload, id.Address, p.Version)

	frame := p.versionAndPayload()
	crc := crc24Hash(frame)
	return append(frame, crc24HiByte(crc), crc24MiByte(crc), crc24LoByte(crc))
}

// Decoded is the result of a successful Decode: the sender's identity and
// broadcast state, recovered from the wire.
type Decoded struct {
	Identity
	State
}

// Decode validates and unpacks a wire frame (spec §4.4 decode path): check
// length and CRC before touching the payload, reject an unknown version,
// then descramble and read back every field.  Address-filtering (own
// address, ignore list) and duplicate suppression (I2/I3) are the caller's
// job - Decode only concerns itself with the bits on the wire.
func Decode(frame []byte) (Decoded, error) {
	if len(frame) < FrameBytes {
		return Decoded{}, ErrShortFrame
	}
	frame = frame[:FrameBytes]

	body := frame[:1+PayloadBytes]
	crc := crc24Hash(body)
	if frame[1+PayloadBytes] != crc24HiByte(crc) ||
		frame[1+PayloadBytes+1] != crc24MiByte(crc) ||
		frame[1+PayloadBytes+2] != crc24LoByte(crc) {
		return Decoded{}, ErrBadCRC
	}

	version := frame[0]
	if version != frameVersion {
		return Decoded{}, ErrBadVersion
	}

	p := &Packet{Version: version}
	copy(p.payload[:], frame[1:1+PayloadBytes])

	// The address lives in word 0, which scramble never touches, so it
	// can be read before descrambling and used to key the rest.
	address := p.Address()
	descramble(&p.payload, address, version)

	out := Decoded{
		Identity: Identity{
			Address:      p.Address(),
			AddressType:  p.AddressType(),
			AircraftType: p.AircraftType(),
		},
		State: State{
			Latitude:       p.Latitude(),
			Longitude:      p.Longitude(),
			AltitudeM:      p.Altitude(),
			ClimbRateMPS:   p.ClimbRateMPS(),
			TrackDeg:       p.TrackDeg(),
			SpeedKnots:     p.SpeedKnots(),
			HDOPClass:      p.HorizontalAccuracyClass(),
			SecondOfMinute: p.SecondOfMinute(),
			FlightState:    p.FlightState(),
			Relay:          p.Relay(),
		},
	}
	return out, nil
}

// DuplicateWindow is the interval within which two frames from the same
// address with an identical CRC are treated as the same transmission seen
// twice, e.g. once directly and once relayed (spec invariant I2/I3).
const DuplicateWindow = 1 * time.Second

// CrossProtocolWindow is the interval within which a peer heard on the
// primary protocol suppresses a redundant sighting of the same address on
// the alternate protocol (spec invariant I3).
const CrossProtocolWindow = 5 * time.Second
