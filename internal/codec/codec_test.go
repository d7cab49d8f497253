package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	return State{
		Latitude:       52.5,
		Longitude:      13.5,
		AltitudeM:      1234.5,
		ClimbRateMPS:   -1.25,
		TrackDeg:       270.0,
		SpeedKnots:     62.5,
		HDOPClass:      2,
		SecondOfMinute: 43,
		FlightState:    FlightStateAirborne,
		Relay:          false,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	id := Identity{Address: 0xABCDEF, AddressType: AddressTypeICAO, AircraftType: AircraftTypeGlider}
	st := sampleState()

	frame := Encode(id, st)
	require.Len(t, frame, FrameBytes)

	got, err := Decode(frame)
	require.NoError(t, err)

	assert.Equal(t, id.Address, got.Address)
	assert.Equal(t, id.AddressType, got.AddressType)
	assert.Equal(t, id.AircraftType, got.AircraftType)
	assert.InDelta(t, st.Latitude, got.Latitude, 1e-5)
	assert.InDelta(t, st.Longitude, got.Longitude, 1e-5)
	assert.InDelta(t, st.AltitudeM, got.AltitudeM, 0.5)
	assert.InDelta(t, st.ClimbRateMPS, got.ClimbRateMPS, 0.125)
	assert.InDelta(t, st.TrackDeg, got.TrackDeg, 45.0/64.0)
	assert.InDelta(t, st.SpeedKnots, got.SpeedKnots, 0.25)
	assert.Equal(t, st.HDOPClass, got.HDOPClass)
	assert.Equal(t, st.SecondOfMinute, got.SecondOfMinute)
	assert.Equal(t, st.FlightState, got.FlightState)
	assert.Equal(t, st.Relay, got.Relay)
}

func TestEncodeDecodeRoundTripAtExtremeLongitude(t *testing.T) {
	id := Identity{Address: 1, AddressType: AddressTypeRandom, AircraftType: AircraftTypePoweredAircraft}
	st := sampleState()
	st.Latitude = -89.9
	st.Longitude = 179.999

	frame := Encode(id, st)
	got, err := Decode(frame)
	require.NoError(t, err)

	assert.InDelta(t, st.Latitude, got.Latitude, 1e-5)
	assert.InDelta(t, st.Longitude, got.Longitude, 1e-5)
}

func TestWinchSubstitutesStaticAndForcesAirborne(t *testing.T) {
	id := Identity{Address: 42, AddressType: AddressTypeOGN, AircraftType: AircraftTypeWinch}
	st := sampleState()
	st.FlightState = FlightStateOnGround

	frame := Encode(id, st)
	got, err := Decode(frame)
	require.NoError(t, err)

	assert.Equal(t, AircraftTypeStatic, got.AircraftType)
	assert.Equal(t, FlightStateAirborne, got.FlightState)
}

func TestDifferentAddressesScrambleDifferently(t *testing.T) {
	st := sampleState()
	frameA := Encode(Identity{Address: 1, AircraftType: AircraftTypeGlider}, st)
	frameB := Encode(Identity{Address: 2, AircraftType: AircraftTypeGlider}, st)

	assert.NotEqual(t, frameA[1+4:1+PayloadBytes], frameB[1+4:1+PayloadBytes])
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode(make([]byte, FrameBytes-1))
	assert.ErrorIs(t, err, ErrShortFrame)
}

func TestDecodeRejectsCorruptedCRC(t *testing.T) {
	frame := Encode(Identity{Address: 7, AircraftType: AircraftTypeGlider}, sampleState())
	frame[len(frame)-1] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, ErrBadCRC)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	frame := Encode(Identity{Address: 7, AircraftType: AircraftTypeGlider}, sampleState())
	frame[0] = frameVersion + 1
	body := frame[:1+PayloadBytes]
	crc := crc24Hash(body)
	frame[1+PayloadBytes] = crc24HiByte(crc)
	frame[1+PayloadBytes+1] = crc24MiByte(crc)
	frame[1+PayloadBytes+2] = crc24LoByte(crc)

	_, err := Decode(frame)
	assert.ErrorIs(t, err, ErrBadVersion)
}

func TestCRC24TableIsSelfConsistent(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	crc := crc24Hash(data)
	assert.Equal(t, crc, crc24Hash(data), "hashing is deterministic")
	assert.NotEqual(t, crc24Hash([]byte{0x01}), crc24Hash([]byte{0x02}))
}
