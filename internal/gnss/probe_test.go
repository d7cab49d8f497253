package gnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory Port double: writes are discarded, and each
// write makes the scripted response available to read once, like a chip
// answering every command it is sent.
type fakePort struct {
	response []byte
	written  bool
	delivered bool
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.written = true
	p.delivered = false
	return len(b), nil
}

func (p *fakePort) Available() int {
	if p.written && !p.delivered {
		return len(p.response)
	}
	return 0
}

func (p *fakePort) Read(buf []byte) (int, error) {
	if p.delivered || !p.written {
		return 0, nil
	}
	n := copy(buf, p.response)
	p.delivered = true
	return n, nil
}

func fakeClock(start int64) func() int64 {
	now := start
	return func() int64 {
		now++
		return now
	}
}

func TestSonyProbeSucceedsOnMatchingResponse(t *testing.T) {
	port := &fakePort{response: []byte("@VER,1.0\r\n")}
	d := NewSonyCXD()

	assert.True(t, d.Probe(port, fakeClock(0)))
}

func TestUbloxProbeFailsOnWrongResponse(t *testing.T) {
	port := &fakePort{response: []byte("garbage")}
	d := NewUblox()

	assert.False(t, d.Probe(port, fakeClock(0)))
}

func TestOpenAtReturnsFirstRespondingDialect(t *testing.T) {
	port := &fakePort{response: []byte("$PMTK705,...\r\n")}
	dialects := []Dialect{NewSonyCXD(), NewMediaTek(), NewUblox()}

	got := OpenAt(port, fakeClock(0), dialects)
	require.NotNil(t, got)
	assert.Equal(t, ChipMediaTek, got.ID())
}

func TestAllDialectsReturnsFiveChips(t *testing.T) {
	assert.Len(t, AllDialects(), 5)
}

// ubxNavStatusFrame builds a synthetic UBX NAV-STATUS response with the
// given flags byte, for AlmanacValid tests.
func ubxNavStatusFrame(flags byte) []byte {
	payload := []byte{
		0, 0, 0, 0, // iTOW
		0x03,  // fixType
		flags, // flags: bit0 gpsFixOk, bit2 wknSet, bit3 towSet
		0x00,  // fixStat
		0x00,  // flags2
		0, 0, 0, 0, // ttff
		0, 0, 0, 0, // msss
	}
	frame := []byte{0xB5, 0x62, 0x01, 0x03, byte(len(payload)), 0x00}
	frame = append(frame, payload...)
	frame = append(frame, 0x00, 0x00) // checksum, unchecked by extractUBXPayload
	return frame
}

func TestUbloxAlmanacValidTrueWhenWknAndTowSet(t *testing.T) {
	port := &fakePort{response: ubxNavStatusFrame(0x01 | navStatusWknSet | navStatusTowSet)}
	d := NewUblox()

	assert.True(t, d.(*ublox).AlmanacValid(port, fakeClock(0)))
}

func TestUbloxAlmanacValidFalseWhenNotValid(t *testing.T) {
	port := &fakePort{response: ubxNavStatusFrame(0x01)}
	d := NewUblox()

	assert.False(t, d.(*ublox).AlmanacValid(port, fakeClock(0)))
}

// writeCountPort is a Port double that records every write and never has
// anything available to read, for exercising LoopTick's resend behaviour.
type writeCountPort struct {
	writes [][]byte
}

func (p *writeCountPort) Write(b []byte) (int, error) {
	p.writes = append(p.writes, append([]byte(nil), b...))
	return len(b), nil
}
func (p *writeCountPort) Available() int            { return 0 }
func (p *writeCountPort) Read(buf []byte) (int, error) { return 0, nil }

func TestUbloxLoopTickResendsPendingCommandUntilTimeout(t *testing.T) {
	port := &writeCountPort{}
	d := &ublox{}
	require.NoError(t, d.Setup(port))
	afterSetup := len(port.writes)

	d.LoopTick(port, 1000) // establishes the wait baseline, no resend yet
	assert.Len(t, port.writes, afterSetup)

	d.LoopTick(port, 1000+ubloxResendIntervalMs)
	assert.Len(t, port.writes, afterSetup+1, "should resend once the interval elapses")

	d.LoopTick(port, 1000+ubloxACKTimeoutMs+1)
	d.LoopTick(port, 1000+ubloxACKTimeoutMs+2000)
	assert.Len(t, port.writes, afterSetup+1, "no more resends once the ACK budget is exhausted")
}
