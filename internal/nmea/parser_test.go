package nmea

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feed(t *testing.T, p *Parser, sentence string) bool {
	t.Helper()
	committed := false
	for i := 0; i < len(sentence); i++ {
		if p.Encode(sentence[i]) {
			committed = true
		}
	}
	return committed
}

// checksum computes the NMEA XOR checksum of the payload between '$' and
// '*' (exclusive), matching the parser's own accumulation.
func checksum(payload string) byte {
	var c byte
	for i := 0; i < len(payload); i++ {
		c ^= payload[i]
	}
	return c
}

func sentence(payload string) string {
	return "$" + payload + "*" + hex2(checksum(payload)) + "\r\n"
}

func hex2(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

func TestColdStartUbloxGGABeforeRMC(t *testing.T) {
	var got Fix
	fired := false
	clockMillis := int64(1000)
	p := New(func() int64 { return clockMillis }, func(f Fix) {
		got = f
		fired = true
	})

	gga := "GPGGA,120000.00,5230.0000,N,01330.0000,E,1,08,1.0,100.0,M,45.0,M,,"
	rmc := "GPRMC,120000.00,A,5230.0000,N,01330.0000,E,0.0,0.0,010125,,,A"

	require.True(t, feed(t, p, sentence(gga)))
	clockMillis = 1138 // ublox RMC commits after GGA, spec §8 scenario 1
	require.True(t, feed(t, p, sentence(rmc)))

	require.True(t, fired)
	assert.InDelta(t, 52.5, got.LatitudeDeg, 1e-4)
	assert.InDelta(t, 13.5, got.LongitudeDeg, 1e-4)
	assert.InDelta(t, 100.0, got.AltitudeMetres, 1e-6)
	assert.Equal(t, 2025, got.UTC.Year())
	assert.Equal(t, 12, got.UTC.Hour())
	assert.True(t, got.goodGGA)

	// The RMC commits after the GGA, so it's the sentence that completes
	// the fix: the time base should apply the ublox RMC latency constant
	// (67 ms), not the GGA one (spec §8 scenario 1).
	assert.True(t, got.RMCFirst)
	assert.Equal(t, int64(1138), got.CapturedAtMillis)
}

func TestBadChecksumIsDiscardedSilently(t *testing.T) {
	fired := false
	p := New(func() int64 { return 0 }, func(f Fix) { fired = true })

	bad := "$GPGGA,120000.00,5230.0000,N,01330.0000,E,1,08,1.0,100.0,M,45.0,M,,*00\r\n"
	for i := 0; i < len(bad); i++ {
		p.Encode(bad[i])
	}
	assert.False(t, fired)
}

func TestEmptyGGABeforeLockDoesNotFireFix(t *testing.T) {
	fired := false
	p := New(func() int64 { return 0 }, func(f Fix) { fired = true })

	require.True(t, feed(t, p, sentence("GPGGA,120000.00")))
	require.True(t, feed(t, p, sentence("GPRMC,120000.00,A,5230.0000,N,01330.0000,E,0.0,0.0,010125,,,A")))

	assert.False(t, fired)
}

func TestFixValidityWindow(t *testing.T) {
	f := &Fix{goodGGA: true, locationAgeMillis: 1000, altitudeAgeMillis: 1000, dateAgeMillis: 1000}
	assert.True(t, f.Valid(1000))
	assert.True(t, f.Valid(1000+3500))
	assert.False(t, f.Valid(1000+3501))
}
