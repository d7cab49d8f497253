// Package nmea is a small character-driven NMEA 0183 state machine, the Go
// rendering of TinyGPS++'s encode()/endOfTermHandler() pair: feed it bytes
// one at a time, and it commits a Fix once a matching GGA/RMC pair for the
// same UTC second has both passed its checksum.
package nmea

import "time"

// maxFixAgeMillis is how stale a committed field may be and still count
// towards a valid Fix (spec §3).
const maxFixAgeMillis = 3500

// Fix is a timestamped snapshot of ownship kinematics, committed only when
// a GGA and an RMC for the same second have both passed their checksum.
type Fix struct {
	LatitudeDeg      float64
	LongitudeDeg     float64
	AltitudeMetres   float64
	HasPressureAlt   bool
	PressureAltM     float64
	GroundSpeedMPS   float64
	GroundTrackDeg   float64
	VerticalSpeedMPS float64
	HDOPTenths       int
	Satellites       int
	UTC              time.Time
	CapturedAtMillis int64

	// RMCFirst is true when the GGA of this pair committed no later than
	// the RMC, i.e. the RMC is the sentence that completes the fix; the
	// time base uses it to pick the chip latency constant that applies
	// at commit time (spec §4.1/§4.2).
	RMCFirst bool

	locationAgeMillis int64
	altitudeAgeMillis int64
	dateAgeMillis     int64
	goodGGA           bool // geoid separation field was non-empty
}

// Valid reports whether location, altitude and date were all committed
// within maxFixAgeMillis of nowMillis, and the originating GGA carried a
// non-empty geoid separation field (I: "good GGA" sentinel, spec §3).
func (f *Fix) Valid(nowMillis int64) bool {
	if f == nil {
		return false
	}
	if !f.goodGGA {
		return false
	}
	fresh := func(stampMillis int64) bool {
		return stampMillis != 0 && nowMillis-stampMillis <= maxFixAgeMillis && nowMillis >= stampMillis
	}
	return fresh(f.locationAgeMillis) && fresh(f.altitudeAgeMillis) && fresh(f.dateAgeMillis)
}
