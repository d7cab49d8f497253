package gnss

// BaudCandidates is the descending probe sweep (spec §6: "on probe failure
// the pipeline sweeps baud rates descending from 115200 down to 9600").
var BaudCandidates = []int{115200, 57600, 38400, 19200, 9600}

// BaudDwellMs is the minimum time spent listening at each candidate baud
// before moving to the next, long enough for two NMEA sentences at the
// slowest configured baud so a chip still flushing a previous baud's
// partial sentence isn't misdetected (SPEC_FULL §9).
const BaudDwellMs = 1200

// OpenAt attempts to probe every known dialect at the port's current baud,
// returning the first that responds, or nil if none do. dialects is
// normally AllDialects(); tests pass a subset.
func OpenAt(port Port, nowMs func() int64, dialects []Dialect) Dialect {
	for _, d := range dialects {
		if d.Probe(port, nowMs) {
			return d
		}
	}
	return nil
}

// SweepBaud tries OpenAt at each candidate baud in descending order (spec
// §6), reconfiguring the port via setBaud between attempts and dwelling at
// least BaudDwellMs before moving on so a chip still flushing a partial
// sentence from the previous baud isn't misdetected (SPEC_FULL §9).
func SweepBaud(port Port, nowMs func() int64, dialects []Dialect, setBaud func(baud int) error) (Dialect, int) {
	for _, baud := range BaudCandidates {
		if err := setBaud(baud); err != nil {
			continue
		}
		dwellDeadline := nowMs() + BaudDwellMs
		if d := OpenAt(port, nowMs, dialects); d != nil {
			return d, baud
		}
		for nowMs() < dwellDeadline {
		}
	}
	return nil, 0
}
