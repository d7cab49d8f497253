package nmea

import (
	"strconv"
	"strings"
	"time"
)

// parseLatLon converts a DDMM.mmmm / DDDMM.mmmm term plus its hemisphere
// letter into signed decimal degrees, in a single pass: the degrees are the
// leading two (lat) or three (lon) digits, the rest is minutes scaled by
// 1/60, exactly as TinyGPS++'s parseDegrees does it.
func parseLatLon(term string, hemisphere byte) (float64, bool) {
	if len(term) < 4 {
		return 0, false
	}
	dot := strings.IndexByte(term, '.')
	if dot < 4 {
		return 0, false
	}
	degDigits := dot - 2
	degPart := term[:degDigits]
	minPart := term[degDigits:]

	degrees, err := strconv.Atoi(degPart)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(minPart, 64)
	if err != nil {
		return 0, false
	}

	value := float64(degrees) + minutes/60.0
	if hemisphere == 'S' || hemisphere == 'W' {
		value = -value
	}
	return value, true
}

// parseNMEATime converts an HHMMSS.CC term into hour/minute/second/
// centisecond, defaulting centiseconds to 0 when the fractional part is
// absent (spec §4.1).
func parseNMEATime(term string) (hour, minute, second, centisecond int, ok bool) {
	if len(term) < 6 {
		return 0, 0, 0, 0, false
	}
	h, err1 := strconv.Atoi(term[0:2])
	m, err2 := strconv.Atoi(term[2:4])
	s, err3 := strconv.Atoi(term[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, 0, false
	}
	cs := 0
	if dot := strings.IndexByte(term, '.'); dot >= 0 && dot+1 < len(term) {
		frac := term[dot+1:]
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		if v, err := strconv.Atoi(frac); err == nil {
			cs = v
		}
	}
	return h, m, s, cs, true
}

// parseNMEADate converts a DDMMYY term into a calendar date (UTC, no time
// component set).
func parseNMEADate(term string) (year, month, day int, ok bool) {
	if len(term) < 6 {
		return 0, 0, 0, false
	}
	d, err1 := strconv.Atoi(term[0:2])
	m, err2 := strconv.Atoi(term[2:4])
	y, err3 := strconv.Atoi(term[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return 2000 + y, m, d, true
}

// parseDecimal parses a decimal term honouring an optional leading '-' and
// up to five fractional digits (spec §4.1).  It tolerates an empty string,
// returning 0, so optional fields (pressure altitude, geoid separation)
// don't abort the sentence.
func parseDecimal(term string) (float64, bool) {
	if term == "" {
		return 0, true
	}
	if dot := strings.IndexByte(term, '.'); dot >= 0 && len(term) > dot+6 {
		term = term[:dot+6]
	}
	v, err := strconv.ParseFloat(term, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func combineDateTime(year, month, day, hour, minute, second, centisecond int) time.Time {
	return time.Date(year, time.Month(month), day, hour, minute, second,
		centisecond*10*1000*1000, time.UTC)
}

// isRMC reports whether tag is a recognised RMC sentence type (spec §4.1).
func isRMC(tag string) bool {
	return tag == "GPRMC" || tag == "GNRMC"
}

// isGGA reports whether tag is a recognised GGA sentence type (spec §4.1).
func isGGA(tag string) bool {
	return tag == "GPGGA" || tag == "GNGGA"
}
