// Package settings holds the two configuration surfaces the pipeline needs:
// a JSON-backed RuntimeConfig (serial candidates, chip preference, ignore
// address - the jsonconfig idiom adapted from the teacher) and a versioned
// key/value text Record, the wire format the original firmware's
// Settings.cpp persists to flash/EEPROM and that this repository persists
// to a plain file instead.
package settings

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// FieldType distinguishes how a Record field is rendered to and parsed from
// its text form, mirroring Settings.cpp's STG_* type tags.
type FieldType int

const (
	// FieldNumeric is a plain decimal integer, e.g. "leapsecs,18".
	FieldNumeric FieldType = iota
	// FieldHex2 is a byte rendered as two hex digits, e.g. "nmea_g,07".
	FieldHex2
	// FieldHex6 is a 24-bit address rendered as six hex digits, e.g.
	// "aircraft_id,3fab21".
	FieldHex6
	// FieldString is a fixed-length opaque string, e.g. a four-word key.
	FieldString
)

// magic and version identify a well-formed record, the Go analogue of
// SOFTRF_EEPROM_MAGIC / SOFTRF_SETTINGS_VERSION.
const (
	magicLabel   = "SoftRF"
	currentMagic = "SRFB" // beacon-specific magic, distinct from the firmware's
	currentVersion = 3
)

// Defaults is overridden by the caller to supply the record's factory
// defaults; it's consulted whenever the magic or version line doesn't match.
type Defaults func() *Record

// Record is the in-memory form of the persisted settings file: an ordered
// set of labelled fields plus any trailing lines the file contained that
// this version of the software doesn't recognise.  Those are preserved
// verbatim on rewrite so that a newer firmware's extra fields survive a
// round trip through an older one - the behaviour Settings.cpp relies on
// when it says "keep settings from previous version".
type Record struct {
	Version      int
	AircraftID   uint32 // 24-bit own address
	IgnoreID     uint32 // 24-bit address to always discard
	FollowID     uint32 // optional "landed-out" relay target, 0 = none
	LeapSeconds  int
	Geoid        int
	DebugFlags   uint32
	unknownLines []string // preserved verbatim, unknown label+value pairs
}

// NewDefaults returns the factory-default record.
func NewDefaults() *Record {
	return &Record{
		Version:     currentVersion,
		LeapSeconds: 18,
	}
}

// fieldSpec names the fields written and read, in a fixed order, in the
// style of Settings.cpp's stgdesc table.
type fieldSpec struct {
	label string
	typ   FieldType
	get   func(*Record) string
	set   func(*Record, string) error
}

func fieldTable() []fieldSpec {
	return []fieldSpec{
		{magicLabel, FieldString, func(r *Record) string { return currentMagic }, nil},
		{"version", FieldNumeric, func(r *Record) string { return strconv.Itoa(r.Version) },
			func(r *Record, v string) error { n, err := strconv.Atoi(v); r.Version = n; return err }},
		{"aircraft_id", FieldHex6, func(r *Record) string { return fmt.Sprintf("%06x", r.AircraftID) },
			func(r *Record, v string) error { return setHex32(&r.AircraftID, v) }},
		{"ignore_id", FieldHex6, func(r *Record) string { return fmt.Sprintf("%06x", r.IgnoreID) },
			func(r *Record, v string) error { return setHex32(&r.IgnoreID, v) }},
		{"follow_id", FieldHex6, func(r *Record) string { return fmt.Sprintf("%06x", r.FollowID) },
			func(r *Record, v string) error { return setHex32(&r.FollowID, v) }},
		{"leapsecs", FieldNumeric, func(r *Record) string { return strconv.Itoa(r.LeapSeconds) },
			func(r *Record, v string) error { n, err := strconv.Atoi(v); r.LeapSeconds = n; return err }},
		{"geoid", FieldNumeric, func(r *Record) string { return strconv.Itoa(r.Geoid) },
			func(r *Record, v string) error { n, err := strconv.Atoi(v); r.Geoid = n; return err }},
		{"debug_flags", FieldHex2, func(r *Record) string { return fmt.Sprintf("%02x", r.DebugFlags) },
			func(r *Record, v string) error { return setHex32(&r.DebugFlags, v) }},
	}
}

func setHex32(dest *uint32, v string) error {
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return err
	}
	*dest = uint32(n)
	return nil
}

// Write renders the record as label,value lines terminated by CRLF, matching
// the original firmware's snprintf(buf, "%s,%s\r\n", ...) layout.
func (r *Record) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, f := range fieldTable() {
		if _, err := fmt.Fprintf(bw, "%s,%s\r\n", f.label, f.get(r)); err != nil {
			return err
		}
	}
	for _, line := range r.unknownLines {
		if _, err := fmt.Fprintf(bw, "%s\r\n", line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a record from r.  If the magic or version line doesn't match
// what this software expects, it discards what it read, substitutes
// defaults and reports replaced=true so the caller can immediately rewrite
// the file - the "bad settings.txt version, erased file" path in
// Settings.cpp.
func Load(r io.Reader, defaults Defaults, logger *log.Logger) (record *Record, replaced bool) {
	scanner := bufio.NewScanner(r)

	lines := make(map[string]string)
	var order []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		label, value, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		lines[label] = value
		order = append(order, label)
	}

	if lines[magicLabel] != currentMagic {
		logMsg(logger, "settings: bad magic, loading defaults")
		return defaultsRecord(defaults), true
	}

	rec := &Record{}
	spec := fieldTable()
	known := make(map[string]fieldSpec, len(spec))
	for _, f := range spec {
		known[f.label] = f
	}

	for _, f := range spec {
		if f.set == nil {
			continue
		}
		v, present := lines[f.label]
		if !present {
			logMsg(logger, fmt.Sprintf("settings: missing field %q, loading defaults", f.label))
			return defaultsRecord(defaults), true
		}
		if err := f.set(rec, v); err != nil {
			logMsg(logger, fmt.Sprintf("settings: bad value for %q: %v, loading defaults", f.label, err))
			return defaultsRecord(defaults), true
		}
	}

	if rec.Version != currentVersion {
		logMsg(logger, "settings: version mismatch, loading defaults")
		return defaultsRecord(defaults), true
	}

	// Preserve any trailing lines this version doesn't recognise, verbatim,
	// so a settings file written by a newer build round-trips cleanly.
	for _, label := range order {
		if _, ok := known[label]; ok {
			continue
		}
		rec.unknownLines = append(rec.unknownLines, label+","+lines[label])
	}

	return rec, false
}

func defaultsRecord(defaults Defaults) *Record {
	if defaults != nil {
		return defaults()
	}
	return NewDefaults()
}

func logMsg(logger *log.Logger, msg string) {
	if logger != nil {
		logger.Println(msg)
	} else {
		log.Println(msg)
	}
}
