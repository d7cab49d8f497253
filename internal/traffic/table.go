// Package traffic implements the fixed-capacity traffic table the
// scheduler populates from successfully decoded packets (spec §4.5): a
// 24-bit-address-keyed associative container with age-based eviction feeding
// the alarm engine.
package traffic

import "github.com/softrf-go/adslbeacon/internal/codec"

// sweepIntervalMs and entryMaxAgeMs are the table's housekeeping constants
// (spec §4.5: "Sweep runs opportunistically at most once per 500 ms and
// removes entries older than 30 s").
const (
	sweepIntervalMs = 500
	entryMaxAgeMs   = 30_000
)

// Entry is one aircraft's last-known decoded state plus bookkeeping for
// eviction and duplicate suppression (spec invariants I2-I4).
type Entry struct {
	Address     uint32
	Identity    codec.Identity
	State       codec.State
	LastSeenMs  int64
	LastCRC     uint32
	LastCRCMs   int64
	SeenViaPrimaryAt int64 // 0 means "never seen via the primary protocol"
}

// UpsertResult reports what Upsert did, matching the spec's operation
// signature `upsert(addr, entry) -> {inserted, updated, evicted-victim?}`.
type UpsertResult struct {
	Inserted bool
	Updated  bool
	Evicted  *Entry
}

// Table is a fixed-capacity map keyed by 24-bit address.
type Table struct {
	capacity   int
	entries    map[uint32]*Entry
	lastSweepMs int64
	haveSwept  bool
}

// New returns an empty Table bounded to capacity entries.
func New(capacity int) *Table {
	return &Table{capacity: capacity, entries: make(map[uint32]*Entry, capacity)}
}

// Lookup returns the entry for addr, if any.
func (t *Table) Lookup(addr uint32) (Entry, bool) {
	e, ok := t.entries[addr]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len reports the current number of entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Upsert inserts or updates the entry for addr (spec §4.5). When the table
// is full and addr has no existing entry, the oldest entry by
// now_ms-last_seen is evicted to make room (spec invariant: capacity-bound
// eviction).
func (t *Table) Upsert(addr uint32, id codec.Identity, st codec.State, crc uint32, nowMs int64) UpsertResult {
	if existing, ok := t.entries[addr]; ok {
		existing.Identity = id
		existing.State = st
		existing.LastCRC = crc
		existing.LastCRCMs = nowMs
		existing.LastSeenMs = nowMs
		return UpsertResult{Updated: true}
	}

	var victim *Entry
	if len(t.entries) >= t.capacity {
		victim = t.evictOldest()
	}

	t.entries[addr] = &Entry{
		Address:    addr,
		Identity:   id,
		State:      st,
		LastSeenMs: nowMs,
		LastCRC:    crc,
		LastCRCMs:  nowMs,
	}
	return UpsertResult{Inserted: true, Evicted: victim}
}

// MarkSeenViaPrimary records that addr was just updated via the configured
// primary protocol, for the cross-protocol suppression window (spec §4.4
// step 4, invariant I3 / codec.CrossProtocolWindow).
func (t *Table) MarkSeenViaPrimary(addr uint32, nowMs int64) {
	if e, ok := t.entries[addr]; ok {
		e.SeenViaPrimaryAt = nowMs
	}
}

// evictOldest removes and returns the entry with the largest now_ms -
// last_seen (spec §4.5). Caller must hold no other reference invariants;
// Table has no internal locking, matching the single cooperative-loop
// concurrency model of the rest of the pipeline (spec §9).
func (t *Table) evictOldest() *Entry {
	var oldestAddr uint32
	var oldest *Entry
	for addr, e := range t.entries {
		if oldest == nil || e.LastSeenMs < oldest.LastSeenMs {
			oldest = e
			oldestAddr = addr
		}
	}
	if oldest == nil {
		return nil
	}
	delete(t.entries, oldestAddr)
	cp := *oldest
	return &cp
}

// AgeSweep removes entries untouched for more than entryMaxAgeMs,
// throttled to at most once per sweepIntervalMs (spec §4.5). It returns the
// addresses removed.
func (t *Table) AgeSweep(nowMs int64) []uint32 {
	if t.haveSwept && nowMs-t.lastSweepMs < sweepIntervalMs {
		return nil
	}
	t.haveSwept = true
	t.lastSweepMs = nowMs

	var removed []uint32
	for addr, e := range t.entries {
		if nowMs-e.LastSeenMs > entryMaxAgeMs {
			removed = append(removed, addr)
			delete(t.entries, addr)
		}
	}
	return removed
}
