package traffic

import (
	"github.com/softrf-go/adslbeacon/internal/codec"
)

// Filter applies the decode-acceptance rules of spec §4.4 steps 3-4 and
// invariants I1-I3 before a decoded packet is allowed into the table:
// reject ownship, the configured ignore address, a same-address duplicate
// CRC seen within the last second, and a secondary-protocol copy of an
// address recently updated via the primary protocol.
type Filter struct {
	OwnAddress      uint32
	IgnoreAddress   uint32
	LandedOutRelay  bool
	IsPrimaryProtocol bool
}

// Accept reports whether a decoded packet with the given crc should be
// admitted to table at nowMs, consulting any existing entry for the same
// address to evaluate the duplicate-CRC and cross-protocol windows.
func (f Filter) Accept(table *Table, addr uint32, crc uint32, nowMs int64) bool {
	if addr == f.OwnAddress && !f.LandedOutRelay {
		return false // invariant I3
	}
	if addr == f.IgnoreAddress {
		return false // invariant I1
	}

	existing, ok := table.Lookup(addr)
	if !ok {
		return true
	}

	if existing.LastCRC == crc && nowMs-existing.LastCRCMs < int64(codec.DuplicateWindow.Milliseconds()) {
		return false // invariant I2
	}

	if !f.IsPrimaryProtocol && existing.SeenViaPrimaryAt != 0 &&
		nowMs-existing.SeenViaPrimaryAt < int64(codec.CrossProtocolWindow.Milliseconds()) {
		return false // spec §4.4 step 4
	}

	return true
}
