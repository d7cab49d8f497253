package scheduler

import (
	"errors"

	"github.com/softrf-go/adslbeacon/internal/radio"
)

// onGroundTxIntervalMs is the minimum spacing between presence-only
// transmits while on the ground (spec invariant I5: "one transmit every
// eight seconds is still permitted").
const onGroundTxIntervalMs = 8000

// Encoder builds the wire frame to transmit for the current second. The
// scheduler calls it once it has committed to a transmit instant, never
// earlier, so the encoded state is as fresh as possible.
type Encoder func() []byte

// FixStatus is what the scheduler needs to know about the current fix to
// decide whether a transmit is allowed at all (spec invariant I5).
type FixStatus struct {
	Valid    bool
	Airborne bool
}

// Plan is one second's transmit decision: which protocol, which slot, and
// the committed instant in PPS-relative milliseconds.
type Plan struct {
	Protocol  Protocol
	Slot      int
	TxInstant int
	Second    int
	Skipped   bool
}

// Scheduler implements spec §4.3: per second it selects a slot, draws a
// pseudo-random offset inside it, and commits a transmit instant; it then
// arbitrates the radio between receive and that one transmit burst.
type Scheduler struct {
	primary     Protocol
	alt         *Protocol
	address     uint32
	driver      radio.Driver
	lastGroundTxMs int64
	haveLastGroundTx bool
	useAltThisSecond bool
	planSecond       int
	havePlanSecond   bool
	lastTxSecond     int
	haveLastTxSecond bool
}

// New builds a Scheduler for the given address, primary protocol, and
// radio driver.  altProtocol may be nil; when set, transmits alternate
// between primary and alt each second (spec §4.3 "dual-protocol operation").
func New(address uint32, primary Protocol, altProtocol *Protocol, driver radio.Driver) *Scheduler {
	return &Scheduler{address: address, primary: primary, alt: altProtocol, driver: driver}
}

// secondHash mixes the address and second counter into a pseudo-random
// value, used both to choose a slot and to draw an offset within it
// (spec §4.3 step 1-2: "hash of the ownship address and the second
// counter").
func secondHash(address uint32, second int, salt uint32) uint32 {
	h := address*2654435761 + uint32(second)*40503 + salt + 1
	h ^= h << 13
	h ^= h >> 17
	h ^= h << 5
	return h
}

// chooseProtocol returns which protocol to use for second, alternating
// with alt each time the second changes when one is configured (spec §4.3
// "separate counter supports dual-protocol operation"); repeated calls for
// the same second return the same protocol.
func (s *Scheduler) chooseProtocol(second int) Protocol {
	if s.alt == nil {
		return s.primary
	}
	switch {
	case !s.havePlanSecond:
		s.havePlanSecond = true
	case second != s.planSecond:
		s.useAltThisSecond = !s.useAltThisSecond
	}
	s.planSecond = second
	if s.useAltThisSecond {
		return *s.alt
	}
	return s.primary
}

// Plan selects the slot and transmit instant for the current second (spec
// §4.3 steps 1-3). ppsMs is the current pps_ms, second is the UTC second
// counter used to vary the hash per second.
func (s *Scheduler) Plan(ppsMs int64, second int) Plan {
	proto := s.chooseProtocol(second)

	slotIdx := int(secondHash(s.address, second, 0) % 2)
	begin, end := proto.slot(slotIdx)
	duration := end - begin
	usable := duration - proto.AirTimeMs
	if usable < 0 {
		usable = 0
	}

	offset := int(secondHash(s.address, second, 1) % uint32(usable+1))
	txInstant := int(ppsMs) + begin + offset

	return Plan{Protocol: proto, Slot: slotIdx, TxInstant: txInstant, Second: second}
}

// ErrSkipped is returned by Transmit when the transmit was deliberately
// skipped (invalid fix, busy or not-ready radio, already transmitted this
// second, on-ground throttle, or the tx instant not yet reached) rather
// than failing outright - the caller should simply call again on a later
// pass (spec §4.3 "the slot is skipped").
var ErrSkipped = errors.New("scheduler: transmit slot skipped")

// Transmit runs one second's worth of the scheduler's algorithmic core
// (spec §4.3-§4.4): given the planned instant, the current fix status, and
// an encoder for the latest ownship state, it decides whether to transmit
// now, skip, or allow a ground presence beacon under I5's eight-second
// exception.
//
// nowMs is the current monotonic clock reading at the moment Transmit is
// called. A call before tx_instant is skipped; any call at or after
// tx_instant transmits (once per plan second), however late it is - there
// is no bound on lateness and no skip when tx_instant has already passed.
func (s *Scheduler) Transmit(plan Plan, nowMs int64, fix FixStatus, encode Encoder) error {
	if !fix.Valid {
		return ErrSkipped
	}

	if s.haveLastTxSecond && s.lastTxSecond == plan.Second {
		return ErrSkipped // already transmitted this second (spec §4.3 "one own transmit instant per second")
	}

	if !fix.Airborne {
		if s.haveLastGroundTx && nowMs-s.lastGroundTxMs < onGroundTxIntervalMs {
			return ErrSkipped
		}
	}

	if int64(plan.TxInstant) > nowMs {
		return ErrSkipped // tx_instant hasn't arrived yet
	}

	frame := encode()
	err := s.driver.Transmit(frame)
	if err != nil {
		if errors.Is(err, radio.ErrBusy) || errors.Is(err, radio.ErrNotReady) {
			return ErrSkipped
		}
		return err
	}

	s.lastTxSecond = plan.Second
	s.haveLastTxSecond = true
	if !fix.Airborne {
		s.lastGroundTxMs = nowMs
		s.haveLastGroundTx = true
	}
	return nil
}

// PollReceive drains one decoded-or-not frame from the radio, returning
// ok=false when nothing is pending.  The scheduler itself does no
// decoding; it hands the raw bytes to whatever decoder the caller wires up
// between pps_ms and tx_instant (spec §4.3 "between pps_ms and tx_instant,
// the radio is kept in receive").
func (s *Scheduler) PollReceive() (radio.Received, bool) {
	if !s.driver.ReceiveReady() {
		return radio.Received{}, false
	}
	return s.driver.ReadPacket()
}
