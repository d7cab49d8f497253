// Package radio defines the capability contract the scheduler consumes
// (spec §4.6) and a handful of named stub variants so tests and higher
// layers can select a concrete radio without the scheduler knowing about
// any of them.
package radio

import "errors"

// Sentinel errors the scheduler handles specially (spec §4.6): Busy and
// NotReady cause the current slot to be skipped. HardwareFault is returned
// by the scheduler's Transmit unchanged; the pipeline discards it and
// carries on, and nothing resets the driver.
var (
	ErrBusy         = errors.New("radio: busy")
	ErrNotReady     = errors.New("radio: not ready")
	ErrHardwareFault = errors.New("radio: hardware fault")
)

// Received is one successfully read frame plus its link-layer metadata.
type Received struct {
	Data []byte
	RSSI int
	CRCOK bool
}

// Driver is the abstract capability set the scheduler depends on (spec
// §4.6).  Transmit is non-blocking and must return ErrBusy immediately if
// a previous transmit is still in flight.
type Driver interface {
	SetChannel(freqHz uint64) error
	Transmit(frame []byte) error
	ReceiveReady() bool
	ReadPacket() (Received, bool)
	Shutdown() error
}

// Variant names the concrete radio chips the driver may be built for (spec
// §4.6).  Not part of the scheduler's algorithmic core - named here only so
// tests and configuration can refer to them without a cyclic import.
type Variant string

const (
	VariantNRF905 Variant = "nrf905"
	VariantSX1276 Variant = "sx1276"
	VariantSX1262 Variant = "sx1262"
	VariantUATM   Variant = "uatm"
	VariantCC13XX Variant = "cc13xx"
)
