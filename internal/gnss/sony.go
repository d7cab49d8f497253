package gnss

// sonyCXD implements the Dialect contract for Sony CXD GNSS modules (spec
// §4.2/§4.7). Probe sends the Sony-specific version query, setup enables
// GGA+RMC, and AlmanacValid polls the chip's status/sleep-prediction frame
// (SPEC_FULL §9).
type sonyCXD struct{}

func NewSonyCXD() Dialect { return sonyCXD{} }

func (sonyCXD) ID() ChipID          { return ChipSonyCXD }
func (sonyCXD) GGALatencyMs() int64 { return 24 }
func (sonyCXD) RMCLatencyMs() int64 { return 38 }

func (d sonyCXD) Probe(port Port, nowMs func() int64) bool {
	port.Write([]byte("@VER\r\n"))
	return responseWithinTimeout(port, []byte("@VER"), nowMs)
}

func (d sonyCXD) Setup(port Port) error {
	_, err := port.Write([]byte("@GNS2\r\n@GSTP\r\n"))
	return err
}

func (d sonyCXD) LoopTick(port Port, nowMs int64) {}

func (d sonyCXD) Fini(port Port) error {
	_, err := port.Write([]byte("@GSTP\r\n"))
	return err
}

// AlmanacValid asks the chip's @SLP (sleep-prediction) status frame
// whether its almanac is current, per the original firmware's chip-dialect
// dispatch (SPEC_FULL §9).
func (d sonyCXD) AlmanacValid(port Port, nowMs func() int64) bool {
	port.Write([]byte("@SLP\r\n"))
	return responseWithinTimeout(port, []byte("@SLP,01"), nowMs)
}
