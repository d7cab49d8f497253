package gnss

// goke implements the Dialect contract for Goke/Air530 chipsets, which
// share the $PMTK-alike command set but with distinct latency constants
// and a slower probe handshake.
type goke struct{}

func NewGoke() Dialect { return goke{} }

func (goke) ID() ChipID          { return ChipGoke }
func (goke) GGALatencyMs() int64 { return 185 }
func (goke) RMCLatencyMs() int64 { return 265 }

func (d goke) Probe(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PGGK000*2F\r\n"))
	return responseWithinTimeout(port, []byte("$GPTXT,AIR530"), nowMs)
}

func (d goke) Setup(port Port) error {
	_, err := port.Write([]byte("$PGGK001,1*2B\r\n"))
	return err
}

func (d goke) LoopTick(port Port, nowMs int64) {}

func (d goke) Fini(port Port) error { return nil }

// AlmanacValid polls the chip's sleep-prediction status sentence for its
// almanac-ready marker (SPEC_FULL §9).
func (d goke) AlmanacValid(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PGGK002*2C\r\n"))
	return responseWithinTimeout(port, []byte("$PGGK002"), nowMs)
}
