package gnss

// at65L76K implements the Dialect contract for the AirTies AT65 / Quectel
// L76K family, which speaks a $PCAS/$PGKC command subset.
type at65L76K struct{}

func NewAT65L76K() Dialect { return at65L76K{} }

func (at65L76K) ID() ChipID          { return ChipAT65L76K }
func (at65L76K) GGALatencyMs() int64 { return 70 }
func (at65L76K) RMCLatencyMs() int64 { return 135 }

func (d at65L76K) Probe(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PCAS06,0*1B\r\n"))
	return responseWithinTimeout(port, []byte("$GPTXT"), nowMs)
}

func (d at65L76K) Setup(port Port) error {
	cmds := []string{
		"$PCAS03,1,0,0,0,1,0,0,0,0,0,,,0,0*02\r\n",
		"$PCAS11,3*1E\r\n",
	}
	for _, c := range cmds {
		if _, err := port.Write([]byte(c)); err != nil {
			return err
		}
	}
	return nil
}

func (d at65L76K) LoopTick(port Port, nowMs int64) {}

func (d at65L76K) Fini(port Port) error { return nil }

// AlmanacValid polls $PGKC (status query) and checks for the chip's
// almanac-ready marker in the reply (SPEC_FULL §9).
func (d at65L76K) AlmanacValid(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PGKC040*2F\r\n"))
	return responseWithinTimeout(port, []byte("$PGKC040"), nowMs)
}
