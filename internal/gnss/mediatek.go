package gnss

// mediaTek implements the Dialect contract for MediaTek (MTK) chipsets
// using the $PMTK sentence family.
type mediaTek struct{}

func NewMediaTek() Dialect { return mediaTek{} }

func (mediaTek) ID() ChipID          { return ChipMediaTek }
func (mediaTek) GGALatencyMs() int64 { return 48 }
func (mediaTek) RMCLatencyMs() int64 { return 175 }

func (d mediaTek) Probe(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PMTK605*31\r\n"))
	return responseWithinTimeout(port, []byte("$PMTK705"), nowMs)
}

func (d mediaTek) Setup(port Port) error {
	// PMTK314 selects which sentences are output (GGA+RMC only);
	// PMTK886 selects airborne <2g dynamic mode.
	cmds := []string{
		"$PMTK314,0,1,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0*28\r\n",
		"$PMTK886,3*2B\r\n",
	}
	for _, c := range cmds {
		if _, err := port.Write([]byte(c)); err != nil {
			return err
		}
	}
	return nil
}

func (d mediaTek) LoopTick(port Port, nowMs int64) {}

func (d mediaTek) Fini(port Port) error { return nil }

// AlmanacValid sends a $PMTK414 query-sentence-type poll and returns true
// as soon as a $PMTK414 reply arrives (SPEC_FULL §9); the fields of the
// reply are not inspected.
func (d mediaTek) AlmanacValid(port Port, nowMs func() int64) bool {
	port.Write([]byte("$PMTK414*33\r\n"))
	return responseWithinTimeout(port, []byte("$PMTK414"), nowMs)
}
