package codec

// crc24 implements the 24-bit CRC the protocol descriptor names as
// ADSL_CRC_TYPE (spec §4.4 step 3).  It's built the same table-driven way
// the teacher computes RTCM's CRC-24Q (github.com/goblimey/go-crc24q,
// exercised in rtcm/handler.go and rtcm/message1005) - Hash/HiByte/MiByte/
// LoByte - but over ADS-L's own polynomial, which the ADS-L SRD860 issue 1
// descriptor defines distinctly from CRC-24Q; see DESIGN.md for why the
// upstream go-crc24q package itself isn't reusable verbatim here.
const crc24Polynomial = 0x5D6DCB // ADS-L issue 1 generator polynomial.
const crc24Init = 0xB704CE

var crc24Table [256]uint32

func init() {
	for i := 0; i < 256; i++ {
		crc := uint32(i) << 16
		for bit := 0; bit < 8; bit++ {
			if crc&0x800000 != 0 {
				crc = (crc << 1) ^ crc24Polynomial
			} else {
				crc <<= 1
			}
		}
		crc24Table[i] = crc & 0xFFFFFF
	}
}

// crc24Hash computes the 24-bit CRC of data.
func crc24Hash(data []byte) uint32 {
	crc := uint32(crc24Init)
	for _, b := range data {
		idx := byte((crc>>16)&0xFF) ^ b
		crc = ((crc << 8) ^ crc24Table[idx]) & 0xFFFFFF
	}
	return crc
}

func crc24HiByte(crc uint32) byte { return byte(crc >> 16) }
func crc24MiByte(crc uint32) byte { return byte(crc >> 8) }
func crc24LoByte(crc uint32) byte { return byte(crc) }
