package gnss

import (
	"time"

	"go.bug.st/serial"
)

// SerialPort adapts go.bug.st/serial's Port to the gnss.Port contract used
// by dialect probes and setup commands.
type SerialPort struct {
	port    serial.Port
	pending []byte
}

// OpenSerial opens name at baud, 8N1, matching the GNSS chip's default wire
// configuration (spec §6).
func OpenSerial(name string, baud int) (*SerialPort, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(50 * time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}
	return &SerialPort{port: port}, nil
}

// SetBaud reconfigures the open port's baud rate in place, used by
// SweepBaud between probe attempts.
func (s *SerialPort) SetBaud(baud int) error {
	return s.port.SetMode(&serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Available reports whether at least one byte is likely waiting by
// attempting a zero-wait peek: go.bug.st/serial has no direct "bytes
// available" query, so this issues a 1-byte non-blocking-equivalent read
// against the short read timeout configured in OpenSerial and buffers any
// byte it gets for the following Read call.
func (s *SerialPort) Available() int {
	if s.pending != nil {
		return len(s.pending)
	}
	buf := make([]byte, 1)
	n, err := s.port.Read(buf)
	if err != nil || n == 0 {
		return 0
	}
	s.pending = buf[:n]
	return len(s.pending)
}

func (s *SerialPort) Read(p []byte) (int, error) {
	if s.pending != nil {
		n := copy(p, s.pending)
		s.pending = nil
		return n, nil
	}
	return s.port.Read(p)
}

func (s *SerialPort) Close() error {
	return s.port.Close()
}
