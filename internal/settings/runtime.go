package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// RuntimeConfig is the JSON-backed configuration read at startup, in the
// same shape as the teacher's jsonconfig.Config: a struct of JSON-tagged
// fields plus an unexported reference to the event log so every method can
// log without the caller threading a logger through every call.
type RuntimeConfig struct {
	// SerialDevices lists candidate GNSS serial device names to try, in
	// order - first one that opens wins, same search jsonconfig performs
	// for its NTRIP input files.
	SerialDevices []string `json:"serial_devices"`

	// BaudRates is the descending sweep tried on probe failure (spec §6).
	BaudRates []int `json:"baud_rates"`

	// ChipPreference orders GNSS dialect adapters to probe, e.g.
	// ["ublox", "sony", "mediatek", "at65", "goke"].
	ChipPreference []string `json:"chip_preference"`

	// IgnoreAddress is the 24-bit address always dropped from the traffic
	// table (I1).
	IgnoreAddress uint32 `json:"ignore_address"`

	// LandedOutRelay enables relaying another aircraft's packet and
	// accepting an own-address echo as a relay rather than a collision (I3).
	LandedOutRelay bool `json:"landed_out_relay"`

	// AltProtocol, if non-empty, names a second codec to alternate with on
	// successive seconds (spec §4.3 dual-protocol operation).
	AltProtocol string `json:"alt_protocol"`

	// EventLogDirectory is where the daily event log is written.
	EventLogDirectory string `json:"event_log_directory"`

	// RecordMessages enables the optional raw packet trace log.
	RecordMessages bool `json:"record_messages"`

	// MessageLogDirectory is where the packet trace log is written.
	MessageLogDirectory string `json:"message_log_directory"`

	// ProbeTimeoutMillis bounds each chip probe attempt (spec §5, 2-3 s).
	ProbeTimeoutMillis int `json:"probe_timeout_millis"`

	// ConnectRetrySeconds is how long to sleep between attempts to open a
	// serial device once all candidates have failed.
	ConnectRetrySeconds int `json:"connect_retry_seconds"`

	systemLog *log.Logger
}

// DefaultRuntimeConfig returns sane defaults: the baud list is the
// descending sweep from 115200 down to 9600 (spec §6); there is no
// separate primary or fallback baud setting.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		SerialDevices:       []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyUSB0"},
		BaudRates:           []int{115200, 57600, 38400, 19200, 9600},
		ChipPreference:      []string{"ublox", "sony", "mediatek", "at65", "goke"},
		EventLogDirectory:   ".",
		MessageLogDirectory: ".",
		ProbeTimeoutMillis:  3000,
		ConnectRetrySeconds: 2,
	}
}

// LoadRuntimeConfigFromFile reads the JSON runtime config from a file.  If
// the file can't be opened or parsed, the error is returned and the caller
// falls back to DefaultRuntimeConfig itself, as jsonconfig's caller does
// with GetJSONConfigFromFile's error; fields the file leaves out keep their
// defaults.
func LoadRuntimeConfigFromFile(path string, systemLog *log.Logger) (*RuntimeConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRuntimeConfig(f, systemLog)
}

// LoadRuntimeConfig parses the JSON runtime config from r.
func LoadRuntimeConfig(r io.Reader, systemLog *log.Logger) (*RuntimeConfig, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		logOrDefault(systemLog, fmt.Sprintf("cannot read runtime config: %v", err))
		return nil, err
	}

	cfg := DefaultRuntimeConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		logOrDefault(systemLog, fmt.Sprintf("cannot parse runtime config: %v", err))
		return nil, err
	}
	cfg.systemLog = systemLog
	return cfg, nil
}

// WaitAndConnectToSerial tries repeatedly to open one of the configured
// serial devices, sleeping ConnectRetrySeconds between sweeps, matching
// jsonconfig's WaitAndConnectToInput retry loop.  open is injected so tests
// don't need a real serial port.
func (c *RuntimeConfig) WaitAndConnectToSerial(open func(name string) (io.ReadWriteCloser, error)) io.ReadWriteCloser {
	sleep := time.Duration(c.ConnectRetrySeconds) * time.Second
	loggedFailure := false
	for {
		for _, name := range c.SerialDevices {
			conn, err := open(name)
			if err == nil {
				c.log(fmt.Sprintf("connected to GNSS source %s", name))
				return conn
			}
		}
		if !loggedFailure {
			c.log("failed to connect to any configured GNSS device, retrying")
			loggedFailure = true
		}
		time.Sleep(sleep)
	}
}

func (c *RuntimeConfig) log(msg string) {
	logOrDefault(c.systemLog, msg)
}

func logOrDefault(logger *log.Logger, msg string) {
	if logger != nil {
		logger.Println(msg)
	} else {
		log.Println(msg)
	}
}
