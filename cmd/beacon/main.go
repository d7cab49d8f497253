// Command beacon runs the collision-avoidance beacon's real-time core:
// GNSS ingest, slot-clock calibration, codec, scheduler, and traffic table,
// wired together from a settings file and a runtime config.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/softrf-go/adslbeacon/internal/clockutil"
	"github.com/softrf-go/adslbeacon/internal/codec"
	"github.com/softrf-go/adslbeacon/internal/gnss"
	"github.com/softrf-go/adslbeacon/internal/logging"
	"github.com/softrf-go/adslbeacon/internal/pipeline"
	"github.com/softrf-go/adslbeacon/internal/radio"
	"github.com/softrf-go/adslbeacon/internal/scheduler"
	"github.com/softrf-go/adslbeacon/internal/settings"
	"github.com/softrf-go/adslbeacon/internal/timebase"
	"github.com/softrf-go/adslbeacon/internal/traffic"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagSettingsPath string
	flagConfigPath   string
	flagLogDir       string
	flagAddress      uint32
	flagAircraftType string
)

func main() {
	root := &cobra.Command{
		Use:   "beacon",
		Short: "Run the ADS-L/Legacy collision-avoidance beacon",
		RunE:  run,
	}
	root.Flags().StringVar(&flagSettingsPath, "settings", "beacon.settings", "path to the versioned settings record")
	root.Flags().StringVar(&flagConfigPath, "config", "beacon.json", "path to the runtime JSON config")
	root.Flags().StringVar(&flagLogDir, "log-dir", "", "event log directory override")
	root.Flags().Uint32Var(&flagAddress, "address", 0, "ownship 24-bit address (0 = use settings file)")
	root.Flags().StringVar(&flagAircraftType, "aircraft-type", "glider", "ownship aircraft type")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	eventLog := logging.New(resolveLogDir(), "beacon.")
	defer eventLog.Stop()
	logger := eventLog.Logger()

	record, replaced := loadSettings(flagSettingsPath, logger)
	if replaced {
		logger.Printf("settings record replaced with defaults, rewriting %s", flagSettingsPath)
		rewriteSettings(flagSettingsPath, record, logger)
	}

	runtimeCfg, err := settings.LoadRuntimeConfigFromFile(flagConfigPath, logger)
	if err != nil {
		logger.Printf("falling back to default runtime config: %v", err)
		runtimeCfg = settings.DefaultRuntimeConfig()
	}

	address := flagAddress
	if address == 0 {
		address = record.AircraftID
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port, dialect, baud, err := connectGNSS(ctx, runtimeCfg, logger)
	if err != nil {
		return fmt.Errorf("beacon: could not connect to any GNSS receiver: %w", err)
	}
	defer port.Close()
	logger.Printf("GNSS chip %s identified at %d baud", dialect.ID(), baud)

	leap := timebase.NewLeapSecondsState(record.LeapSeconds)
	driver := radio.NewFake() // concrete hardware driver selection is deployment-specific
	cfg := pipeline.Config{
		Identity: codec.Identity{
			Address:      address,
			AddressType:  codec.AddressTypeRandom,
			AircraftType: parseAircraftType(flagAircraftType),
		},
		Driver:        driver,
		Primary:       scheduler.ADSLBaseline,
		ChipOffset:    timebase.OffsetNone,
		ChipLatency:   chipLatencyFor(dialect.ID()),
		TrafficFilter: traffic.Filter{OwnAddress: address, IgnoreAddress: record.IgnoreID, IsPrimaryProtocol: true},
		TableCapacity: 64,
		Trace:         frameTrace(runtimeCfg, logger),
	}

	clock := clockutil.NewMonotonicMillis()
	p := pipeline.New(cfg, leap, clock.Millis)

	runMainLoop(ctx, p, port, clock.Millis, logger)
	return nil
}

// frameTrace opens the optional packet trace archive when the runtime
// config asks for it, nil otherwise (pipeline.Config.Trace accepts nil).
func frameTrace(runtimeCfg *settings.RuntimeConfig, logger *log.Logger) io.Writer {
	if !runtimeCfg.RecordMessages {
		return nil
	}
	logger.Printf("recording frame trace in %s", runtimeCfg.MessageLogDirectory)
	return logging.NewFrameArchive(runtimeCfg.MessageLogDirectory)
}

func resolveLogDir() string {
	if flagLogDir != "" {
		return flagLogDir
	}
	return "."
}

func loadSettings(path string, logger *log.Logger) (*settings.Record, bool) {
	f, err := os.Open(path)
	if err != nil {
		return settings.NewDefaults(), true
	}
	defer f.Close()
	return settings.Load(f, nil, logger)
}

func rewriteSettings(path string, record *settings.Record, logger *log.Logger) {
	f, err := os.Create(path)
	if err != nil {
		logger.Printf("could not rewrite settings file %s: %v", path, err)
		return
	}
	defer f.Close()
	if err := record.Write(f); err != nil {
		logger.Printf("could not write settings record: %v", err)
	}
}

// connectGNSS fans out chip-dialect probes across a small set of candidate
// baud rates concurrently, bounded by a context deadline - a non-time-
// critical setup step, unlike the single-threaded main loop (spec §5).
func connectGNSS(ctx context.Context, runtimeCfg *settings.RuntimeConfig, logger *log.Logger) (*gnss.SerialPort, gnss.Dialect, int, error) {
	type result struct {
		port    *gnss.SerialPort
		dialect gnss.Dialect
		baud    int
	}
	results := make(chan result, len(gnss.BaudCandidates))

	probeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	g, gctx := errgroup.WithContext(probeCtx)
	for _, device := range runtimeCfg.SerialDevices {
		device := device
		for _, baud := range gnss.BaudCandidates {
			baud := baud
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return nil
				default:
				}
				port, err := gnss.OpenSerial(device, baud)
				if err != nil {
					return nil
				}
				now := func() int64 { return time.Now().UnixMilli() }
				dialect := gnss.OpenAt(port, now, gnss.AllDialects())
				if dialect == nil {
					port.Close()
					return nil
				}
				select {
				case results <- result{port, dialect, baud}:
				case <-gctx.Done():
					port.Close()
				}
				return nil
			})
		}
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case r := <-results:
		cancel()
		<-done
		return r.port, r.dialect, r.baud, nil
	case <-done:
		return nil, nil, 0, fmt.Errorf("no GNSS chip responded on any configured device/baud")
	}
}

func chipLatencyFor(id gnss.ChipID) timebase.ChipLatency {
	switch id {
	case gnss.ChipSonyCXD:
		return timebase.LatencySonyCXD
	case gnss.ChipUblox:
		return timebase.LatencyUbloxFam
	case gnss.ChipMediaTek:
		return timebase.LatencyMediaTek
	case gnss.ChipAT65L76K:
		return timebase.LatencyAT65L76K
	case gnss.ChipGoke:
		return timebase.LatencyGokeAir
	default:
		return timebase.LatencyUbloxFam
	}
}

func parseAircraftType(name string) codec.AircraftType {
	switch name {
	case "glider":
		return codec.AircraftTypeGlider
	case "towplane":
		return codec.AircraftTypeTowplane
	case "helicopter":
		return codec.AircraftTypeHelicopter
	case "powered":
		return codec.AircraftTypePoweredAircraft
	case "winch":
		return codec.AircraftTypeWinch
	default:
		return codec.AircraftTypeUnknown
	}
}

// runMainLoop is the single-threaded cooperative pass spec §5 requires:
// drain whatever GNSS bytes are available, then tick the pipeline, with no
// blocking I/O calls (the serial port's read timeout bounds Read itself).
// nowMillis must be the same monotonic clock the pipeline was built with.
func runMainLoop(ctx context.Context, p *pipeline.Pipeline, port io.Reader, nowMillis func() int64, logger *log.Logger) {
	buf := make([]byte, 256)
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Printf("shutting down: %v", ctx.Err())
			return
		case <-ticker.C:
			n, err := port.Read(buf)
			if err == nil {
				for i := 0; i < n; i++ {
					p.FeedNMEA(buf[i])
				}
			}
			p.Tick(nowMillis())
		}
	}
}
