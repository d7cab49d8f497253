// Package logging sets up the pipeline's event log.  It follows the same
// pattern the rtcmlogger command uses: a single *log.Logger decorated with
// log.LstdFlags|log.Lshortfile, backed by a datestamped, auto-rotating file
// so that the beacon can run unattended for weeks without an external log
// rotator.  A cron job - never anything on the main loop's 20 ms budget -
// rolls the file over at local midnight.
package logging

import (
	"io"
	"log"

	"github.com/goblimey/go-tools/dailylogger"
	"github.com/goblimey/go-tools/switchWriter"
	"github.com/robfig/cron/v3"
)

// Logger is the event log used throughout the pipeline.  nil is a valid
// value everywhere it's accepted: components fall back to the standard
// library's default logger, exactly as jsonconfig.Config does with its
// systemLog field.
type Logger = log.Logger

// EventLog wraps the daily event logger plus the cron job that keeps it
// rolling over at midnight.
type EventLog struct {
	logger *log.Logger
	writer *switchWriter.Writer
	cron   *cron.Cron
}

// New creates an event log that writes to "<dir>/<prefix><date>.log",
// rolling over automatically at midnight.  Pass dir="." and prefix="beacon."
// for the default layout ("./beacon.YYYY-MM-DD.log").
func New(dir, prefix string) *EventLog {
	daily := dailylogger.New(dir, prefix, ".log")
	sw := switchWriter.New()
	sw.SwitchTo(daily)

	logger := log.New(sw, "", log.LstdFlags|log.Lshortfile|log.Lmicroseconds)

	c := cron.New(cron.WithSeconds())
	// Re-point the switch writer at a fresh file at one second past
	// midnight, mirroring rtcmlogger's end-of-day behaviour for its RTCM
	// log, except here it's the event log, not the packet trace.
	c.AddFunc("1 0 0 * * *", func() {
		sw.SwitchTo(dailylogger.New(dir, prefix, ".log"))
	})
	c.Start()

	return &EventLog{logger: logger, writer: sw, cron: c}
}

// Logger returns the *log.Logger to pass to pipeline components.
func (e *EventLog) Logger() *log.Logger {
	return e.logger
}

// Stop stops the rollover cron job.  Safe to call on a nil *EventLog.
func (e *EventLog) Stop() {
	if e == nil || e.cron == nil {
		return
	}
	e.cron.Stop()
}

// Discard is a convenience *log.Logger that throws everything away, used by
// components under test that don't want log noise.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
