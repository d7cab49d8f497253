package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/goblimey/go-tools/dailylogger"
	"github.com/softrf-go/adslbeacon/internal/clockutil"
)

// FrameArchive is an io.Writer that records encoded/decoded wire frames
// (spec §6 "packet trace log") to a daily-rotated file, going quiet for a
// few seconds around midnight so a frame arriving right at the rollover
// isn't split across two days, and moving each completed day's file into a
// "frames.ready" subdirectory for a downstream process to pick up.
//
// Adapted from the RTCM archive writer this project's teacher used to hand
// finished daily logs to a RINEX conversion step; here it archives beacon
// frames instead of RTCM3 messages.
type FrameArchive struct {
	clock        clockutil.Clock
	logWriter    *dailylogger.Writer
	pushing      bool
	logDirectory string
}

const (
	startOfDayHour, startOfDayMinute, startOfDaySecond = 0, 0, 5
	endOfDayHour, endOfDayMinute, endOfDaySecond        = 23, 59, 55
)

const subDirectoryForOldArchives = "frames.ready"

var _ io.Writer = (*FrameArchive)(nil)

// NewFrameArchive creates a FrameArchive rooted at logDirectory, using the
// real system clock, and starts its background day-boundary and
// old-file-pushing goroutines.
func NewFrameArchive(logDirectory string) *FrameArchive {
	archive := newFrameArchive(clockutil.NewSystemClock(), logDirectory)
	go archive.logControl()
	go archive.logPusher()
	return archive
}

// newFrameArchive is the clock-injectable constructor tests use.
func newFrameArchive(clock clockutil.Clock, logDirectory string) *FrameArchive {
	return &FrameArchive{
		clock:        clock,
		logWriter:    dailylogger.New(logDirectory, "frames.", ".adsl"),
		pushing:      true,
		logDirectory: logDirectory,
	}
}

// Write archives buffer, unless it falls in the quiet window around
// midnight, in which case it's silently dropped (the caller sees a
// successful write either way - frame archiving is best-effort).
func (a *FrameArchive) Write(buffer []byte) (n int, err error) {
	if shouldBeLogging(a.clock.Now()) {
		a.pushing = true
		return a.logWriter.Write(buffer)
	}
	a.pushing = false
	return len(buffer), nil
}

// logControl disables logging at the end of each day and re-enables it at
// the start of the next, running forever in its own goroutine.
func (a *FrameArchive) logControl() {
	for {
		now := time.Now()
		if shouldBeLogging(now) {
			time.Sleep(time.Until(getEndOfDay(now)))
			a.logWriter.DisableLogging()
		} else {
			start := getStartOfDay(now)
			if !now.Before(start) {
				start = getStartOfDay(now.AddDate(0, 0, 1))
			}
			time.Sleep(time.Until(start))
			a.logWriter.EnableLogging()
		}
	}
}

// logPusher wakes at each midnight and moves the previous day's archive
// files into subDirectoryForOldArchives, running forever in its own
// goroutine.
func (a *FrameArchive) logPusher() {
	for {
		now := time.Now()
		time.Sleep(time.Until(getNextMidnight(now)))
		go pushOldArchives(a.logDirectory, time.Now())
		time.Sleep(1 * time.Second) // guard against waking slightly early
	}
}

func getEndOfDay(now time.Time) time.Time {
	loc := now.Location()
	return time.Date(now.Year(), now.Month(), now.Day(), endOfDayHour, endOfDayMinute, endOfDaySecond, 0, loc)
}

func getStartOfDay(now time.Time) time.Time {
	loc := now.Location()
	return time.Date(now.Year(), now.Month(), now.Day(), startOfDayHour, startOfDayMinute, startOfDaySecond, 0, loc)
}

func getNextMidnight(now time.Time) time.Time {
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, now.Location())
}

func shouldBeLogging(now time.Time) bool {
	return getStartOfDay(now).Before(now) && getEndOfDay(now).After(now)
}

func todaysArchiveFilename(now time.Time) string {
	return fmt.Sprintf("frames.%04d-%02d-%02d.adsl", now.Year(), int(now.Month()), now.Day())
}

func pushOldArchives(logDirectory string, now time.Time) {
	todays := todaysArchiveFilename(now)
	entries, err := os.ReadDir(logDirectory)
	if err != nil {
		log.Printf("pushOldArchives: cannot read %s: %v", logDirectory, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == todays {
			continue
		}
		pushArchiveFile(logDirectory, entry.Name())
	}
}

func pushArchiveFile(logDirectory, filename string) {
	subdirectory := logDirectory + "/" + subDirectoryForOldArchives
	if err := os.MkdirAll(subdirectory, os.ModePerm); err != nil {
		log.Printf("pushArchiveFile: cannot create %s: %v", subdirectory, err)
		return
	}
	src := logDirectory + "/" + filename
	dst := subdirectory + "/" + filename
	if err := os.Rename(src, dst); err != nil {
		log.Printf("pushArchiveFile: failed to move %s to %s: %v", filename, dst, err)
	}
}
