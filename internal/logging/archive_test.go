package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/softrf-go/adslbeacon/internal/clockutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldBeLoggingExcludesMidnightWindow(t *testing.T) {
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)
	assert.False(t, shouldBeLogging(day.Add(2*time.Second)))
	assert.True(t, shouldBeLogging(day.Add(10*time.Second)))
	assert.True(t, shouldBeLogging(day.Add(23*time.Hour+59*time.Minute+50*time.Second)))
	assert.False(t, shouldBeLogging(day.Add(23*time.Hour+59*time.Minute+58*time.Second)))
}

func TestFrameArchiveWritesDuringTheDayAndDropsNearMidnight(t *testing.T) {
	dir := t.TempDir()
	daytime := time.Date(2026, 7, 29, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 7, 29, 0, 0, 1, 0, time.UTC)

	clock := clockutil.NewSteppingClock([]time.Time{daytime})
	archive := newFrameArchive(clock, dir)

	n, err := archive.Write([]byte{0xAB, 0xCD})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	clock.SetTimes([]time.Time{midnight})
	n, err = archive.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	assert.Equal(t, 3, n) // silently dropped, but Write still reports success
	assert.False(t, archive.pushing)
}

func TestPushOldArchivesMovesEverythingButToday(t *testing.T) {
	dir := t.TempDir()
	today := time.Date(2026, 7, 29, 0, 0, 1, 0, time.UTC)

	require.NoError(t, os.WriteFile(filepath.Join(dir, todaysArchiveFilename(today)), []byte("today"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frames.2026-07-28.adsl"), []byte("yesterday"), 0o644))

	pushOldArchives(dir, today)

	_, err := os.Stat(filepath.Join(dir, todaysArchiveFilename(today)))
	require.NoError(t, err, "today's file should stay put")

	_, err = os.Stat(filepath.Join(dir, subDirectoryForOldArchives, "frames.2026-07-28.adsl"))
	require.NoError(t, err, "yesterday's file should have been pushed")
}
