package settings

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordWriteThenLoadRoundTrips(t *testing.T) {
	rec := NewDefaults()
	rec.AircraftID = 0xabcdef
	rec.IgnoreID = 0x010203
	rec.LeapSeconds = 18

	var buf bytes.Buffer
	require.NoError(t, rec.Write(&buf))

	loaded, replaced := Load(&buf, nil, nil)
	assert.False(t, replaced)
	assert.Equal(t, rec.AircraftID, loaded.AircraftID)
	assert.Equal(t, rec.IgnoreID, loaded.IgnoreID)
	assert.Equal(t, rec.LeapSeconds, loaded.LeapSeconds)
	assert.Equal(t, currentVersion, loaded.Version)
}

func TestLoadBadMagicLoadsDefaults(t *testing.T) {
	buf := bytes.NewBufferString("garbage,1\r\n")
	rec, replaced := Load(buf, nil, nil)
	require.True(t, replaced)
	assert.Equal(t, NewDefaults().LeapSeconds, rec.LeapSeconds)
}

func TestLoadBadVersionLoadsDefaults(t *testing.T) {
	var buf bytes.Buffer
	rec := NewDefaults()
	rec.Version = currentVersion - 1
	require.NoError(t, rec.Write(&buf))

	loaded, replaced := Load(&buf, nil, nil)
	require.True(t, replaced)
	assert.Equal(t, currentVersion, loaded.Version)
}

func TestLoadPreservesUnknownTrailingFields(t *testing.T) {
	var buf bytes.Buffer
	rec := NewDefaults()
	require.NoError(t, rec.Write(&buf))
	buf.WriteString("future_field,42\r\n")

	loaded, replaced := Load(&buf, nil, nil)
	require.False(t, replaced)
	require.Len(t, loaded.unknownLines, 1)
	assert.Equal(t, "future_field,42", loaded.unknownLines[0])

	var rewritten bytes.Buffer
	require.NoError(t, loaded.Write(&rewritten))
	assert.Contains(t, rewritten.String(), "future_field,42")
}
