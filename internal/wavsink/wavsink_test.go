package wavsink

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenWriteCloseProducesValidRIFFHeader(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 162550000, false)

	require.NoError(t, s.Open(time.Now()))
	require.NoError(t, s.WriteSamples([]int16{1, -1, 100, -100}, time.Time{}))
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(filepath.Join(dir, "162550000"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, "162550000", entries[0].Name()))
	require.NoError(t, err)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))

	dataSize := binary.LittleEndian.Uint32(data[40:44])
	assert.Equal(t, uint32(8), dataSize)
	assert.Equal(t, len(data), 44+8)
}

func TestGenTimestampSentinelsAndLength(t *testing.T) {
	ts := GenTimestamp(time.Date(2026, 7, 31, 12, 5, 9, 0, time.UTC))
	require.Len(t, ts, 19)
	assert.Equal(t, int16(0x81), ts[0])
	assert.Equal(t, int16(0x82), ts[1])
	assert.Equal(t, int16(0x83), ts[len(ts)-2])
	assert.Equal(t, int16(0x84), ts[len(ts)-1])
	// year digit '2' -> 122+2 = 124
	assert.Equal(t, int16(124), ts[2])
}

func TestSinkNeverReopensClosedFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, 100000, false)

	require.NoError(t, s.Open(time.Now()))
	require.NoError(t, s.Close())
	assert.False(t, s.IsOpen())

	require.NoError(t, s.Open(time.Now().Add(time.Second)))
	assert.True(t, s.IsOpen())
}
