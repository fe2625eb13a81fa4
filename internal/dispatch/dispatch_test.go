package dispatch

import (
	"bytes"
	"testing"

	"github.com/doismellburning/narrowcast/internal/config"
	"github.com/doismellburning/narrowcast/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertHandlesEvenLength(t *testing.T) {
	cfg, err := config.New(100000000, 25000, 2, 10, nil, config.ModeFM, config.VoterStrength)
	require.NoError(t, err)

	reg := NewRegistry(config.ChannelSpacing)
	d := New(cfg, reg, nil)

	out := d.convert([]byte{127, 128, 0, 255})
	require.Len(t, out, 2)
	assert.False(t, d.haveOdd)
}

func TestConvertCarriesOddByteForward(t *testing.T) {
	cfg, err := config.New(100000000, 25000, 2, 10, nil, config.ModeFM, config.VoterStrength)
	require.NoError(t, err)

	reg := NewRegistry(config.ChannelSpacing)
	d := New(cfg, reg, nil)

	out := d.convert([]byte{127, 128, 9})
	assert.Len(t, out, 1)
	assert.True(t, d.haveOdd)

	out2 := d.convert([]byte{200})
	assert.Len(t, out2, 1)
	assert.False(t, d.haveOdd)
}

func TestRegistryCoversWithinSpacing(t *testing.T) {
	reg := NewRegistry(12500)
	reg.AddQueue(100000000)

	assert.True(t, reg.Covers(100000000))
	assert.True(t, reg.Covers(100006000))
	assert.False(t, reg.Covers(100100000))
}

// TestRegistryUniqueness checks property P6: adding the same frequency
// twice never produces two distinct queues for it.
func TestRegistryUniqueness(t *testing.T) {
	reg := NewRegistry(12500)
	q1 := reg.AddQueue(100000000)
	q2 := reg.AddQueue(100000000)
	assert.Same(t, q1, q2)
	assert.Len(t, reg.snapshot(), 1)
}

func TestRunFansOutToAllChannelsAndScanner(t *testing.T) {
	cfg, err := config.New(100000000, 25000, 2, 10, nil, config.ModeFM, config.VoterStrength)
	require.NoError(t, err)

	reg := NewRegistry(config.ChannelSpacing)
	ch1 := reg.AddQueue(100000000)
	scannerQ := queue.New[[]complex128]()

	d := New(cfg, reg, scannerQ)
	data := bytes.Repeat([]byte{100, 150}, cfg.IngestSize())

	require.NoError(t, d.Run(bytes.NewReader(data)))

	_, ok := ch1.Pop()
	assert.True(t, ok)
	_, ok = scannerQ.Pop()
	assert.True(t, ok)
}
