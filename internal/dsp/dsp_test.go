package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGenLowpassUnityGainAtDC(t *testing.T) {
	taps := make([]float64, 63)
	require.NoError(t, GenLowpass(0.1, taps, WindowHamming))

	var sum float64
	for _, v := range taps {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGenLowpassRejectsTinyKernel(t *testing.T) {
	taps := make([]float64, 2)
	assert.Error(t, GenLowpass(0.1, taps, WindowHamming))
}

func TestGenBandpassUnityGainAtMidband(t *testing.T) {
	taps := make([]float64, 101)
	require.NoError(t, GenBandpass(0.1, 0.2, taps, WindowBlackman))
	assert.Len(t, taps, 101)

	center := 0.5 * float64(len(taps)-1)
	w := 2 * math.Pi * 0.15
	var gain float64
	for j, v := range taps {
		gain += v * math.Cos((float64(j)-center)*w)
	}
	assert.InDelta(t, 1.0, gain, 1e-9)
}

// TestDecimatorStreamingEquivalence checks property P2: decimating a
// stream in one call produces the same output as decimating it split
// across arbitrarily many smaller batches.
func TestDecimatorStreamingEquivalence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		m := rapid.IntRange(1, 8).Draw(rt, "m")
		n := rapid.IntRange(0, 200).Draw(rt, "n")
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = rapid.Float64().Draw(rt, "sample")
		}

		whole := NewDecimator(m).FeedReal(samples)

		split := NewDecimator(m)
		var batched []float64
		pos := 0
		for pos < len(samples) {
			chunk := rapid.IntRange(1, 5).Draw(rt, "chunk")
			if pos+chunk > len(samples) {
				chunk = len(samples) - pos
			}
			batched = append(batched, split.FeedReal(samples[pos:pos+chunk])...)
			pos += chunk
		}

		assert.Equal(t, whole, batched)
	})
}

func TestRealFIRPreservesDelayAcrossBatches(t *testing.T) {
	taps := make([]float64, 9)
	require.NoError(t, GenLowpass(0.2, taps, WindowHamming))

	whole := NewRealFIR(taps).Feed([]float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	split := NewRealFIR(taps)
	var batched []float64
	batched = append(batched, split.Feed([]float64{1, 0, 0})...)
	batched = append(batched, split.Feed([]float64{0, 0, 0, 0, 0, 0, 0})...)

	assert.Equal(t, whole, batched)
}
