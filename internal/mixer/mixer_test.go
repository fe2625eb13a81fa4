package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestPhaseContinuityAcrossBatches checks property P1: splitting an input
// stream into arbitrary batches must produce the same output as feeding it
// in one call, because the table phase carries across Feed calls.
func TestPhaseContinuityAcrossBatches(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		period := rapid.IntRange(2, 50).Draw(rt, "period")
		n := rapid.IntRange(0, 300).Draw(rt, "n")
		samples := make([]complex128, n)
		for i := range samples {
			samples[i] = complex(rapid.Float64Range(-1, 1).Draw(rt, "re"), rapid.Float64Range(-1, 1).Draw(rt, "im"))
		}

		whole := New(1000, 25000, period).Feed(samples)

		m := New(1000, 25000, period)
		var batched []complex128
		pos := 0
		for pos < len(samples) {
			chunk := rapid.IntRange(1, 7).Draw(rt, "chunk")
			if pos+chunk > len(samples) {
				chunk = len(samples) - pos
			}
			batched = append(batched, m.Feed(samples[pos:pos+chunk])...)
			pos += chunk
		}

		assert.InDeltaSlice(t, complexToFloats(whole), complexToFloats(batched), 1e-9)
	})
}

func complexToFloats(cs []complex128) []float64 {
	out := make([]float64, 0, len(cs)*2)
	for _, c := range cs {
		out = append(out, real(c), imag(c))
	}
	return out
}

func TestPhaseWrapsAtPeriod(t *testing.T) {
	m := New(500, 10000, 4)
	in := make([]complex128, 10)
	for i := range in {
		in[i] = 1
	}
	m.Feed(in)
	assert.Equal(t, 10%4, m.Phase())
}
