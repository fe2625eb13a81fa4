// Package mixer shifts a wideband complex baseband stream down to a
// channel's own zero IF by multiplying against a precomputed carrier
// table, the same way the original receiver's per-channel demodulator did.
package mixer

import "math"

// Mixer multiplies an input stream by a complex exponential at a fixed
// offset frequency, carrying the table phase across batches so the
// carrier stays continuous regardless of how samples are chunked.
type Mixer struct {
	table []complex128
	phase int
}

// New builds a mixer for the given channel offset (Hz, signed, relative
// to the capture center) sampled at sampleRate. period is the number of
// table entries in one full carrier cycle (InputRate/Step in the run
// configuration); the table is built to that length so the phase
// accumulator can wrap with a plain modulo.
func New(offsetHz float64, sampleRate float64, period int) *Mixer {
	table := make([]complex128, period)
	for i := range table {
		angle := -2 * math.Pi * offsetHz * float64(i) / sampleRate
		table[i] = complex(math.Cos(angle), math.Sin(angle))
	}
	return &Mixer{table: table}
}

// Feed multiplies in by the carrier, advancing and wrapping the phase
// accumulator, and returns a newly allocated output batch.
func (m *Mixer) Feed(in []complex128) []complex128 {
	out := make([]complex128, len(in))
	n := len(m.table)
	for i, x := range in {
		out[i] = x * m.table[m.phase]
		m.phase++
		if m.phase == n {
			m.phase = 0
		}
	}
	return out
}

// Phase reports the current table index, mostly useful for tests checking
// phase continuity (property P1) across simulated batch boundaries.
func (m *Mixer) Phase() int { return m.phase }
