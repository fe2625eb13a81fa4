package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// MaxFilterSize bounds the kernel length accepted by the generators below;
// anything past this is almost certainly a misconfiguration, not a real
// filter design.
const MaxFilterSize = 4096

// GenLowpass fills taps with a windowed-sinc lowpass kernel, fc expressed
// as a fraction of the sampling frequency, normalized for unity gain at DC.
func GenLowpass(fc float64, taps []float64, wtype WindowType) error {
	size := len(taps)
	if size < 3 || size > MaxFilterSize {
		return fmt.Errorf("dsp: filter size %d out of range [3, %d]", size, MaxFilterSize)
	}

	center := 0.5 * float64(size-1)
	for j := 0; j < size; j++ {
		var sinc float64
		d := float64(j) - center
		if d == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*d) / (math.Pi * d)
		}
		taps[j] = sinc * window(wtype, size, j)
	}

	var gain float64
	for _, t := range taps {
		gain += t
	}
	for j := range taps {
		taps[j] /= gain
	}
	return nil
}

// GenHighpass fills taps with a windowed-sinc highpass kernel at cutoff fc
// (as a fraction of the sampling frequency), built by spectrally inverting
// a matching lowpass kernel.
func GenHighpass(fc float64, taps []float64, wtype WindowType) error {
	if err := GenLowpass(fc, taps, wtype); err != nil {
		return err
	}
	for j := range taps {
		taps[j] = -taps[j]
	}
	taps[(len(taps)-1)/2] += 1
	return nil
}

// GenBandpass fills taps with a windowed-sinc bandpass kernel between f1
// and f2 (as fractions of the sampling frequency), normalized for unity
// gain at the passband midpoint.
func GenBandpass(f1, f2 float64, taps []float64, wtype WindowType) error {
	size := len(taps)
	if size < 3 || size > MaxFilterSize {
		return fmt.Errorf("dsp: filter size %d out of range [3, %d]", size, MaxFilterSize)
	}

	center := 0.5 * float64(size-1)
	for j := 0; j < size; j++ {
		var sinc float64
		d := float64(j) - center
		if d == 0 {
			sinc = 2 * (f2 - f1)
		} else {
			sinc = math.Sin(2*math.Pi*f2*d)/(math.Pi*d) - math.Sin(2*math.Pi*f1*d)/(math.Pi*d)
		}
		taps[j] = sinc * window(wtype, size, j)
	}

	w := 2 * math.Pi * (f1 + f2) / 2
	var gain float64
	for j, t := range taps {
		gain += t * math.Cos((float64(j)-center)*w)
	}
	for j := range taps {
		taps[j] /= gain
	}
	return nil
}

// RealFIR is a streaming real-valued FIR filter: a tap kernel plus the
// delay-line state needed to filter consecutive batches as one continuous
// stream.
type RealFIR struct {
	taps  []float64
	delay []float64
}

// NewRealFIR copies taps into a fresh filter with a zeroed delay line.
func NewRealFIR(taps []float64) *RealFIR {
	k := make([]float64, len(taps))
	copy(k, taps)
	return &RealFIR{taps: k, delay: make([]float64, len(taps))}
}

// Feed filters in place-equivalent fashion, returning a newly allocated
// output slice the same length as in. Delay-line state carries across
// calls so consecutive batches behave as one continuous stream.
func (f *RealFIR) Feed(in []float64) []float64 {
	out := make([]float64, len(in))
	n := len(f.taps)
	for i, x := range in {
		copy(f.delay, f.delay[1:])
		f.delay[n-1] = x

		var acc float64
		for j, t := range f.taps {
			acc += t * f.delay[n-1-j]
		}
		out[i] = acc
	}
	return out
}

// ComplexFIR is the complex-sample analogue of RealFIR, used to band-limit
// the mixed IQ stream ahead of decimation.
type ComplexFIR struct {
	taps  []float64
	delay []complex128
}

// NewComplexFIR copies real-valued taps into a complex-sample filter.
func NewComplexFIR(taps []float64) *ComplexFIR {
	k := make([]float64, len(taps))
	copy(k, taps)
	return &ComplexFIR{taps: k, delay: make([]complex128, len(taps))}
}

// Feed filters a batch of complex samples, preserving delay-line state
// across calls.
func (f *ComplexFIR) Feed(in []complex128) []complex128 {
	out := make([]complex128, len(in))
	n := len(f.taps)
	for i, x := range in {
		copy(f.delay, f.delay[1:])
		f.delay[n-1] = x

		var acc complex128
		for j, t := range f.taps {
			acc += complex(t, 0) * f.delay[n-1-j]
		}
		out[i] = acc
	}
	return out
}

// Magnitude is a small helper used by callers computing signal strength
// from a ComplexFIR's output without importing math/cmplx themselves.
func Magnitude(c complex128) float64 {
	return cmplx.Abs(c)
}
