// Package scanner watches the shared wideband IQ stream for carriers that
// aren't already covered by a channel, using a Welch-method power
// spectral density estimate, and registers new channels when one is
// found above a bootstrap noise threshold.
package scanner

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/doismellburning/narrowcast/internal/config"
	"github.com/doismellburning/narrowcast/internal/rflog"
)

// Registry is the minimal surface the scanner needs to add a newly
// discovered channel; internal/dispatch's registry satisfies it.
type Registry interface {
	// Covers reports whether freqHz already falls inside an existing
	// channel's span.
	Covers(freqHz int64) bool
	// Add registers a new channel at freqHz.
	Add(freqHz int64)
}

// Scanner computes a Welch PSD over each batch of wideband samples,
// bootstraps a noise threshold from the first NNoise batches (keeping
// only the statistics of the very last one, as the original did), and
// thereafter reports any peak bin clearing the threshold as a candidate
// new channel.
type Scanner struct {
	cfg      config.Config
	registry Registry

	segment int
	fftLen  int

	noiseSamples int
	mean, std    float64
	threshold    float64
	bootstrapped bool

	onNewFreq func(freqHz int64, powerDB float64)
}

// New builds a scanner for the given run configuration and registry.
// onNewFreq, if non-nil, is called for every candidate frequency found
// above threshold, matching the original's out_freqs.txt log line.
func New(cfg config.Config, registry Registry, onNewFreq func(int64, float64)) *Scanner {
	return &Scanner{
		cfg:       cfg,
		registry:  registry,
		segment:   config.WelchSegment(),
		fftLen:    config.WelchFFTLen(),
		onNewFreq: onNewFreq,
	}
}

// Ingest runs one batch through the Welch PSD estimator. While bootstrap
// is still collecting noise snapshots, the batch only contributes to
// threshold learning (and, per the preserved quirk, only the final
// snapshot's statistics survive). Once bootstrapped, every batch is
// scanned for a new candidate peak.
func (s *Scanner) Ingest(batch []complex128) {
	freqs, power := s.welchPSD(batch)

	if !s.bootstrapped {
		s.mean, s.std = meanStd(power)
		s.noiseSamples++
		if s.noiseSamples >= config.NNoise {
			s.threshold = s.mean + config.ThreshFactor*s.std
			s.bootstrapped = true
			rflog.Info("scanner bootstrap complete", "threshold", s.threshold)
		}
		return
	}

	peakIdx, peakPower := argmax(power)
	if peakPower < s.threshold {
		return
	}

	freqHz := int64(freqs[peakIdx])
	if s.registry.Covers(freqHz) {
		return
	}

	if s.onNewFreq != nil {
		s.onNewFreq(freqHz, peakPower)
	}
	s.registry.Add(freqHz)
}

// welchPSD computes a double-sided, log-power Welch periodogram over
// batch, non-overlapping segments of s.segment samples zero-padded to
// s.fftLen, shifted so bin frequencies are absolute (relative to the
// capture center).
func (s *Scanner) welchPSD(batch []complex128) (freqs []float64, power []float64) {
	power = make([]float64, s.fftLen)
	segments := 0

	for off := 0; off+s.segment <= len(batch); off += s.segment {
		windowed := make([]complex128, s.fftLen)
		for j := 0; j < s.segment; j++ {
			w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(j)/float64(s.segment-1))
			windowed[j] = batch[off+j] * complex(w, 0)
		}
		spectrum := fft.FFT(windowed)
		for j, c := range spectrum {
			power[j] += cmplx.Abs(c) * cmplx.Abs(c)
		}
		segments++
	}

	if segments == 0 {
		segments = 1
	}
	binHz := float64(s.cfg.InputRate) / float64(s.fftLen)
	freqs = make([]float64, s.fftLen)
	for j := range power {
		power[j] = math.Log(power[j]/float64(segments) + 1e-300)

		bin := j
		if bin > s.fftLen/2 {
			bin -= s.fftLen
		}
		freqs[j] = float64(s.cfg.Center) + float64(bin)*binHz
	}
	return freqs, power
}

func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		std += (x - mean) * (x - mean)
	}
	std = math.Sqrt(std / float64(len(xs)))
	return mean, std
}

func argmax(xs []float64) (idx int, val float64) {
	val = math.Inf(-1)
	for i, x := range xs {
		if x > val {
			val = x
			idx = i
		}
	}
	return idx, val
}
