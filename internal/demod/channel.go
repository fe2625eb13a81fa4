// Package demod runs one channel's full receive chain: mix down to zero
// IF, band-limit and decimate to IF rate, discriminate (FM) or envelope
// detect (AM), gate through squelch, filter/decimate to audio rate,
// DC-block, clip, and hand PCM16 blocks to a wavsink.
package demod

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/doismellburning/narrowcast/internal/config"
	"github.com/doismellburning/narrowcast/internal/dsp"
	"github.com/doismellburning/narrowcast/internal/mixer"
	"github.com/doismellburning/narrowcast/internal/rflog"
	"github.com/doismellburning/narrowcast/internal/squelch"
	"github.com/doismellburning/narrowcast/internal/wavsink"
)

// displayEvery throttles the -e strength diagnostic to roughly once every
// 25 batches, matching the original recorder's display_count behavior
// rather than logging every single batch.
const displayEvery = 25

// Sink is the minimal surface a demod.Channel needs from its output; it
// is satisfied by *wavsink.Sink, kept as an interface so tests can stub it.
type Sink interface {
	Open(now time.Time) error
	WriteSamples(samples []int16, timestampAt time.Time) error
	Close() error
	IsOpen() bool
}

// Channel owns every stage of one frequency's receive chain and the
// squelch/sink state gating its recorded output.
type Channel struct {
	Freq int64

	mixer      *mixer.Mixer
	ifFilter   *dsp.ComplexFIR
	ifDecim    *dsp.Decimator
	audFilter  *dsp.RealFIR
	audDecim   *dsp.Decimator
	dcFilter   *dsp.RealFIR
	engine     *squelch.Engine
	sink       Sink
	mode       config.Mode
	devToSig   float64
	lastIF     complex128
	batchCount int
	verbose    bool
}

// New builds a channel for freqHz inside a run with the given cfg,
// mixing down from the capture center, and writing gated audio to sink.
func New(cfg config.Config, freqHz int64, sink Sink) *Channel {
	offset := float64(freqHz - cfg.Center)

	ifTaps := make([]float64, 63)
	_ = dsp.GenLowpass(float64(cfg.IFBandwidth)/2/float64(config.IFRate), ifTaps, dsp.WindowHamming)

	audioDecimFactor := config.IFRate / config.AudioRate
	audTaps := make([]float64, 31)
	_ = dsp.GenLowpass(float64(config.AudioBandwidth)/float64(config.IFRate), audTaps, dsp.WindowHamming)

	dcTaps := make([]float64, 127)
	_ = dsp.GenHighpass(100.0/float64(config.AudioRate), dcTaps, dsp.WindowHamming)

	var voter squelch.Voter
	if cfg.Voter == config.VoterAutocorr {
		voter = squelch.NewAutocorrVoter(config.ThresholdAC)
	} else {
		voter = squelch.NewStrengthVoter(config.ThresholdSNR)
	}

	return &Channel{
		Freq:      freqHz,
		mixer:     mixer.New(offset, float64(cfg.InputRate), cfg.IFPeriod()),
		ifFilter:  dsp.NewComplexFIR(ifTaps),
		ifDecim:   dsp.NewDecimator(cfg.InputRate / config.IFRate),
		audFilter: dsp.NewRealFIR(audTaps),
		audDecim:  dsp.NewDecimator(audioDecimFactor),
		dcFilter:  dsp.NewRealFIR(dcTaps),
		engine:    squelch.NewEngine(voter, config.HistLow, config.HistHigh),
		sink:      sink,
		mode:      cfg.Mode,
		devToSig:  cfg.DeviationToSignal(),
		verbose:   cfg.Verbose,
	}
}

// Ingest runs one batch of wideband complex samples through the full
// chain, opening/writing/closing the sink as squelch dictates.
func (c *Channel) Ingest(batch []complex128) error {
	mixed := c.mixer.Feed(batch)
	filtered := c.ifFilter.Feed(mixed)
	ifSamples := c.ifDecim.FeedComplex(filtered)
	if len(ifSamples) == 0 {
		return nil
	}

	strengthLinear := meanAbs(ifSamples)
	strength := dbfsOfLinear(strengthLinear)

	var discriminated []float64
	switch c.mode {
	case config.ModeAM:
		discriminated = c.detectAM(ifSamples, strengthLinear)
	default:
		discriminated = c.detectFM(ifSamples)
	}

	c.batchCount++
	if c.verbose && c.batchCount%displayEvery == 0 {
		rflog.Channel(c.Freq).Debug("signal", "dbfs", strength)
	}

	decision := c.engine.Process(strength, discriminated)

	for _, block := range decision.Emit {
		audio := c.audFilter.Feed(block)
		audio = c.audDecim.FeedReal(audio)
		audio = c.dcFilter.Feed(audio)
		pcm := toPCM16(audio)

		if len(pcm) == 0 {
			continue
		}
		if err := c.sink.Open(time.Now()); err != nil {
			return err
		}
		if err := c.sink.WriteSamples(pcm, time.Now()); err != nil {
			return err
		}
	}

	if decision.JustClosed && c.sink.IsOpen() {
		if err := c.sink.Close(); err != nil {
			return err
		}
	}

	return nil
}

// detectFM applies a simple one-sample-delay phase discriminator scaled
// by the configured deviation-to-signal factor.
func (c *Channel) detectFM(in []complex128) []float64 {
	out := make([]float64, len(in))
	prev := c.lastIF
	for i, x := range in {
		d := x * cmplx.Conj(prev)
		out[i] = math.Atan2(imag(d), real(d)) * c.devToSig
		prev = x
	}
	c.lastIF = prev
	return out
}

// detectAM applies magnitude (envelope) detection to every sample of the
// batch. Only the previous batch's carried-over IF sample, which the FM
// path consumes as its one-sample discriminator delay, is left out, so the
// two paths' block lengths stay aligned. Output is scaled by
// 0.25/strength: most of an AM carrier's power comes from the unmodulated
// tone itself, so strength doubles as a crude AGC factor.
func (c *Channel) detectAM(in []complex128, strength float64) []float64 {
	if len(in) == 0 {
		return nil
	}
	scale := 0.0
	if strength > 0 {
		scale = 0.25 / strength
	}
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = cmplx.Abs(x) * scale
	}
	c.lastIF = in[len(in)-1]
	return out
}

// toPCM16 scales and clips floating-point audio to int16 sample range.
func toPCM16(in []float64) []int16 {
	out := make([]int16, len(in))
	for i, x := range in {
		v := x * 32767
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}

// meanAbs computes mean(|x|) over a block of IF samples, the same linear
// strength metric the original recorder derived dBFS and the AM AGC scale
// from.
func meanAbs(block []complex128) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, x := range block {
		sum += cmplx.Abs(x)
	}
	return sum / float64(len(block))
}

// dbfsOfLinear converts a linear mean-magnitude strength to dBFS.
func dbfsOfLinear(strength float64) float64 {
	if strength == 0 {
		return -120
	}
	return 20 * math.Log10(strength)
}
