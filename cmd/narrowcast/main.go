// Command narrowcast is a real-time multi-channel narrowband receiver:
// it demultiplexes a wideband complex baseband stream into independent
// channels, demodulating, squelching, and recording each one, while a
// spectral scanner watches for new carriers and adds channels for them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/doismellburning/narrowcast/internal/bandplan"
	"github.com/doismellburning/narrowcast/internal/config"
	"github.com/doismellburning/narrowcast/internal/demod"
	"github.com/doismellburning/narrowcast/internal/devicewatch"
	"github.com/doismellburning/narrowcast/internal/dispatch"
	"github.com/doismellburning/narrowcast/internal/queue"
	"github.com/doismellburning/narrowcast/internal/rflog"
	"github.com/doismellburning/narrowcast/internal/scanner"
	"github.com/doismellburning/narrowcast/internal/wavsink"
)

func main() {
	var verbose = pflag.BoolP("verbose", "e", false, "Log periodic signal strength for each channel.")
	var autocorr = pflag.BoolP("autocorr", "a", false, "Use the autocorrelation squelch voter.")
	var autocorrDebug = pflag.Bool("aa", false, "Use the autocorrelation squelch voter and raise logging to debug level (the metric itself is not logged).")
	var amMode = pflag.Bool("am", false, "Demodulate AM instead of FM.")
	var bandPlanPath = pflag.String("band-plan", "", "Optional YAML file mapping frequencies to labels.")
	var watchUSB = pflag.String("watch-usb", "", "Optional vendor:product USB ID to watch for removal (Linux only).")
	var outDir = pflag.StringP("out-dir", "o", "out", "Directory recordings are written under.")
	var timestamp = pflag.Bool("timestamp", true, "Prefix each recording with a timestamp watermark.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "narrowcast - multi-channel narrowband SDR receiver and recorder.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: narrowcast [options] CENTER INPUT_RATE STEP IF_BANDWIDTH FREQ1 [FREQ2 ...] [.]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 5 {
		pflag.Usage()
		os.Exit(1)
	}

	center, err1 := strconv.ParseInt(args[0], 10, 64)
	inputRate, err2 := strconv.Atoi(args[1])
	step, err3 := strconv.Atoi(args[2])
	ifBandwidth, err4 := strconv.Atoi(args[3])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		fmt.Fprintln(os.Stderr, "narrowcast: CENTER, INPUT_RATE, STEP, and IF_BANDWIDTH must all be integers")
		os.Exit(1)
	}

	freqArgs := args[4:]
	var freqs []int64
	for _, a := range freqArgs {
		if a == "." {
			continue
		}
		f, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "narrowcast: invalid frequency %q\n", a)
			os.Exit(1)
		}
		freqs = append(freqs, f)
	}

	mode := config.ModeFM
	if *amMode {
		mode = config.ModeAM
	}
	voter := config.VoterStrength
	if *autocorr || *autocorrDebug {
		voter = config.VoterAutocorr
	}

	cfg, err := config.New(center, inputRate, step, ifBandwidth, freqs, mode, voter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "narrowcast: %v\n", err)
		os.Exit(1)
	}
	cfg.Verbose = *verbose
	cfg.AutocorrDebug = *autocorrDebug
	cfg.BandPlanPath = *bandPlanPath
	cfg.WatchUSB = *watchUSB

	rflog.SetLevel(cfg.Verbose || cfg.AutocorrDebug)

	plan, err := bandplan.Load(cfg.BandPlanPath)
	if err != nil {
		rflog.Error("loading band plan", "err", err)
		os.Exit(1)
	}

	registry := dispatch.NewRegistry(config.ChannelSpacing)
	scannerQ := queue.New[[]complex128]()

	workers := make([]*channelWorker, 0, len(freqs))
	for _, f := range freqs {
		q := registry.AddQueue(f)
		sink := wavsink.New(*outDir, f, *timestamp)
		ch := demod.New(cfg, f, sink)
		w := &channelWorker{ch: ch, queue: q, stopped: make(chan struct{})}
		workers = append(workers, w)
		go w.run()
	}

	sc := scanner.New(cfg, registry, func(freqHz int64, power float64) {
		label := plan.Label(freqHz)
		rflog.Info("new carrier found", "freq", freqHz, "power", power, "label", label)
		writeFoundFreq(*outDir, freqHz, power)
	})
	go func() {
		for {
			batch, ok := scannerQ.Pop()
			if !ok {
				return
			}
			sc.Ingest(batch)
		}
	}()

	d := dispatch.New(cfg, registry, scannerQ)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if cfg.WatchUSB != "" {
		startDeviceWatch(cfg.WatchUSB)
	}

	done := make(chan error, 1)
	go func() { done <- d.Run(os.Stdin) }()

	select {
	case <-sigCh:
		rflog.Info("received interrupt, shutting down")
	case err := <-done:
		if err != nil {
			rflog.Error("input stream ended with error", "err", err)
		} else {
			rflog.Info("input stream ended")
		}
	}

	registry.CloseAll()
	scannerQ.Close()
	for _, w := range workers {
		<-w.stopped
	}
}

// channelWorker pairs one demod.Channel with its per-channel queue and
// runs it on its own goroutine until the queue closes.
type channelWorker struct {
	ch      *demod.Channel
	queue   interface {
		Pop() ([]complex128, bool)
	}
	stopped chan struct{}
}

func (w *channelWorker) run() {
	defer close(w.stopped)
	for {
		batch, ok := w.queue.Pop()
		if !ok {
			return
		}
		if err := w.ch.Ingest(batch); err != nil {
			rflog.Channel(w.ch.Freq).Error("ingest error", "err", err)
		}
	}
}

// startDeviceWatch spawns the optional udev watcher for a configured USB
// SDR front end; purely diagnostic, it just logs when the device vanishes.
func startDeviceWatch(vendorProduct string) {
	w := devicewatch.New(vendorProduct)
	ctx := context.Background()
	go func() {
		if err := w.Run(ctx); err != nil {
			rflog.Warn("devicewatch stopped", "err", err)
		}
	}()
	go func() {
		for range w.Removed {
			rflog.Warn("configured SDR front end was removed", "device", vendorProduct)
		}
	}()
}

func writeFoundFreq(outDir string, freqHz int64, power float64) {
	path := outDir + "/out_freqs.txt"
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		rflog.Error("writing out_freqs.txt", "err", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%d %f\n", freqHz, power)
}
