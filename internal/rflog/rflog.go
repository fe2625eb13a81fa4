// Package rflog is the receiver's logging shim. It exists to finish what
// the teacher's text_color_set left as a no-op: a small set of named,
// severity-tagged loggers built on charmbracelet/log rather than raw
// fmt.Printf calls scattered through the DSP packages.
package rflog

import (
	"os"

	"github.com/charmbracelet/log"
)

var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLevel configures the minimum severity that reaches the terminal.
// Verbose (-e) and autocorrelation debug (--aa) flags both resolve to
// log.DebugLevel through this one call.
func SetLevel(verbose bool) {
	if verbose {
		base.SetLevel(log.DebugLevel)
	} else {
		base.SetLevel(log.InfoLevel)
	}
}

// Info logs an informational line, the receiver-startup/shutdown severity.
func Info(msg string, kv ...interface{}) { base.Info(msg, kv...) }

// Error logs an error-severity line.
func Error(msg string, kv ...interface{}) { base.Error(msg, kv...) }

// Warn logs a warn-severity line, used for recoverable stream
// misalignment and similar non-fatal anomalies.
func Warn(msg string, kv ...interface{}) { base.Warn(msg, kv...) }

// Debug logs a debug-severity line, gated behind -e/--aa verbosity.
func Debug(msg string, kv ...interface{}) { base.Debug(msg, kv...) }

// Channel returns a logger that prefixes every line with the originating
// channel frequency, mirroring the teacher's per-channel diagnostic tags.
func Channel(freqHz int64) *log.Logger {
	l := base.With("freq", freqHz)
	return l
}
