// Package bandplan optionally loads a YAML file mapping known
// frequencies to human-readable labels, purely to annotate the scanner's
// new-carrier log line; it never changes receive behavior.
package bandplan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan maps frequency (Hz) to a short human label, e.g. "NOAA Weather Radio".
type Plan struct {
	entries map[int64]string
}

// Load reads a YAML file of the form `162550000: "NOAA Weather Radio"`.
// An empty path is not an error: Load returns an empty, harmless Plan.
func Load(path string) (*Plan, error) {
	if path == "" {
		return &Plan{entries: map[int64]string{}}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bandplan: reading %s: %w", path, err)
	}

	var entries map[int64]string
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("bandplan: parsing %s: %w", path, err)
	}

	return &Plan{entries: entries}, nil
}

// Label returns the configured label for freqHz, or "" if none is known.
func (p *Plan) Label(freqHz int64) string {
	if p == nil {
		return ""
	}
	return p.entries[freqHz]
}
