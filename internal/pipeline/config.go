package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/moonquake.report/internal/source"
)

// DetectTarget chooses which waveform the detector scans.
type DetectTarget int

const (
	// DetectAuto scans the filtered waveform when a band is configured and
	// the input is a miniSEED trace, and the raw one otherwise.
	DetectAuto DetectTarget = iota
	DetectRaw
	DetectFiltered
)

func (d DetectTarget) String() string {
	switch d {
	case DetectRaw:
		return "raw"
	case DetectFiltered:
		return "filtered"
	default:
		return "auto"
	}
}

// ParseDetectTarget accepts "auto", "raw" or "filtered"; empty means auto.
func ParseDetectTarget(s string) (DetectTarget, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DetectAuto, nil
	case "raw":
		return DetectRaw, nil
	case "filtered":
		return DetectFiltered, nil
	}
	return DetectAuto, fmt.Errorf("unknown detect target %q (want auto, raw or filtered)", s)
}

// DetectionConfig holds the per-run parameters. It is passed by value and
// never modified by the pipeline.
//
// Sensitivity is accepted and recorded but no detection step consumes it.
// Zero means it was not supplied.
type DetectionConfig struct {
	Threshold   float64
	Sensitivity float64
	MinFreq     float64
	MaxFreq     float64

	// Corners is the filter order per band edge; zero uses the filter
	// default.
	Corners  int
	DetectOn DetectTarget
	Trace    source.TraceSelection
	// Label names tabular input in results; miniSEED input uses the trace id.
	Label string
	// ClusterGap joins events into runs for Summary; zero uses
	// DefaultClusterGap.
	ClusterGap int
}

// BandConfigured reports whether filtering was requested. The band itself
// is validated by the filter against the waveform's Nyquist frequency.
func (c DetectionConfig) BandConfigured() bool {
	return c.MinFreq != 0 || c.MaxFreq != 0
}

// filters reports whether Run applies the band to input of the given
// format. Tabular rows are filtered only when a target is named.
func (c DetectionConfig) filters(format source.Format) bool {
	if !c.BandConfigured() {
		return false
	}
	return format != source.FormatCSV || c.DetectOn != DetectAuto
}

// ConfigError reports a DetectionConfig field that cannot be used.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid detection config: %s %s", e.Field, e.Reason)
}

// Validate checks the fields the pipeline itself consumes.
func (c DetectionConfig) Validate() error {
	if math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0) || c.Threshold < 0 {
		return &ConfigError{Field: "threshold", Reason: fmt.Sprintf("must be a finite value >= 0, got %g", c.Threshold)}
	}
	if c.Sensitivity != 0 && !(c.Sensitivity > 0 && c.Sensitivity <= 1) {
		return &ConfigError{Field: "sensitivity", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.Sensitivity)}
	}
	if c.Corners < 0 {
		return &ConfigError{Field: "corners", Reason: fmt.Sprintf("must not be negative, got %d", c.Corners)}
	}
	if c.DetectOn == DetectFiltered && !c.BandConfigured() {
		return &ConfigError{Field: "detect_on", Reason: "is filtered but no filter band is configured"}
	}
	return nil
}
