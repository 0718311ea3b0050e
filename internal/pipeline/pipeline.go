// Package pipeline composes loading, filtering and detection into a single
// call.
//
// The pipeline is a straight composition: the first failing stage aborts
// the run and its error is returned as is, so callers can match the
// source, filter and detect error types with errors.As.
package pipeline

import (
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/filter"
	"github.com/banshee-data/moonquake.report/internal/monitoring"
	"github.com/banshee-data/moonquake.report/internal/source"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// Result is everything one run produced. Filtered is nil when no band was
// configured.
type Result struct {
	Raw      *waveform.Waveform
	Filtered *waveform.Waveform
	Events   detect.EventSet
	Config   DetectionConfig
	Format   source.Format
}

// Scanned returns the waveform the detector ran on.
func (r Result) Scanned() *waveform.Waveform {
	if r.Filtered != nil && r.Config.DetectOn != DetectRaw {
		return r.Filtered
	}
	return r.Raw
}

// Run loads raw as format, filters it when cfg configures a band, and
// detects events on the waveform cfg.DetectOn selects. With DetectAuto
// tabular input is thresholded as recorded and never filtered.
func Run(raw io.Reader, format source.Format, cfg DetectionConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	w, err := source.Load(raw, format, source.Options{Trace: cfg.Trace, Label: cfg.Label})
	if err != nil {
		return Result{}, err
	}
	res := Result{Raw: w, Config: cfg, Format: format}

	if cfg.filters(format) {
		band := filter.Bandpass{MinFreq: cfg.MinFreq, MaxFreq: cfg.MaxFreq, Corners: cfg.Corners}
		res.Filtered, err = band.Apply(w)
		if err != nil {
			return Result{}, err
		}
	}

	scanned := res.Scanned()
	if scanned == res.Filtered {
		res.Events, err = detect.DetectFiltered(scanned, w, cfg.Threshold)
		if err != nil {
			return Result{}, err
		}
	} else {
		res.Events = detect.Detect(scanned, cfg.Threshold)
	}
	monitoring.Logf("%s: %d of %d samples above %g (%s)", scanned.ID(), res.Events.Len(), scanned.Len(), cfg.Threshold, scannedName(res))
	return res, nil
}

// RunFile resolves the input format from path's extension and runs the
// pipeline on the file. Tabular input is labelled with the file name
// unless cfg.Label is set.
func RunFile(path string, cfg DetectionConfig) (Result, error) {
	format, err := source.FormatFromPath(path)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	if cfg.Label == "" {
		cfg.Label = filepath.Base(path)
	}
	return Run(f, format, cfg)
}

func scannedName(r Result) string {
	if r.Scanned() == r.Filtered {
		return "filtered"
	}
	return "raw"
}
