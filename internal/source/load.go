package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// Options adjusts how an input is loaded.
type Options struct {
	// Trace selects one trace from a multi-trace binary input.
	Trace TraceSelection
	// Label becomes the waveform ID for tabular input.
	Label string
}

// Load reads r in the given format.
func Load(r io.Reader, format Format, opts Options) (*waveform.Waveform, error) {
	switch format {
	case FormatCSV:
		return loadCSV(r, opts)
	case FormatMiniSEED:
		return loadMiniSEED(r, opts)
	default:
		return nil, &FormatError{Format: format, Reason: "no loader for this format"}
	}
}

// LoadFile opens path and loads it using the format implied by its
// extension.
func LoadFile(path string, opts Options) (*waveform.Waveform, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	if opts.Label == "" {
		opts.Label = filepath.Base(path)
	}
	return Load(f, format, opts)
}
