package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects the loader used for an input.
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatMiniSEED
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMiniSEED:
		return "mseed"
	default:
		return "unknown"
	}
}

// ParseFormat resolves a format name as given on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "mseed", "miniseed", "ms":
		return FormatMiniSEED, nil
	default:
		return FormatUnknown, &FormatError{Format: FormatUnknown, Reason: fmt.Sprintf("unsupported format %q", s)}
	}
}

// FormatFromPath resolves the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return FormatUnknown, &FormatError{Format: FormatUnknown, Reason: fmt.Sprintf("cannot infer format of %q without an extension", path)}
	}
	return ParseFormat(ext)
}
