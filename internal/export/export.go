// Package export writes detected events to durable row-oriented files.
//
// The destination's extension picks the encoding: .csv (also the default
// for unknown extensions), .parquet, or .db/.sqlite for the SQLite run
// store. File output depends only on the EventSet, so a failed CSV or
// Parquet export can be retried by calling Export again.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/fsutil"
)

// IOError reports a failed write to an export destination.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Kind is an export encoding.
type Kind int

const (
	KindCSV Kind = iota
	KindParquet
	KindSQLite
)

func (k Kind) String() string {
	switch k {
	case KindParquet:
		return "parquet"
	case KindSQLite:
		return "sqlite"
	default:
		return "csv"
	}
}

// KindFromPath maps a destination's extension to its encoding.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return KindParquet
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	default:
		return KindCSV
	}
}

// Exporter writes event sets through FS. SQLite destinations always use
// the real filesystem since the driver opens the file itself.
type Exporter struct {
	FS fsutil.FileSystem
	// Run describes the pipeline invocation for SQLite destinations.
	Run RunInfo
}

// Export writes events to destination on the OS filesystem. See
// Exporter.Export for how repeated calls behave.
func Export(events detect.EventSet, destination string) error {
	return Exporter{}.Export(events, destination)
}

// Export writes events to destination, creating parent directories.
//
// CSV and Parquet destinations are overwritten with identical bytes for
// identical input, so a failed call can be retried as is. SQLite
// destinations (.db, .sqlite) are not idempotent: every call appends a new
// run, and a retry with the same explicit Run.RunID fails with an IOError
// once the first attempt has committed.
func (e Exporter) Export(events detect.EventSet, destination string) error {
	fsys := e.FS
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}

	kind := KindFromPath(destination)
	if kind == KindSQLite {
		return e.exportSQLite(events, destination)
	}

	if dir := filepath.Dir(destination); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return &IOError{Path: dir, Op: "mkdir", Err: err}
		}
	}
	f, err := fsys.Create(destination)
	if err != nil {
		return &IOError{Path: destination, Op: "create", Err: err}
	}

	switch kind {
	case KindParquet:
		err = WriteParquet(f, events)
	default:
		err = WriteCSV(f, events)
	}
	if err != nil {
		f.Close()
		return &IOError{Path: destination, Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Path: destination, Op: "close", Err: err}
	}
	return nil
}
