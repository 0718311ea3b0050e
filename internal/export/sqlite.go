package export

import (
	"github.com/banshee-data/moonquake.report/internal/db"
	"github.com/banshee-data/moonquake.report/internal/detect"
)

// RunInfo is the run metadata stored alongside events in SQLite
// destinations.
type RunInfo = db.RunRecord

func (e Exporter) exportSQLite(events detect.EventSet, destination string) error {
	store, err := db.NewDB(destination)
	if err != nil {
		return &IOError{Path: destination, Op: "open", Err: err}
	}
	defer store.Close()

	if _, err := store.RecordRun(e.Run, events); err != nil {
		return &IOError{Path: destination, Op: "write", Err: err}
	}
	return nil
}
