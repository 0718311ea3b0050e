package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("detection run not found")

// RunRecord describes one pipeline invocation. MinFreq and MaxFreq are
// zero when no filter band was applied.
type RunRecord struct {
	RunID       string
	SourceID    string
	InputFormat string
	Threshold   float64
	Sensitivity float64
	MinFreq     float64
	MaxFreq     float64
	DetectOn    string
	SampleCount int
	SampleRate  float64
	// RunCount is the number of clustered exceedance runs.
	RunCount  int
	Columns   []string
	CreatedAt time.Time
}

func (r *RunRecord) String() string {
	return fmt.Sprintf("run %s source=%s threshold=%g samples=%d", r.RunID, r.SourceID, r.Threshold, r.SampleCount)
}

// RecordRun stores rec and every event of set in one transaction and
// returns the new run id. A non-empty rec.RunID is used as given.
func (db *DB) RecordRun(rec RunRecord, set detect.EventSet) (string, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.SourceID == "" {
		rec.SourceID = set.SourceID
	}
	columns := set.Schema.Columns
	if columns == nil {
		columns = rec.Columns
	}
	colJSON, err := json.Marshal(columns)
	if err != nil {
		return "", fmt.Errorf("failed to encode schema columns: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO detection_runs (
			run_id, source_id, input_format, threshold, sensitivity,
			min_freq, max_freq, detect_on, sample_count, sample_rate,
			schema_columns, run_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.SourceID, rec.InputFormat, rec.Threshold, rec.Sensitivity,
		nullIfZero(rec.MinFreq), nullIfZero(rec.MaxFreq), rec.DetectOn, rec.SampleCount, rec.SampleRate,
		string(colJSON), rec.RunCount, unixSeconds(db.clock.Now()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detection_events (run_id, sample_index, time_rel, amplitude, input_amplitude, aux_row)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range set.Events {
		var aux sql.NullString
		if ev.Aux != nil {
			b, err := json.Marshal(ev.Aux)
			if err != nil {
				return "", fmt.Errorf("failed to encode event row: %w", err)
			}
			aux = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.Exec(rec.RunID, ev.Index, ev.Time, ev.Amplitude, ev.Input, aux); err != nil {
			return "", fmt.Errorf("failed to insert event %d: %w", ev.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return rec.RunID, nil
}

const runColumns = `run_id, source_id, input_format, threshold, sensitivity,
	min_freq, max_freq, detect_on, sample_count, sample_rate,
	schema_columns, run_count, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (RunRecord, error) {
	var (
		r          RunRecord
		minF, maxF sql.NullFloat64
		colJSON    string
		created    float64
	)
	err := s.Scan(&r.RunID, &r.SourceID, &r.InputFormat, &r.Threshold, &r.Sensitivity,
		&minF, &maxF, &r.DetectOn, &r.SampleCount, &r.SampleRate,
		&colJSON, &r.RunCount, &created)
	if err != nil {
		return r, err
	}
	r.MinFreq, r.MaxFreq = minF.Float64, maxF.Float64
	if err := json.Unmarshal([]byte(colJSON), &r.Columns); err != nil {
		return r, fmt.Errorf("failed to decode schema columns: %w", err)
	}
	sec := int64(created)
	r.CreatedAt = time.Unix(sec, int64((created-float64(sec))*1e9)).UTC()
	return r, nil
}

// Run returns the run with the given id.
func (db *DB) Run(runID string) (*RunRecord, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM detection_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	return &r, nil
}

// Runs returns all stored runs, newest first.
func (db *DB) Runs() ([]RunRecord, error) {
	rows, err := db.Query(`SELECT ` + runColumns + ` FROM detection_runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Events rebuilds the EventSet recorded for runID. Runs detected on a
// filtered waveform come back with Filtered set.
func (db *DB) Events(runID string) (detect.EventSet, error) {
	run, err := db.Run(runID)
	if err != nil {
		return detect.EventSet{}, err
	}

	set := detect.EventSet{
		Threshold: run.Threshold,
		SourceID:  run.SourceID,
		Filtered:  run.DetectOn == "filtered",
		Schema:    schemaFromColumns(run.Columns),
	}

	rows, err := db.Query(`
		SELECT sample_index, time_rel, amplitude, COALESCE(input_amplitude, amplitude), aux_row
		FROM detection_events
		WHERE run_id = ?
		ORDER BY sample_index`, runID)
	if err != nil {
		return set, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev  detect.Event
			aux sql.NullString
		)
		if err := rows.Scan(&ev.Index, &ev.Time, &ev.Amplitude, &ev.Input, &aux); err != nil {
			return set, fmt.Errorf("failed to scan event: %w", err)
		}
		if aux.Valid {
			if err := json.Unmarshal([]byte(aux.String), &ev.Aux); err != nil {
				return set, fmt.Errorf("failed to decode event row: %w", err)
			}
		}
		set.Events = append(set.Events, ev)
	}
	return set, rows.Err()
}

// DeleteRun removes a run and, through the foreign key, its events.
func (db *DB) DeleteRun(runID string) error {
	res, err := db.Exec(`DELETE FROM detection_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// schemaFromColumns locates the time and velocity columns by name, falling
// back to the default layout when either is missing.
func schemaFromColumns(cols []string) waveform.Schema {
	s := waveform.Schema{Columns: cols, TimeColumn: -1, AmplitudeColumn: -1}
	for i, c := range cols {
		switch c {
		case waveform.TimeColumn:
			s.TimeColumn = i
		case waveform.VelocityColumn:
			s.AmplitudeColumn = i
		}
	}
	if s.TimeColumn < 0 || s.AmplitudeColumn < 0 {
		return waveform.DefaultSchema()
	}
	return s
}

// unixSeconds matches the migrations' UNIXEPOCH('subsec') column format.
func unixSeconds(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

func nullIfZero(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}
