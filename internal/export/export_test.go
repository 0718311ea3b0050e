package export

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/moonquake.report/internal/db"
	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/fsutil"
	"github.com/banshee-data/moonquake.report/internal/source"
	"github.com/banshee-data/moonquake.report/internal/testutil"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

func scenarioEvents(t *testing.T) detect.EventSet {
	t.Helper()
	w := testutil.Waveform(t, [2]float64{0, 1}, [2]float64{1, 4}, [2]float64{2, 2}, [2]float64{3, 3.5e-9}, [2]float64{4, 0.1})
	return detect.Detect(w, 0.05)
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, scenarioEvents(t)))

	want := "time_rel(sec),velocity(m/s)\n" +
		"0,1\n" +
		"1,4\n" +
		"2,2\n" +
		"4,0.1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmptySet(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, detect.EventSet{}))
	assert.Equal(t, "time_rel(sec),velocity(m/s)\n", buf.String())
}

func TestCSVRoundTripThroughLoader(t *testing.T) {
	t.Parallel()

	raw := testutil.CSV(
		[2]float64{0, -1.2e-9},
		[2]float64{0.150943, 3.3e-9},
		[2]float64{0.301887, 7.123456789e-9},
		[2]float64{0.45283, 1e-10},
	)
	w, err := source.Load(strings.NewReader(raw), source.FormatCSV, source.Options{})
	require.NoError(t, err)
	events := detect.Detect(w, 2e-9)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, events))

	back, err := source.Load(&buf, source.FormatCSV, source.Options{})
	require.NoError(t, err)
	require.Equal(t, events.Len(), back.Len())
	for i, ev := range events.Events {
		assert.Equal(t, ev.Time, back.Time(i))
		assert.Equal(t, ev.Amplitude, back.Amplitude(i))
	}
}

func TestCSVRoundTripKeepsPassthroughColumns(t *testing.T) {
	t.Parallel()

	raw := "time_abs(%Y-%m-%dT%H:%M:%S.%f),time_rel(sec),velocity(m/s),station\n" +
		"1970-01-19T20:25:00.000000,0.0,-6.15e-14,S12\n" +
		"1970-01-19T20:25:00.150943,0.150943,9.9e-13,S12\n" +
		"1970-01-19T20:25:00.301887,0.301887,2.5e-13,S12\n"
	w, err := source.Load(strings.NewReader(raw), source.FormatCSV, source.Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, detect.Detect(w, 5e-13)))

	want := "time_abs(%Y-%m-%dT%H:%M:%S.%f),time_rel(sec),velocity(m/s),station\n" +
		"1970-01-19T20:25:00.150943,0.150943,9.9e-13,S12\n"
	assert.Equal(t, want, buf.String())
}

func filteredEvents(t *testing.T) detect.EventSet {
	t.Helper()
	raw := "time_rel(sec),velocity(m/s),station\n" +
		"0,1,S12\n" +
		"0.5,5.024135262330097,S12\n" +
		"1,2,S12\n"
	input, err := source.Load(strings.NewReader(raw), source.FormatCSV, source.Options{Label: "s12.csv"})
	require.NoError(t, err)
	filtered, err := input.WithAmplitudes([]float64{0.9, 5.051356667070017, 3.2})
	require.NoError(t, err)
	set, err := detect.DetectFiltered(filtered, input, 3)
	require.NoError(t, err)
	return set
}

func TestWriteCSVFilteredKeepsInputVelocity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, filteredEvents(t)))

	want := "time_rel(sec),velocity(m/s),station,filtered_velocity(m/s)\n" +
		"0.5,5.024135262330097,S12,5.051356667070017\n" +
		"1,2,S12,3.2\n"
	assert.Equal(t, want, buf.String())
}

func TestParquetFilteredVelocity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, filteredEvents(t)))
	rows, err := ReadParquet(buf.Bytes())
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, 5.024135262330097, rows[0].Velocity)
	require.NotNil(t, rows[0].FilteredVelocity)
	assert.Equal(t, 5.051356667070017, *rows[0].FilteredVelocity)
	assert.Equal(t, 2.0, rows[1].Velocity)
}

func TestWriteCSVRejectsMisshapenRow(t *testing.T) {
	t.Parallel()

	set := detect.EventSet{
		Schema: waveform.DefaultSchema(),
		Events: []detect.Event{{Index: 4, Time: 1, Amplitude: 2, Aux: []string{"a", "b", "c"}}},
	}
	err := WriteCSV(&bytes.Buffer{}, set)
	assert.ErrorContains(t, err, "sample 4")
}

func TestExportIsIdempotent(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	exp := Exporter{FS: m}
	events := scenarioEvents(t)

	require.NoError(t, exp.Export(events, "out/events.csv"))
	first, err := m.ReadFile("out/events.csv")
	require.NoError(t, err)

	require.NoError(t, exp.Export(events, "out/events.csv"))
	second, err := m.ReadFile("out/events.csv")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, m.Exists("out"))
}

func TestExportToOSFileSystem(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "nested", "events.CSV")
	require.NoError(t, Export(scenarioEvents(t), dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "time_rel(sec),velocity(m/s)\n"))
}

func TestExportIOErrors(t *testing.T) {
	t.Parallel()

	t.Run("permission", func(t *testing.T) {
		t.Parallel()
		m := fsutil.NewMemoryFileSystem()
		m.SetReadOnly("locked")

		err := Exporter{FS: m}.Export(scenarioEvents(t), "locked/events.csv")
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "create", ioErr.Op)
		assert.Equal(t, "locked/events.csv", ioErr.Path)
		assert.ErrorIs(t, err, fs.ErrPermission)
	})

	t.Run("disk full", func(t *testing.T) {
		t.Parallel()
		m := fsutil.NewMemoryFileSystem()
		m.SetCapacity(10)

		err := Exporter{FS: m}.Export(scenarioEvents(t), "events.csv")
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "write", ioErr.Op)
		assert.ErrorIs(t, err, fsutil.ErrNoSpace)

		// no rollback: the partial file stays behind
		assert.True(t, m.Exists("events.csv"))
	})

	t.Run("destination is a directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		err := Export(scenarioEvents(t), dir)
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "create", ioErr.Op)
		assert.Contains(t, err.Error(), dir)
	})
}

func TestParquetRoundTrip(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	events := scenarioEvents(t)
	require.NoError(t, Exporter{FS: m}.Export(events, "events.parquet"))

	data, err := m.ReadFile("events.parquet")
	require.NoError(t, err)
	rows, err := ReadParquet(data)
	require.NoError(t, err)

	want := []EventRow{
		{SourceID: "pairs", Index: 0, TimeRel: 0, Velocity: 1, Threshold: 0.05},
		{SourceID: "pairs", Index: 1, TimeRel: 1, Velocity: 4, Threshold: 0.05},
		{SourceID: "pairs", Index: 2, TimeRel: 2, Velocity: 2, Threshold: 0.05},
		{SourceID: "pairs", Index: 4, TimeRel: 4, Velocity: 0.1, Threshold: 0.05},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("parquet rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteExport(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "runs.db")
	events := scenarioEvents(t)
	exp := Exporter{Run: RunInfo{RunID: "run-1", InputFormat: "csv", DetectOn: "raw", SampleCount: 5}}
	require.NoError(t, exp.Export(events, dest))

	store, err := db.NewDB(dest)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Events("run-1")
	require.NoError(t, err)
	assert.Equal(t, events.Events, got.Events)
	assert.Equal(t, events.SourceID, got.SourceID)
}

func TestSQLiteExportFilteredRoundTrip(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "runs.db")
	events := filteredEvents(t)
	exp := Exporter{Run: RunInfo{RunID: "run-f", InputFormat: "csv", DetectOn: "filtered", SampleCount: 3}}
	require.NoError(t, exp.Export(events, dest))

	store, err := db.NewDB(dest)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Events("run-f")
	require.NoError(t, err)
	assert.True(t, got.Filtered)
	assert.Equal(t, events.Events, got.Events)

	var want, back bytes.Buffer
	require.NoError(t, WriteCSV(&want, events))
	require.NoError(t, WriteCSV(&back, got))
	assert.Equal(t, want.String(), back.String())
}

func TestSQLiteExportDuplicateRun(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "runs.sqlite")
	exp := Exporter{Run: RunInfo{RunID: "same", InputFormat: "csv", DetectOn: "raw"}}
	require.NoError(t, exp.Export(scenarioEvents(t), dest))

	err := exp.Export(scenarioEvents(t), dest)
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "write", ioErr.Op)
}

func TestSQLiteExportAppendsRunPerCall(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "runs.db")
	exp := Exporter{Run: RunInfo{InputFormat: "csv", DetectOn: "raw"}}
	require.NoError(t, exp.Export(scenarioEvents(t), dest))
	require.NoError(t, exp.Export(scenarioEvents(t), dest))

	store, err := db.NewDB(dest)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Runs()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestKindFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Kind{
		"events.csv":     KindCSV,
		"events.txt":     KindCSV,
		"events":         KindCSV,
		"EVENTS.PARQUET": KindParquet,
		"runs.db":        KindSQLite,
		"runs.sqlite":    KindSQLite,
		"runs.sqlite3":   KindSQLite,
	}
	for path, want := range tests {
		assert.Equal(t, want, KindFromPath(path), path)
		assert.NotEmpty(t, want.String())
	}
}
