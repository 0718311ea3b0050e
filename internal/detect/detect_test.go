package detect

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/moonquake.report/internal/testutil"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

func TestDetectScenario(t *testing.T) {
	t.Parallel()

	w := testutil.Waveform(t, [2]float64{0, 1}, [2]float64{1, 4}, [2]float64{2, 2})
	set := Detect(w, 3.0)

	want := []Event{{Index: 1, Time: 1.0, Amplitude: 4.0, Input: 4.0}}
	if diff := cmp.Diff(want, set.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3.0, set.Threshold)
	assert.Equal(t, "pairs", set.SourceID)
	assert.Equal(t, waveform.DefaultSchema(), set.Schema)
}

func TestDetectStrictlyGreater(t *testing.T) {
	t.Parallel()

	w := testutil.Waveform(t, [2]float64{0, 3}, [2]float64{1, 3.0000001}, [2]float64{2, -9})
	set := Detect(w, 3)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, 1, set.Events[0].Index)
}

func TestDetectMonotonicInThreshold(t *testing.T) {
	t.Parallel()

	w := testutil.SineWaveform(t, 0.7, 5, 6.625, 1000)
	prev := -1
	for _, threshold := range []float64{6, 5, 4, 3, 2, 1, 0.5, 0} {
		n := Detect(w, threshold).Len()
		assert.GreaterOrEqual(t, n, prev, "threshold %g", threshold)
		prev = n
	}
}

func TestDetectAllZero(t *testing.T) {
	t.Parallel()

	w, err := waveform.FromSamples(make([]float64, 50), 10, waveform.Meta{})
	require.NoError(t, err)
	for _, threshold := range []float64{1e-12, 0.5, 10} {
		set := Detect(w, threshold)
		assert.True(t, set.Empty())
		_, ok := set.Peak()
		assert.False(t, ok)
	}
}

func TestDetectKeepsPassthroughRow(t *testing.T) {
	t.Parallel()

	schema := waveform.Schema{
		Columns:         []string{"time_abs", "time_rel(sec)", "velocity(m/s)"},
		TimeColumn:      1,
		AmplitudeColumn: 2,
	}
	aux := [][]string{
		{"1970-01-19T00:00:00", "0", "1"},
		{"1970-01-19T00:00:01", "1", "7"},
	}
	w, err := waveform.New([]float64{0, 1}, []float64{1, 7}, waveform.Meta{Schema: schema, Aux: aux})
	require.NoError(t, err)

	set := Detect(w, 5)
	require.Equal(t, 1, set.Len())
	assert.Equal(t, aux[1], set.Events[0].Aux)
	assert.Equal(t, schema, set.Schema)
}

func TestDetectFilteredReportsInputRow(t *testing.T) {
	t.Parallel()

	schema := waveform.Schema{
		Columns:         []string{"time_rel(sec)", "velocity(m/s)", "station"},
		TimeColumn:      0,
		AmplitudeColumn: 1,
	}
	aux := [][]string{{"0", "1", "S12"}, {"1", "5", "S12"}, {"2", "2", "S12"}}
	input, err := waveform.New([]float64{0, 1, 2}, []float64{1, 5, 2}, waveform.Meta{ID: "s12.csv", Schema: schema, Aux: aux})
	require.NoError(t, err)
	filtered, err := input.WithAmplitudes([]float64{0.5, 2.5, 3.5})
	require.NoError(t, err)

	set, err := DetectFiltered(filtered, input, 3)
	require.NoError(t, err)
	assert.True(t, set.Filtered)
	assert.Equal(t, "s12.csv", set.SourceID)
	assert.Equal(t, schema, set.Schema)

	want := []Event{{Index: 2, Time: 2, Amplitude: 3.5, Input: 2, Aux: aux[2]}}
	if diff := cmp.Diff(want, set.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	short := testutil.Waveform(t, [2]float64{0, 9})
	_, err = DetectFiltered(short, input, 3)
	assert.Error(t, err)
}

func TestPeak(t *testing.T) {
	t.Parallel()

	w := testutil.Waveform(t, [2]float64{0, 4}, [2]float64{1, 9}, [2]float64{2, 6})
	p, ok := Detect(w, 3).Peak()
	require.True(t, ok)
	assert.Equal(t, 1.0, p.Time)
	assert.Equal(t, 9.0, p.Amplitude)
}

func TestCluster(t *testing.T) {
	t.Parallel()

	amps := []float64{0, 4, 5, 0, 0, 6, 0, 7, 0, 0, 0, 8}
	w, err := waveform.FromSamples(amps, 1, waveform.Meta{})
	require.NoError(t, err)
	set := Detect(w, 3)
	require.Equal(t, 5, set.Len())

	adjacent := Cluster(set, 1)
	want := []Run{
		{StartIndex: 1, EndIndex: 2, StartTime: 1, EndTime: 2, PeakTime: 2, PeakAmplitude: 5, Samples: 2},
		{StartIndex: 5, EndIndex: 5, StartTime: 5, EndTime: 5, PeakTime: 5, PeakAmplitude: 6, Samples: 1},
		{StartIndex: 7, EndIndex: 7, StartTime: 7, EndTime: 7, PeakTime: 7, PeakAmplitude: 7, Samples: 1},
		{StartIndex: 11, EndIndex: 11, StartTime: 11, EndTime: 11, PeakTime: 11, PeakAmplitude: 8, Samples: 1},
	}
	if diff := cmp.Diff(want, adjacent); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1.0, adjacent[0].Duration())

	gapped := Cluster(set, 3)
	require.Len(t, gapped, 2)
	assert.Equal(t, 4, gapped[0].Samples)
	assert.Equal(t, 7.0, gapped[0].PeakAmplitude)

	assert.Equal(t, adjacent, Cluster(set, 0))
	assert.Empty(t, Cluster(EventSet{}, 1))
}
