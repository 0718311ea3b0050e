package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/source"
)

func burstParams() params {
	return params{
		SampleRate: 10,
		Duration:   600,
		Start:      time.Date(1970, time.January, 19, 20, 25, 0, 0, time.UTC),
		ID:         "XA.S12.00.MHZ",
		ToneFreq:   0.05,
		ToneAmp:    1,
		Noise:      0.1,
		Seed:       7,
		BurstAt:    300,
		BurstFreq:  0.3,
		BurstAmp:   10,
		BurstDecay: 30,
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	t.Parallel()

	a := synthesize(burstParams())
	b := synthesize(burstParams())
	require.Len(t, a, 6000)
	assert.Equal(t, a, b)

	other := burstParams()
	other.Seed = 8
	assert.NotEqual(t, a, synthesize(other))
}

func TestSynthesizeBurstOnlyAfterOnset(t *testing.T) {
	t.Parallel()

	p := burstParams()
	p.Noise = 0
	samples := synthesize(p)

	for i, v := range samples[:3000] {
		assert.LessOrEqual(t, v, 1.0+1e-9, "sample %d before the burst", i)
	}
	var peak float64
	for _, v := range samples[3000:3200] {
		peak = max(peak, v)
	}
	assert.Greater(t, peak, 8.0)
}

func TestGenerateRoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"burst.csv", "burst.mseed"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, generate(path, burstParams()))

			w, err := source.LoadFile(path, source.Options{Trace: source.FirstTrace()})
			require.NoError(t, err)
			assert.Equal(t, 6000, w.Len())
			assert.InDelta(t, 10, w.SampleRate(), 1e-6)

			events := detect.Detect(w, 5)
			require.False(t, events.Empty())
			assert.GreaterOrEqual(t, events.Events[0].Time, 300.0)
		})
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := burstParams()
	assert.Error(t, generate(filepath.Join(dir, "out.wav"), p))

	p.ID = "S12"
	assert.ErrorContains(t, generate(filepath.Join(dir, "out.mseed"), p), "NET.STA.LOC.CHA")

	p = burstParams()
	p.BurstDecay = 0
	assert.ErrorContains(t, generate(filepath.Join(dir, "out.csv"), p), "decay")

	p = burstParams()
	p.Duration = 0
	assert.Error(t, generate(filepath.Join(dir, "out.csv"), p))
}
