// Package testutil provides shared test utilities and fixtures.
//
// This package centralises synthetic waveform builders so loader, filter,
// detector and pipeline tests exercise the same shapes of data.
package testutil

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/moonquake.report/internal/mseed"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// ApolloStart is a fixed start time used by miniSEED fixtures.
var ApolloStart = time.Date(1970, time.January, 19, 0, 0, 0, 0, time.UTC)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Sine returns n samples of amp*sin(2*pi*freq*t) at the given sample rate.
func Sine(freq, amp, sampleRate float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)
	}
	return out
}

// Add returns the element-wise sum of equally long sample slices.
func Add(parts ...[]float64) []float64 {
	if len(parts) == 0 {
		return nil
	}
	out := make([]float64, len(parts[0]))
	for _, p := range parts {
		for i := range out {
			out[i] += p[i]
		}
	}
	return out
}

// SineWaveform wraps Sine in a waveform starting at relative time zero.
func SineWaveform(t *testing.T, freq, amp, sampleRate float64, n int) *waveform.Waveform {
	t.Helper()
	w, err := waveform.FromSamples(Sine(freq, amp, sampleRate, n), sampleRate, waveform.Meta{ID: "synthetic"})
	AssertNoError(t, err)
	return w
}

// Waveform builds a waveform from explicit (time, amplitude) pairs.
func Waveform(t *testing.T, pairs ...[2]float64) *waveform.Waveform {
	t.Helper()
	times := make([]float64, len(pairs))
	amps := make([]float64, len(pairs))
	for i, p := range pairs {
		times[i], amps[i] = p[0], p[1]
	}
	w, err := waveform.New(times, amps, waveform.Meta{ID: "pairs"})
	AssertNoError(t, err)
	return w
}

// CSV renders a tabular input with the standard two columns.
func CSV(pairs ...[2]float64) string {
	var b strings.Builder
	b.WriteString(waveform.TimeColumn + "," + waveform.VelocityColumn + "\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "%s,%s\n", strconv.FormatFloat(p[0], 'g', -1, 64), strconv.FormatFloat(p[1], 'g', -1, 64))
	}
	return b.String()
}

// Trace describes one channel of a miniSEED fixture.
type Trace struct {
	ID         string // NET.STA.LOC.CHA
	SampleRate float64
	Samples    []float64
	Start      time.Time
}

// MiniSEED encodes the given traces as float64 records, one after another.
func MiniSEED(t *testing.T, traces ...Trace) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, tr := range traces {
		parts := strings.Split(tr.ID, ".")
		if len(parts) != 4 {
			t.Fatalf("trace id %q is not NET.STA.LOC.CHA", tr.ID)
		}
		start := tr.Start
		if start.IsZero() {
			start = ApolloStart
		}
		err := mseed.Encode(&buf, mseed.Trace{
			Network:    parts[0],
			Station:    parts[1],
			Location:   parts[2],
			Channel:    parts[3],
			Start:      start,
			SampleRate: tr.SampleRate,
			Samples:    tr.Samples,
		}, mseed.EncodeOptions{RecordLength: 512})
		AssertNoError(t, err)
	}
	return buf.Bytes()
}
