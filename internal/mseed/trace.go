package mseed

import (
	"io"
	"math"
	"strings"
	"time"
)

// Trace is a continuous run of samples from one channel.
type Trace struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	Start      time.Time
	SampleRate float64
	Samples    []float64
}

// ID returns the NET.STA.LOC.CHA identifier.
func (t Trace) ID() string {
	return strings.Join([]string{t.Network, t.Station, t.Location, t.Channel}, ".")
}

// End returns the time of the last sample.
func (t Trace) End() time.Time {
	if len(t.Samples) == 0 || t.SampleRate <= 0 {
		return t.Start
	}
	return t.Start.Add(secondsToDuration(float64(len(t.Samples)-1) / t.SampleRate))
}

// Read decodes r and assembles its records into traces.
func Read(r io.Reader) ([]Trace, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	return Assemble(records), nil
}

// Assemble merges records into traces. A record extends the most recent
// trace with the same identifier when the sample rates agree and it starts
// within half a sample period of where that trace is expected to continue;
// otherwise it opens a new trace. Traces are returned in order of first
// appearance. Records without samples are skipped.
func Assemble(records []Record) []Trace {
	var traces []Trace
	latest := make(map[string]int)

	for _, rec := range records {
		if len(rec.Samples) == 0 {
			continue
		}
		id := rec.SourceID()
		if idx, ok := latest[id]; ok && continues(traces[idx], rec) {
			traces[idx].Samples = append(traces[idx].Samples, rec.Samples...)
			continue
		}
		traces = append(traces, Trace{
			Network:    rec.Network,
			Station:    rec.Station,
			Location:   rec.Location,
			Channel:    rec.Channel,
			Start:      rec.Start,
			SampleRate: rec.SampleRate,
			Samples:    append([]float64(nil), rec.Samples...),
		})
		latest[id] = len(traces) - 1
	}
	return traces
}

func continues(t Trace, rec Record) bool {
	if t.SampleRate <= 0 || math.Abs(t.SampleRate-rec.SampleRate) > 1e-4*t.SampleRate {
		return false
	}
	period := 1 / t.SampleRate
	expected := t.End().Add(secondsToDuration(period))
	gap := rec.Start.Sub(expected).Seconds()
	return math.Abs(gap) <= period/2
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
