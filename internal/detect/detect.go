// Package detect flags waveform samples whose amplitude exceeds a velocity
// threshold.
//
// Every exceeding sample is its own Event. Adjacent exceedances are not
// merged; callers wanting grouped events use Cluster on the result.
package detect

import (
	"fmt"

	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// Event is one sample above the threshold.
type Event struct {
	// Index is the sample position in the scanned waveform.
	Index int
	Time  float64
	// Amplitude is the scanned value that crossed the threshold.
	Amplitude float64
	// Input is the recorded velocity at the same sample. It equals
	// Amplitude unless the set was detected on a filtered waveform.
	Input float64
	// Aux holds the sample's full input row when the waveform carried
	// passthrough columns, nil otherwise.
	Aux []string
}

// EventSet is the time-ordered output of Detect.
type EventSet struct {
	Schema    waveform.Schema
	Threshold float64
	// SourceID names the waveform the events came from.
	SourceID string
	// Filtered is set when Amplitude holds filtered rather than recorded
	// values.
	Filtered bool
	Events   []Event
}

// Len returns the number of events.
func (s EventSet) Len() int { return len(s.Events) }

// Empty reports whether no sample exceeded the threshold.
func (s EventSet) Empty() bool { return len(s.Events) == 0 }

// Peak returns the event with the largest amplitude. ok is false for an
// empty set.
func (s EventSet) Peak() (e Event, ok bool) {
	for i, ev := range s.Events {
		if i == 0 || ev.Amplitude > e.Amplitude {
			e = ev
		}
	}
	return e, len(s.Events) > 0
}

// Detect returns every sample of w whose amplitude is strictly greater than
// threshold. The comparison is signed: negative excursions never match.
func Detect(w *waveform.Waveform, threshold float64) EventSet {
	return scan(w, w, threshold)
}

// DetectFiltered scans filtered like Detect but reports each event against
// input, the waveform filtered was derived from: Input and Aux come from
// the recorded sample. The two waveforms must share a time axis.
func DetectFiltered(filtered, input *waveform.Waveform, threshold float64) (EventSet, error) {
	if filtered.Len() != input.Len() {
		return EventSet{}, fmt.Errorf("filtered waveform has %d samples, input has %d", filtered.Len(), input.Len())
	}
	set := scan(filtered, input, threshold)
	set.Filtered = true
	return set, nil
}

func scan(w, input *waveform.Waveform, threshold float64) EventSet {
	set := EventSet{
		Schema:    input.Schema(),
		Threshold: threshold,
		SourceID:  input.ID(),
	}
	for i := 0; i < w.Len(); i++ {
		amp := w.Amplitude(i)
		if !(amp > threshold) {
			continue
		}
		set.Events = append(set.Events, Event{
			Index:     i,
			Time:      input.Time(i),
			Amplitude: amp,
			Input:     input.Amplitude(i),
			Aux:       input.Aux(i),
		})
	}
	return set
}
