package detect

// Run is a group of events whose sample indices lie within a gap of each
// other.
type Run struct {
	StartIndex    int
	EndIndex      int
	StartTime     float64
	EndTime       float64
	PeakTime      float64
	PeakAmplitude float64
	// Samples is the number of events in the run.
	Samples int
}

// Duration is the time between the first and last event of the run.
func (r Run) Duration() float64 { return r.EndTime - r.StartTime }

// Cluster groups events into runs. Two consecutive events belong to the
// same run when their indices differ by at most maxGap; a maxGap of 1 joins
// only directly adjacent samples. Values below 1 are treated as 1.
func Cluster(set EventSet, maxGap int) []Run {
	if maxGap < 1 {
		maxGap = 1
	}
	var runs []Run
	for i, ev := range set.Events {
		if i > 0 && ev.Index-set.Events[i-1].Index <= maxGap {
			r := &runs[len(runs)-1]
			r.EndIndex = ev.Index
			r.EndTime = ev.Time
			r.Samples++
			if ev.Amplitude > r.PeakAmplitude {
				r.PeakAmplitude = ev.Amplitude
				r.PeakTime = ev.Time
			}
			continue
		}
		runs = append(runs, Run{
			StartIndex:    ev.Index,
			EndIndex:      ev.Index,
			StartTime:     ev.Time,
			EndTime:       ev.Time,
			PeakTime:      ev.Time,
			PeakAmplitude: ev.Amplitude,
			Samples:       1,
		})
	}
	return runs
}
