// Package report renders pipeline results as offline PNG and HTML files.
package report

import (
	"github.com/banshee-data/moonquake.report/internal/units"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// DefaultMaxPoints bounds the samples drawn per series.
const DefaultMaxPoints = 4000

// point is one drawn sample.
type point struct{ t, v float64 }

// decimate reduces w to at most maxPoints samples by keeping the minimum
// and maximum of each bucket in time order, so spikes survive.
func decimate(w *waveform.Waveform, maxPoints int) []point {
	n := w.Len()
	if maxPoints < 2 || n <= maxPoints {
		out := make([]point, n)
		for i := range out {
			out[i] = point{w.Time(i), w.Amplitude(i)}
		}
		return out
	}

	buckets := maxPoints / 2
	out := make([]point, 0, 2*buckets)
	for b := 0; b < buckets; b++ {
		lo, hi := b*n/buckets, (b+1)*n/buckets
		minI, maxI := lo, lo
		for i := lo + 1; i < hi; i++ {
			if w.Amplitude(i) < w.Amplitude(minI) {
				minI = i
			}
			if w.Amplitude(i) > w.Amplitude(maxI) {
				maxI = i
			}
		}
		first, second := minI, maxI
		if first > second {
			first, second = second, first
		}
		out = append(out, point{w.Time(first), w.Amplitude(first)})
		if second != first {
			out = append(out, point{w.Time(second), w.Amplitude(second)})
		}
	}
	return out
}

// displayUnit picks the velocity unit raw is drawn in and the factor that
// converts m/s into it.
func displayUnit(raw *waveform.Waveform) (string, float64) {
	unit := units.ForPeak(raw.Stats().PeakAbs)
	return unit, units.ConvertVelocity(1, unit)
}

func scaled(pts []point, factor float64) []point {
	for i := range pts {
		pts[i].v *= factor
	}
	return pts
}
