package waveform

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the amplitude distribution of a waveform.
type Stats struct {
	Samples  int
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
	RMS      float64
	PeakAbs  float64
	PeakTime float64
}

// Stats computes amplitude statistics. StdDev is zero for single-sample
// waveforms.
func (w *Waveform) Stats() Stats {
	a := w.amplitudes
	s := Stats{
		Samples: len(a),
		Min:     floats.Min(a),
		Max:     floats.Max(a),
	}
	if len(a) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(a, nil)
	} else {
		s.Mean = a[0]
	}
	s.RMS = floats.Norm(a, 2) / math.Sqrt(float64(len(a)))

	peak := 0
	for i, v := range a {
		if math.Abs(v) > math.Abs(a[peak]) {
			peak = i
		}
	}
	s.PeakAbs = math.Abs(a[peak])
	s.PeakTime = w.times[peak]
	return s
}
