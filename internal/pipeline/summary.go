package pipeline

import (
	"fmt"
	"strings"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/spectrum"
)

// DefaultClusterGap joins exceedances at most this many samples apart into
// one run when summarising.
const DefaultClusterGap = 1

// Summary condenses a Result for logs and reports.
type Summary struct {
	SourceID   string
	Samples    int
	SampleRate float64
	Duration   float64
	Filtered   bool
	Events     int
	Runs       int

	PeakTime      float64
	PeakAmplitude float64

	// DominantFreq is the strongest spectral component of the scanned
	// waveform, zero when it could not be computed.
	DominantFreq float64
	// BandFraction is the share of spectral energy inside the configured
	// band, zero when filtering was off.
	BandFraction float64
}

// Summary computes run statistics. Spectral figures are left zero for
// waveforms too short to analyse.
func (r Result) Summary() Summary {
	scanned := r.Scanned()
	s := Summary{
		SourceID:   scanned.ID(),
		Samples:    scanned.Len(),
		SampleRate: scanned.SampleRate(),
		Duration:   scanned.Duration(),
		Filtered:   r.Filtered != nil,
		Events:     r.Events.Len(),
	}
	gap := r.Config.ClusterGap
	if gap <= 0 {
		gap = DefaultClusterGap
	}
	s.Runs = len(detect.Cluster(r.Events, gap))
	if p, ok := r.Events.Peak(); ok {
		s.PeakTime, s.PeakAmplitude = p.Time, p.Amplitude
	}

	spec, err := spectrum.Analyze(scanned)
	if err != nil {
		return s
	}
	if p, ok := spec.Dominant(spec.BinWidth, scanned.Nyquist()); ok {
		s.DominantFreq = p.Freq
	}
	if r.Config.BandConfigured() {
		s.BandFraction = spec.BandFraction(r.Config.MinFreq, r.Config.MaxFreq)
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d samples at %g Hz (%.1f s)", s.SourceID, s.Samples, s.SampleRate, s.Duration)
	if s.Filtered {
		fmt.Fprintf(&b, ", filtered (%.0f%% of energy in band)", 100*s.BandFraction)
	}
	fmt.Fprintf(&b, ", %d events in %d runs", s.Events, s.Runs)
	if s.Events > 0 {
		fmt.Fprintf(&b, ", peak %g at %g s", s.PeakAmplitude, s.PeakTime)
	}
	if s.DominantFreq > 0 {
		fmt.Fprintf(&b, ", dominant %.3f Hz", s.DominantFreq)
	}
	return b.String()
}
