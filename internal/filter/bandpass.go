// Package filter applies zero-phase Butterworth bandpass filtering to
// waveforms.
package filter

import (
	"fmt"
	"math"

	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// DefaultCorners is the per-edge filter order.
const DefaultCorners = 4

// InvalidBandError reports a pass band that is inverted, non-positive or
// reaches the Nyquist frequency of the waveform.
type InvalidBandError struct {
	MinFreq float64
	MaxFreq float64
	Nyquist float64
}

func (e *InvalidBandError) Error() string {
	return fmt.Sprintf("invalid pass band %g-%g Hz: need 0 < min < max < nyquist (%g Hz)", e.MinFreq, e.MaxFreq, e.Nyquist)
}

// Bandpass is a Butterworth pass band. Corners is the order of each of the
// high-pass and low-pass edges; zero means DefaultCorners.
type Bandpass struct {
	MinFreq float64
	MaxFreq float64
	Corners int
}

// Apply filters w with the default order. It never modifies w.
func Apply(w *waveform.Waveform, minFreq, maxFreq float64) (*waveform.Waveform, error) {
	return Bandpass{MinFreq: minFreq, MaxFreq: maxFreq}.Apply(w)
}

// Validate checks the band against a waveform's Nyquist frequency.
func (b Bandpass) Validate(nyquist float64) error {
	ok := b.MinFreq > 0 && b.MaxFreq > b.MinFreq && b.MaxFreq < nyquist &&
		!math.IsNaN(b.MinFreq) && !math.IsNaN(b.MaxFreq)
	if !ok {
		return &InvalidBandError{MinFreq: b.MinFreq, MaxFreq: b.MaxFreq, Nyquist: nyquist}
	}
	if b.Corners < 0 {
		return fmt.Errorf("filter corners must be positive, got %d", b.Corners)
	}
	return nil
}

// Apply returns a new waveform holding the band-limited amplitudes. The
// filter runs forward and then backward over the samples so the result has
// no phase shift; the ends are padded with an odd reflection of the signal
// to keep start-up transients out of the output.
func (b Bandpass) Apply(w *waveform.Waveform) (*waveform.Waveform, error) {
	if err := b.Validate(w.Nyquist()); err != nil {
		return nil, err
	}
	corners := b.Corners
	if corners == 0 {
		corners = DefaultCorners
	}

	rate := w.SampleRate()
	sections := append(
		butterworth(highpass, corners, rate, b.MinFreq),
		butterworth(lowpass, corners, rate, b.MaxFreq)...,
	)

	x := w.Amplitudes()
	pad := 3 * (2*len(sections) + 1)
	if pad > len(x)-1 {
		pad = len(x) - 1
	}

	ext := oddExtend(x, pad)
	cascade(sections, ext)
	reverse(ext)
	cascade(sections, ext)
	reverse(ext)

	return w.WithAmplitudes(ext[pad : pad+len(x)])
}

// oddExtend mirrors n samples about each end point: x[0] - (x[i] - x[0]).
func oddExtend(x []float64, n int) []float64 {
	out := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		out = append(out, 2*x[0]-x[i])
	}
	out = append(out, x...)
	last := len(x) - 1
	for i := 1; i <= n; i++ {
		out = append(out, 2*x[last]-x[last-i])
	}
	return out
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
