// Package spectrum computes amplitude spectra of waveforms so runs can
// report where the signal energy sits relative to the configured band.
package spectrum

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// ErrTooShort is returned for waveforms with fewer than two samples.
var ErrTooShort = errors.New("spectrum: need at least two samples")

// Spectrum is the one-sided amplitude spectrum of a Hann-windowed waveform.
// Amplitudes are scaled so a pure sine of amplitude A peaks near A.
type Spectrum struct {
	Freqs      []float64
	Amplitudes []float64
	BinWidth   float64
}

// Peak is a spectral maximum refined by parabolic interpolation.
type Peak struct {
	Freq      float64
	Amplitude float64
}

// Analyze windows the whole waveform and transforms it.
func Analyze(w *waveform.Waveform) (*Spectrum, error) {
	n := w.Len()
	if n < 2 {
		return nil, ErrTooShort
	}

	win := window.Hann(n)
	samples := w.Amplitudes()
	// remove the mean so DC leakage does not mask low-frequency content
	mean := floats.Sum(samples) / float64(n)
	floats.AddConst(-mean, samples)
	floats.Mul(samples, win)

	out := fft.FFTReal(samples)
	gain := floats.Sum(win)
	if gain == 0 {
		gain = float64(n)
	}

	bins := n/2 + 1
	s := &Spectrum{
		Freqs:      make([]float64, bins),
		Amplitudes: make([]float64, bins),
		BinWidth:   w.SampleRate() / float64(n),
	}
	for i := 0; i < bins; i++ {
		s.Freqs[i] = float64(i) * s.BinWidth
		amp := cmplx.Abs(out[i]) / gain
		if i != 0 && !(n%2 == 0 && i == n/2) {
			amp *= 2
		}
		s.Amplitudes[i] = amp
	}
	return s, nil
}

// bins returns the half-open index range covering [minFreq, maxFreq].
func (s *Spectrum) bins(minFreq, maxFreq float64) (int, int) {
	lo := int(math.Ceil(minFreq / s.BinWidth))
	hi := int(math.Floor(maxFreq/s.BinWidth)) + 1
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.Amplitudes) {
		hi = len(s.Amplitudes)
	}
	return lo, hi
}

// Dominant returns the strongest component between minFreq and maxFreq.
// ok is false when the range holds no bins.
func (s *Spectrum) Dominant(minFreq, maxFreq float64) (p Peak, ok bool) {
	lo, hi := s.bins(minFreq, maxFreq)
	if lo >= hi {
		return Peak{}, false
	}
	idx := lo + floats.MaxIdx(s.Amplitudes[lo:hi])
	p = Peak{Freq: s.Freqs[idx], Amplitude: s.Amplitudes[idx]}

	if idx <= 0 || idx >= len(s.Amplitudes)-1 {
		return p, true
	}
	y1, y2, y3 := s.Amplitudes[idx-1], s.Amplitudes[idx], s.Amplitudes[idx+1]
	if denom := 2 * (2*y2 - y1 - y3); denom != 0 {
		delta := (y3 - y1) / denom
		p.Freq += delta * s.BinWidth
	}
	return p, true
}

// BandEnergy sums squared amplitudes between minFreq and maxFreq.
func (s *Spectrum) BandEnergy(minFreq, maxFreq float64) float64 {
	lo, hi := s.bins(minFreq, maxFreq)
	if lo >= hi {
		return 0
	}
	return floats.Dot(s.Amplitudes[lo:hi], s.Amplitudes[lo:hi])
}

// BandFraction is the share of total spectral energy inside the band.
func (s *Spectrum) BandFraction(minFreq, maxFreq float64) float64 {
	total := floats.Dot(s.Amplitudes, s.Amplitudes)
	if total == 0 {
		return 0
	}
	return s.BandEnergy(minFreq, maxFreq) / total
}
