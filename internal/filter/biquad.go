package filter

import "math"

// biquad is one second-order IIR section in transposed direct form II.
// First-order sections set b2 and a2 to zero.
type biquad struct {
	// numerator
	b0, b1, b2 float64
	// denominator, a0 normalised to 1
	a1, a2 float64
}

// dcGain is the section's response to a constant input.
func (s biquad) dcGain() float64 {
	return (s.b0 + s.b1 + s.b2) / (1 + s.a1 + s.a2)
}

// steadyState returns the delay-line contents that make a constant input u
// produce a constant output from the first sample.
func (s biquad) steadyState(u float64) (z1, z2 float64) {
	y := s.dcGain() * u
	z2 = s.b2*u - s.a2*y
	z1 = s.b1*u - s.a1*y + z2
	return z1, z2
}

// run filters x in place starting from the given delay-line state.
func (s biquad) run(x []float64, z1, z2 float64) {
	for i, in := range x {
		out := s.b0*in + z1
		z1 = s.b1*in - s.a1*out + z2
		z2 = s.b2*in - s.a2*out
		x[i] = out
	}
}

type passKind int

const (
	lowpass passKind = iota
	highpass
)

// butterworth designs an order-n Butterworth low- or high-pass filter as a
// cascade of biquads via the bilinear transform with a pre-warped cutoff.
// Sections are ordered from low to high Q.
func butterworth(kind passKind, order int, sampleRate, cutoff float64) []biquad {
	k := math.Tan(math.Pi * cutoff / sampleRate)
	sections := make([]biquad, 0, (order+1)/2)

	for i := order/2 - 1; i >= 0; i-- {
		// analog prototype pole pair at angle theta from the imaginary axis
		theta := math.Pi * float64(2*i+1) / float64(2*order)
		invQ := 2 * math.Sin(theta)
		norm := 1 / (1 + k*invQ + k*k)

		s := biquad{
			a1: 2 * (k*k - 1) * norm,
			a2: (1 - k*invQ + k*k) * norm,
		}
		switch kind {
		case lowpass:
			s.b0 = k * k * norm
			s.b1 = 2 * s.b0
			s.b2 = s.b0
		case highpass:
			s.b0 = norm
			s.b1 = -2 * norm
			s.b2 = norm
		}
		sections = append(sections, s)
	}

	if order%2 == 1 {
		norm := 1 / (1 + k)
		s := biquad{a1: (k - 1) * norm}
		switch kind {
		case lowpass:
			s.b0 = k * norm
			s.b1 = s.b0
		case highpass:
			s.b0 = norm
			s.b1 = -norm
		}
		sections = append(sections, s)
	}
	return sections
}

// cascade runs x through every section, seeding each delay line with the
// steady state for the first input value.
func cascade(sections []biquad, x []float64) {
	if len(x) == 0 {
		return
	}
	u := x[0]
	for _, s := range sections {
		z1, z2 := s.steadyState(u)
		u *= s.dcGain()
		s.run(x, z1, z2)
	}
}
