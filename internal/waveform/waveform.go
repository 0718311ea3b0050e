// Package waveform defines the in-memory seismic waveform shared by the
// loaders, the filter and the detector.
//
// A Waveform is immutable once constructed: constructors copy their inputs
// and accessors hand out copies, so a filtered waveform is always a new value
// rather than an in-place edit of the raw one.
package waveform

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Column names of the tabular schema. Detection output reuses the same names
// so exported rows can be loaded back through the tabular path.
const (
	TimeColumn     = "time_rel(sec)"
	VelocityColumn = "velocity(m/s)"
)

var (
	ErrEmpty          = errors.New("waveform has no samples")
	ErrLengthMismatch = errors.New("time and amplitude sequences differ in length")
	ErrNotIncreasing  = errors.New("time sequence is not strictly increasing")
	ErrNonFinite      = errors.New("sample is not a finite number")
)

// Schema describes the column layout a waveform was read from. Columns other
// than the time and amplitude ones are carried through untouched as Aux
// values.
type Schema struct {
	Columns         []string
	TimeColumn      int
	AmplitudeColumn int
}

// DefaultSchema is the two-column layout used for binary input and for
// tabular input without extra columns.
func DefaultSchema() Schema {
	return Schema{
		Columns:         []string{TimeColumn, VelocityColumn},
		TimeColumn:      0,
		AmplitudeColumn: 1,
	}
}

// Width returns the number of columns in the layout.
func (s Schema) Width() int { return len(s.Columns) }

// IsZero reports whether s is the zero value.
func (s Schema) IsZero() bool { return len(s.Columns) == 0 }

// Clone returns a deep copy of s.
func (s Schema) Clone() Schema {
	c := s
	c.Columns = append([]string(nil), s.Columns...)
	return c
}

// Validate checks that the time and amplitude columns exist and differ.
func (s Schema) Validate() error {
	n := len(s.Columns)
	if s.TimeColumn < 0 || s.TimeColumn >= n {
		return fmt.Errorf("time column index %d out of range for %d columns", s.TimeColumn, n)
	}
	if s.AmplitudeColumn < 0 || s.AmplitudeColumn >= n {
		return fmt.Errorf("amplitude column index %d out of range for %d columns", s.AmplitudeColumn, n)
	}
	if s.TimeColumn == s.AmplitudeColumn {
		return fmt.Errorf("time and amplitude share column %d", s.TimeColumn)
	}
	return nil
}

// Meta carries the optional descriptive fields of a waveform.
type Meta struct {
	// ID names the source: a SEED identifier for binary traces, a file label
	// for tabular input.
	ID string
	// Start is the absolute time of the first sample. Zero for tabular input,
	// whose times are relative.
	Start time.Time
	// SampleRate in Hz. When zero it is derived from the median time step.
	SampleRate float64
	// Schema defaults to DefaultSchema when zero.
	Schema Schema
	// Aux holds one row of passthrough values per sample, Schema.Width() wide.
	// The time and amplitude positions are ignored. May be nil.
	Aux [][]string
}

// Waveform is an ordered sequence of (time, amplitude) samples.
type Waveform struct {
	id         string
	start      time.Time
	sampleRate float64
	times      []float64
	amplitudes []float64
	schema     Schema
	aux        [][]string
}

// New validates and copies the given samples into a Waveform.
func New(times, amplitudes []float64, meta Meta) (*Waveform, error) {
	if len(times) != len(amplitudes) {
		return nil, fmt.Errorf("%w: %d times, %d amplitudes", ErrLengthMismatch, len(times), len(amplitudes))
	}
	if len(times) == 0 {
		return nil, ErrEmpty
	}
	for i := range times {
		if !isFinite(times[i]) || !isFinite(amplitudes[i]) {
			return nil, fmt.Errorf("%w at sample %d", ErrNonFinite, i)
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, fmt.Errorf("%w at sample %d (%g after %g)", ErrNotIncreasing, i, times[i], times[i-1])
		}
	}

	schema := meta.Schema
	if schema.IsZero() {
		schema = DefaultSchema()
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if meta.Aux != nil && len(meta.Aux) != len(times) {
		return nil, fmt.Errorf("%w: %d aux rows for %d samples", ErrLengthMismatch, len(meta.Aux), len(times))
	}

	w := &Waveform{
		id:         meta.ID,
		start:      meta.Start,
		sampleRate: meta.SampleRate,
		times:      append([]float64(nil), times...),
		amplitudes: append([]float64(nil), amplitudes...),
		schema:     schema.Clone(),
	}
	if meta.Aux != nil {
		w.aux = make([][]string, len(meta.Aux))
		for i, row := range meta.Aux {
			w.aux[i] = append([]string(nil), row...)
		}
	}
	if w.sampleRate <= 0 {
		w.sampleRate = medianRate(w.times)
	}
	return w, nil
}

// FromSamples builds a uniformly sampled waveform whose first sample is at
// relative time zero.
func FromSamples(amplitudes []float64, sampleRate float64, meta Meta) (*Waveform, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("invalid sample rate %g", sampleRate)
	}
	times := make([]float64, len(amplitudes))
	for i := range times {
		times[i] = float64(i) / sampleRate
	}
	meta.SampleRate = sampleRate
	return New(times, amplitudes, meta)
}

// WithAmplitudes returns a new waveform sharing this one's time axis and
// metadata but carrying the given amplitudes.
func (w *Waveform) WithAmplitudes(amplitudes []float64) (*Waveform, error) {
	if len(amplitudes) != len(w.times) {
		return nil, fmt.Errorf("%w: %d times, %d amplitudes", ErrLengthMismatch, len(w.times), len(amplitudes))
	}
	for i, a := range amplitudes {
		if !isFinite(a) {
			return nil, fmt.Errorf("%w at sample %d", ErrNonFinite, i)
		}
	}
	c := *w
	// times and aux are never written after construction, so sharing is safe.
	c.amplitudes = append([]float64(nil), amplitudes...)
	return &c, nil
}

func (w *Waveform) Len() int                { return len(w.times) }
func (w *Waveform) ID() string              { return w.id }
func (w *Waveform) Start() time.Time        { return w.start }
func (w *Waveform) SampleRate() float64     { return w.sampleRate }
func (w *Waveform) Schema() Schema          { return w.schema.Clone() }
func (w *Waveform) Time(i int) float64      { return w.times[i] }
func (w *Waveform) Amplitude(i int) float64 { return w.amplitudes[i] }
func (w *Waveform) HasAux() bool            { return w.aux != nil }
func (w *Waveform) Times() []float64        { return append([]float64(nil), w.times...) }
func (w *Waveform) Amplitudes() []float64   { return append([]float64(nil), w.amplitudes...) }
func (w *Waveform) Duration() float64       { return w.times[len(w.times)-1] - w.times[0] }

// Nyquist returns half the sample rate.
func (w *Waveform) Nyquist() float64 { return w.sampleRate / 2 }

// Aux returns a copy of the passthrough row for sample i, or nil.
func (w *Waveform) Aux(i int) []string {
	if w.aux == nil {
		return nil
	}
	return append([]string(nil), w.aux[i]...)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// medianRate estimates the sample rate from the median time step, which is
// robust to the odd jittered timestamp in exported tables.
func medianRate(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	steps := make([]float64, len(times)-1)
	for i := 1; i < len(times); i++ {
		steps[i-1] = times[i] - times[i-1]
	}
	sort.Float64s(steps)
	m := steps[len(steps)/2]
	if len(steps)%2 == 0 {
		m = (steps[len(steps)/2-1] + steps[len(steps)/2]) / 2
	}
	return 1 / m
}
