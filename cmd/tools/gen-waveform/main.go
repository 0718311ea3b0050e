// Command gen-waveform generates synthetic seismograms for exercising the
// detector: a background tone, Gaussian noise and an optional decaying
// burst, written as CSV or miniSEED by output extension.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/moonquake.report/internal/mseed"
	"github.com/banshee-data/moonquake.report/internal/source"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

// params describes one synthetic trace.
type params struct {
	SampleRate float64
	Duration   float64
	Start      time.Time
	ID         string // NET.STA.LOC.CHA

	ToneFreq float64
	ToneAmp  float64
	Noise    float64 // standard deviation
	Seed     uint64

	BurstAt    float64 // seconds; negative disables the burst
	BurstFreq  float64
	BurstAmp   float64
	BurstDecay float64 // e-folding time in seconds
}

// synthesize returns the samples described by p.
func synthesize(p params) []float64 {
	n := int(math.Round(p.Duration * p.SampleRate))
	out := make([]float64, n)

	noise := distuv.Normal{Mu: 0, Sigma: p.Noise, Src: rand.NewPCG(p.Seed, p.Seed^0x5eed)}
	for i := range out {
		t := float64(i) / p.SampleRate
		v := p.ToneAmp * math.Sin(2*math.Pi*p.ToneFreq*t)
		if p.Noise > 0 {
			v += noise.Rand()
		}
		if p.BurstAt >= 0 && t >= p.BurstAt {
			dt := t - p.BurstAt
			v += p.BurstAmp * math.Exp(-dt/p.BurstDecay) * math.Sin(2*math.Pi*p.BurstFreq*dt)
		}
		out[i] = v
	}
	return out
}

// writeCSV writes samples with the standard two columns.
func writeCSV(w io.Writer, samples []float64, sampleRate float64) error {
	if _, err := fmt.Fprintf(w, "%s,%s\n", waveform.TimeColumn, waveform.VelocityColumn); err != nil {
		return err
	}
	for i, v := range samples {
		t := float64(i) / sampleRate
		if _, err := fmt.Fprintf(w, "%s,%s\n", strconv.FormatFloat(t, 'g', -1, 64), strconv.FormatFloat(v, 'g', -1, 64)); err != nil {
			return err
		}
	}
	return nil
}

func writeMiniSEED(w io.Writer, samples []float64, p params) error {
	parts := strings.Split(p.ID, ".")
	if len(parts) != 4 {
		return fmt.Errorf("trace id %q is not NET.STA.LOC.CHA", p.ID)
	}
	return mseed.Encode(w, mseed.Trace{
		Network:    parts[0],
		Station:    parts[1],
		Location:   parts[2],
		Channel:    parts[3],
		Start:      p.Start,
		SampleRate: p.SampleRate,
		Samples:    samples,
	}, mseed.EncodeOptions{})
}

func generate(path string, p params) (err error) {
	if p.SampleRate <= 0 || p.Duration <= 0 {
		return fmt.Errorf("sample rate and duration must be positive")
	}
	if p.BurstAt >= 0 && p.BurstDecay <= 0 {
		return fmt.Errorf("burst decay must be positive")
	}
	format, err := source.FormatFromPath(path)
	if err != nil {
		return err
	}

	samples := synthesize(p)
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if format == source.FormatMiniSEED {
		return writeMiniSEED(f, samples, p)
	}
	return writeCSV(f, samples, p.SampleRate)
}

func main() {
	output := flag.String("o", "synthetic.csv", "output path (.csv or .mseed)")
	rate := flag.Float64("rate", 6.625, "sample rate in Hz")
	duration := flag.Float64("duration", 3600, "length in seconds")
	start := flag.String("start", "1970-01-19T20:25:00Z", "start time (RFC 3339, miniSEED only)")
	id := flag.String("id", "XA.S12.00.MHZ", "trace id NET.STA.LOC.CHA (miniSEED only)")
	toneFreq := flag.Float64("tone-freq", 0.05, "background tone frequency in Hz")
	toneAmp := flag.Float64("tone-amp", 1e-10, "background tone amplitude in m/s")
	noise := flag.Float64("noise", 2e-10, "Gaussian noise standard deviation in m/s")
	seed := flag.Uint64("seed", 1, "noise seed")
	burstAt := flag.Float64("burst-at", 1800, "burst onset in seconds; negative for none")
	burstFreq := flag.Float64("burst-freq", 0.3, "burst frequency in Hz")
	burstAmp := flag.Float64("burst-amp", 5e-9, "burst peak amplitude in m/s")
	burstDecay := flag.Float64("burst-decay", 120, "burst e-folding time in seconds")
	flag.Parse()

	t0, err := time.Parse(time.RFC3339, *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}

	p := params{
		SampleRate: *rate,
		Duration:   *duration,
		Start:      t0,
		ID:         *id,
		ToneFreq:   *toneFreq,
		ToneAmp:    *toneAmp,
		Noise:      *noise,
		Seed:       *seed,
		BurstAt:    *burstAt,
		BurstFreq:  *burstFreq,
		BurstAmp:   *burstAmp,
		BurstDecay: *burstDecay,
	}
	if err := generate(*output, p); err != nil {
		log.Fatalf("failed to generate waveform: %v", err)
	}
	log.Printf("✓ Created: %s (%d samples)", *output, int(math.Round(p.Duration*p.SampleRate)))
}
