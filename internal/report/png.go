package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/units"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

var (
	rawColor       = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	filteredColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	thresholdColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

func toXYs(pts []point) plotter.XYs {
	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.t, Y: p.v}
	}
	return xys
}

// WritePNG draws the raw waveform, the filtered waveform when present, the
// threshold and the detected events to path. The image format follows the
// extension (.png, .svg or .pdf).
func WritePNG(path string, raw, filtered *waveform.Waveform, events detect.EventSet) error {
	unit, factor := displayUnit(raw)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %d events above %g %s", raw.ID(), events.Len(), events.Threshold*factor, unit)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = units.Label(unit)

	rawLine, err := plotter.NewLine(toXYs(scaled(decimate(raw, DefaultMaxPoints), factor)))
	if err != nil {
		return fmt.Errorf("failed to build raw line: %w", err)
	}
	rawLine.Color = rawColor
	rawLine.Width = vg.Points(0.5)
	p.Add(rawLine)
	p.Legend.Add("raw", rawLine)

	if filtered != nil {
		fLine, err := plotter.NewLine(toXYs(scaled(decimate(filtered, DefaultMaxPoints), factor)))
		if err != nil {
			return fmt.Errorf("failed to build filtered line: %w", err)
		}
		fLine.Color = filteredColor
		fLine.Width = vg.Points(1)
		p.Add(fLine)
		p.Legend.Add("filtered", fLine)
	}

	threshold := plotter.NewFunction(func(float64) float64 { return events.Threshold * factor })
	threshold.Color = thresholdColor
	threshold.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(threshold)
	p.Legend.Add("threshold", threshold)

	if !events.Empty() {
		pts := make([]point, len(events.Events))
		for i, ev := range events.Events {
			pts[i] = point{ev.Time, ev.Amplitude * factor}
		}
		sc, err := plotter.NewScatter(toXYs(pts))
		if err != nil {
			return fmt.Errorf("failed to build event scatter: %w", err)
		}
		sc.GlyphStyle.Color = thresholdColor
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("events", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
