package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/moonquake.report/internal/detect"
	"github.com/banshee-data/moonquake.report/internal/spectrum"
	"github.com/banshee-data/moonquake.report/internal/units"
	"github.com/banshee-data/moonquake.report/internal/waveform"
)

func lineData(pts []point) []opts.LineData {
	data := make([]opts.LineData, len(pts))
	for i, p := range pts {
		data[i] = opts.LineData{Value: []interface{}{p.t, p.v}}
	}
	return data
}

// WriteHTML renders an interactive page with the waveform chart and, when
// the raw waveform is long enough, its amplitude spectrum.
func WriteHTML(w io.Writer, raw, filtered *waveform.Waveform, events detect.EventSet) error {
	page := components.NewPage()
	page.PageTitle = "moonquake report: " + raw.ID()
	page.AddCharts(waveformChart(raw, filtered, events))

	if spec, err := spectrum.Analyze(raw); err == nil {
		page.AddCharts(spectrumChart(spec))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func waveformChart(raw, filtered *waveform.Waveform, events detect.EventSet) *charts.Line {
	unit, factor := displayUnit(raw)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: raw.ID(), Subtitle: fmt.Sprintf("samples=%d rate=%gHz events=%d threshold=%g %s", raw.Len(), raw.SampleRate(), events.Len(), events.Threshold*factor, unit)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: units.Label(unit)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	noSymbol := charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)})
	line.AddSeries("raw", lineData(scaled(decimate(raw, DefaultMaxPoints), factor)), noSymbol)
	if filtered != nil {
		line.AddSeries("filtered", lineData(scaled(decimate(filtered, DefaultMaxPoints), factor)), noSymbol)
	}
	ends := []point{
		{raw.Time(0), events.Threshold * factor},
		{raw.Time(raw.Len() - 1), events.Threshold * factor},
	}
	line.AddSeries("threshold", lineData(ends), noSymbol,
		charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	if !events.Empty() {
		pts := make([]opts.ScatterData, len(events.Events))
		for i, ev := range events.Events {
			pts[i] = opts.ScatterData{Value: []interface{}{ev.Time, ev.Amplitude * factor}}
		}
		scatter := charts.NewScatter()
		scatter.AddSeries("events", pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
		line.Overlap(scatter)
	}
	return line
}

func spectrumChart(spec *spectrum.Spectrum) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Amplitude spectrum", Subtitle: fmt.Sprintf("bin=%.4gHz", spec.BinWidth)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Frequency (Hz)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "log", Name: "Amplitude"}),
	)

	pts := make([]point, 0, len(spec.Freqs))
	for i, f := range spec.Freqs {
		// skip DC and empty bins, which a log axis cannot show
		if i == 0 || spec.Amplitudes[i] <= 0 {
			continue
		}
		pts = append(pts, point{f, spec.Amplitudes[i]})
	}
	line.AddSeries("spectrum", lineData(pts), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}
