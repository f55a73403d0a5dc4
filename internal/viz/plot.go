package viz

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var ErrNoData = errors.New("viz: nothing to plot")

type PlotOptions struct {
	Width   int
	Height  int
	Caption string
	// Separate draws one graph per series instead of overlaying them.
	Separate bool
	Theme    Theme
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 15, Theme: CurrentTheme}
}

// Plot renders series as an asciigraph line chart with a legend.
func Plot(series []Series, opts PlotOptions) (string, error) {
	if len(series) == 0 || len(series[0].Values) == 0 {
		return "", ErrNoData
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultPlotOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if len(opts.Theme.Ansi) == 0 {
		opts.Theme = CurrentTheme
	}

	if opts.Separate {
		var out string
		for i, s := range series {
			graph := asciigraph.Plot(finite(s.Values),
				asciigraph.Height(opts.Height),
				asciigraph.Width(opts.Width),
				asciigraph.SeriesColors(opts.Theme.Ansi[i%len(opts.Theme.Ansi)]),
				asciigraph.Caption(s.Name),
			)
			out += graph + "\n\n"
		}
		return out, nil
	}

	data := make([][]float64, len(series))
	legends := make([]string, len(series))
	for i, s := range series {
		data[i] = finite(s.Values)
		legends[i] = s.Name
	}
	options := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(opts.Theme.ansiColors(len(series))...),
		asciigraph.SeriesLegends(legends...),
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.PlotMany(data, options...), nil
}

// finite replaces NaN and infinities, which asciigraph cannot scale.
func finite(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}

type ChartOptions struct {
	Title  string
	Width  int
	Height int
	Theme  Theme
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 1024, Height: 512, Theme: CurrentTheme}
}

func WritePNG(w io.Writer, series []Series, opts ChartOptions) error {
	return render(w, chart.PNG, series, opts)
}

func WriteSVG(w io.Writer, series []Series, opts ChartOptions) error {
	return render(w, chart.SVG, series, opts)
}

func render(w io.Writer, rp chart.RendererProvider, series []Series, opts ChartOptions) error {
	graph, err := newChart(series, opts)
	if err != nil {
		return err
	}
	return graph.Render(rp, w)
}

// newChart lays out the series as go-chart lines. A constant y range is
// widened by one unit each way, since go-chart cannot scale a zero range.
func newChart(series []Series, opts ChartOptions) (*chart.Chart, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultChartOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}
	if len(opts.Theme.Palette) == 0 {
		opts.Theme = CurrentTheme
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	lines := make([]chart.Series, 0, len(series))
	for i, s := range series {
		if len(s.Times) < 2 || len(s.Times) != len(s.Values) {
			return nil, fmt.Errorf("%w: series %q needs at least two aligned points", ErrNoData, s.Name)
		}
		ys := finite(s.Values)
		for _, v := range ys {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		lines = append(lines, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.Times,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(opts.Theme.seriesColor(i)),
				StrokeWidth: 2.0,
			},
		})
	}

	graph := &chart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name:  "day",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%g", v.(float64))
			},
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontSize: 10.0},
		},
		Series: lines,
	}
	if hi == lo {
		graph.YAxis.Range = &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	graph.Elements = []chart.Renderable{chart.Legend(graph)}
	return graph, nil
}
