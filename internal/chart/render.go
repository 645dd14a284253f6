package chart

import (
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// ImageFormat selects the static image encoding.
type ImageFormat string

const (
	ImagePNG ImageFormat = "png"
	ImageSVG ImageFormat = "svg"
)

// ImageOptions sizes and colors a rendered image.
type ImageOptions struct {
	Width  int
	Height int
	// Palette holds series colors as hex strings ("#1f77b4" or "1f77b4").
	Palette []string
}

func (o ImageOptions) withDefaults() ImageOptions {
	if o.Width <= 0 {
		o.Width = 1024
	}
	if o.Height <= 0 {
		o.Height = 576
	}
	if len(o.Palette) == 0 {
		o.Palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf"}
	}
	return o
}

func (o ImageOptions) color(i int) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(o.Palette[i%len(o.Palette)], "#"))
}

func provider(f ImageFormat) (gochart.RendererProvider, error) {
	switch f {
	case ImagePNG, "":
		return gochart.PNG, nil
	case ImageSVG:
		return gochart.SVG, nil
	}
	return nil, &dataset.SelectionError{Op: "chart", Reason: fmt.Sprintf("unsupported image format %q", f)}
}

// RenderImage draws fig as a static PNG or SVG. Interactive features have no
// static equivalent: radar and candlestick traces are drawn as lines, sankey
// links as bars, boxes as outlines and the KPI indicator as a mean/median
// bar pair.
func RenderImage(fig *Figure, format ImageFormat, w io.Writer, opt ImageOptions) error {
	rp, err := provider(format)
	if err != nil {
		return err
	}
	opt = opt.withDefaults()
	var r interface {
		Render(gochart.RendererProvider, io.Writer) error
	}
	switch {
	case fig.Indicator != nil:
		r = kpiChart(fig, opt)
	case len(fig.Traces) == 1 && (fig.Traces[0].Kind == KindPie || fig.Traces[0].Kind == KindTreemap):
		r, err = pieChart(fig, opt)
	case len(fig.Traces) > 0 && allKinds(fig.Traces, KindBox):
		r = boxChart(fig, opt)
	case len(fig.Traces) > 0 && allKinds(fig.Traces, KindBar, KindHistogram, KindWaterfall, KindFunnel, KindSankey):
		r, err = barChart(fig, opt)
	default:
		r, err = lineChart(fig, opt)
	}
	if err != nil {
		return err
	}
	if err := r.Render(rp, w); err != nil {
		return fmt.Errorf("render %s image: %w", format, err)
	}
	return nil
}

func allKinds(ts []Trace, kinds ...string) bool {
	for _, t := range ts {
		ok := false
		for _, k := range kinds {
			if t.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func nothingToPlot() error {
	return &dataset.SelectionError{Op: "chart", Reason: "nothing to plot"}
}

func titleStyle() gochart.Style {
	return gochart.Style{FontSize: 14}
}

func pieChart(fig *Figure, opt ImageOptions) (*gochart.PieChart, error) {
	t := fig.Traces[0]
	var vals []gochart.Value
	for i, v := range t.Values {
		if v <= 0 {
			continue
		}
		vals = append(vals, gochart.Value{
			Value: v,
			Label: t.Labels[i],
			Style: gochart.Style{FillColor: opt.color(i), StrokeColor: drawing.ColorWhite},
		})
	}
	if len(vals) == 0 {
		return nil, &dataset.SelectionError{Op: "chart", Reason: "pie and treemap charts need positive values"}
	}
	return &gochart.PieChart{
		Title:      fig.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Values:     vals,
	}, nil
}

func yRange(vals ...float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 1
	}
	if lo > 0 {
		lo = 0
	}
	if hi <= lo {
		hi = lo + 1
	}
	pad := (hi - lo) * 0.05
	if lo < 0 {
		lo -= pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi + pad}
}

func barChart(fig *Figure, opt ImageOptions) (*gochart.BarChart, error) {
	var bars []gochart.Value
	var all []float64
	for ti, t := range fig.Traces {
		labels := t.Labels
		if t.Kind == KindSankey {
			labels = make([]string, len(t.Values))
			for i := range t.Values {
				labels[i] = t.Labels[t.Sources[i]] + " " + t.Labels[t.Targets[i]]
			}
		}
		for i, v := range t.Values {
			if t.Kind == KindWaterfall {
				v = t.Base[i] + v
			}
			label := labels[i]
			if len(fig.Traces) > 1 {
				label = label + " (" + t.Name + ")"
			}
			c := opt.color(ti)
			if t.Kind == KindWaterfall && t.Values[i] < 0 {
				c = opt.color(ti + 3)
			}
			bars = append(bars, gochart.Value{Value: v, Label: label, Style: gochart.Style{FillColor: c, StrokeColor: c}})
			all = append(all, v)
		}
	}
	if len(bars) == 0 {
		return nil, nothingToPlot()
	}
	width := (opt.Width - 120) / len(bars)
	if width < 2 {
		width = 2
	}
	return &gochart.BarChart{
		Title:      fig.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   width * 3 / 4,
		BarSpacing: width - width*3/4,
		YAxis:      gochart.YAxis{Name: fig.Layout.YTitle, Range: yRange(all...)},
		Bars:       bars,
	}, nil
}

func kpiChart(fig *Figure, opt ImageOptions) *gochart.BarChart {
	ind := fig.Indicator
	title := fmt.Sprintf("%s: %s (Δ %+g vs median)", ind.Label, dataset.FormatNumber(math.Round(ind.Value*100)/100), math.Round(ind.Delta*100)/100)
	return &gochart.BarChart{
		Title:      title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   opt.Width / 6,
		YAxis:      gochart.YAxis{Range: yRange(ind.Value, ind.Reference)},
		Bars: []gochart.Value{
			{Value: ind.Value, Label: "Mean", Style: gochart.Style{FillColor: opt.color(0), StrokeColor: opt.color(0)}},
			{Value: ind.Reference, Label: "Median", Style: gochart.Style{FillColor: opt.color(1), StrokeColor: opt.color(1)}},
		},
	}
}

// categoryIndex assigns every distinct label across traces a position on
// the x axis in first-seen order. The ticks are bracketed by two unlabeled
// ones half a step outside; go-chart takes the x range from the ticks, so a
// single category still spans a unit width.
func categoryIndex(ts []Trace) (map[string]float64, []gochart.Tick) {
	pos := map[string]float64{}
	var ticks []gochart.Tick
	for _, t := range ts {
		for _, l := range t.Labels {
			if _, ok := pos[l]; ok {
				continue
			}
			pos[l] = float64(len(ticks))
			ticks = append(ticks, gochart.Tick{Value: pos[l], Label: l})
		}
	}
	if len(ticks) > 20 {
		step := int(math.Ceil(float64(len(ticks)) / 20))
		thin := ticks[:0:0]
		for i := 0; i < len(ticks); i += step {
			thin = append(thin, ticks[i])
		}
		ticks = thin
	}
	if len(pos) > 0 {
		ticks = append([]gochart.Tick{{Value: -0.5}}, ticks...)
		ticks = append(ticks, gochart.Tick{Value: float64(len(pos)) - 0.5})
	}
	return pos, ticks
}

func lineChart(fig *Figure, opt ImageOptions) (*gochart.Chart, error) {
	pos, ticks := categoryIndex(fig.Traces)
	if len(pos) == 0 {
		return nil, nothingToPlot()
	}
	var series []gochart.Series
	var primary, secondary []float64
	add := func(name string, labels []string, ys []float64, st gochart.Style, axis gochart.YAxisType) {
		xs := make([]float64, len(labels))
		for i, l := range labels {
			xs[i] = pos[l]
		}
		series = append(series, gochart.ContinuousSeries{Name: name, XValues: xs, YValues: ys, Style: st, YAxis: axis})
		if axis == gochart.YAxisSecondary {
			secondary = append(secondary, ys...)
		} else {
			primary = append(primary, ys...)
		}
	}
	n := 0
	for _, t := range fig.Traces {
		c := opt.color(n)
		switch t.Kind {
		case KindCandlestick:
			for i, part := range [][]float64{t.Open, t.High, t.Low, t.Close} {
				add([]string{"Open", "High", "Low", "Close"}[i], t.Labels, part, lineStyle(opt.color(n)), gochart.YAxisPrimary)
				n++
			}
			continue
		case KindScatter:
			st := gochart.Style{StrokeColor: drawing.ColorTransparent, DotColor: c, DotWidth: 4}
			if len(t.Sizes) == len(t.Values) {
				st.DotWidthProvider = sizeProvider(t.Sizes)
			}
			add(t.Name, t.Labels, t.Values, st, gochart.YAxisPrimary)
		case KindArea, KindRadar:
			st := lineStyle(c)
			st.FillColor = c.WithAlpha(64)
			add(t.Name, t.Labels, t.Values, st, gochart.YAxisPrimary)
		case KindBar:
			st := lineStyle(c)
			st.FillColor = c.WithAlpha(160)
			add(t.Name, t.Labels, t.Values, st, gochart.YAxisPrimary)
		default:
			axis := gochart.YAxisPrimary
			st := lineStyle(c)
			if t.Axis == "y2" {
				axis = gochart.YAxisSecondary
				st.DotColor, st.DotWidth = c, 3
			}
			add(t.Name, t.Labels, t.Values, st, axis)
		}
		n++
	}
	ch := &gochart.Chart{
		Title:      fig.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  fig.Layout.XTitle,
			Ticks: ticks,
		},
		YAxis:  gochart.YAxis{Name: fig.Layout.YTitle, Range: yRange(primary...)},
		Series: series,
	}
	if len(secondary) > 0 {
		ch.YAxisSecondary = gochart.YAxis{Name: fig.Layout.Y2Title, Range: yRange(secondary...)}
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(ch)}
	}
	return ch, nil
}

// boxChart outlines each box trace at its own x position: the q1..q3 box,
// a median bar and whiskers out to lower and upper.
func boxChart(fig *Figure, opt ImageOptions) *gochart.Chart {
	const half = 0.25
	ticks := []gochart.Tick{{Value: -0.5}}
	var series []gochart.Series
	var all []float64
	seg := func(st gochart.Style, xs, ys []float64) {
		series = append(series, gochart.ContinuousSeries{XValues: xs, YValues: ys, Style: st})
	}
	for i, t := range fig.Traces {
		x := float64(i)
		ticks = append(ticks, gochart.Tick{Value: x, Label: t.Name})
		lower, q1, med, q3, upper := t.Values[0], t.Values[1], t.Values[2], t.Values[3], t.Values[4]
		all = append(all, t.Values...)
		st := lineStyle(opt.color(i))
		seg(st, []float64{x - half, x + half, x + half, x - half, x - half}, []float64{q1, q1, q3, q3, q1})
		seg(st, []float64{x, x}, []float64{lower, q1})
		seg(st, []float64{x, x}, []float64{q3, upper})
		seg(st, []float64{x - half/2, x + half/2}, []float64{lower, lower})
		seg(st, []float64{x - half/2, x + half/2}, []float64{upper, upper})
		wide := st
		wide.StrokeWidth = 4
		seg(wide, []float64{x - half, x + half}, []float64{med, med})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(fig.Traces)) - 0.5})
	return &gochart.Chart{
		Title:      fig.Title,
		TitleStyle: titleStyle(),
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: fig.Layout.XTitle, Ticks: ticks},
		YAxis:      gochart.YAxis{Name: fig.Layout.YTitle, Range: boxRange(all)},
		Series:     series,
	}
}

// boxRange pads the data range without forcing zero into view.
func boxRange(vals []float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.1, 1)
	}
	return &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func lineStyle(c drawing.Color) gochart.Style {
	return gochart.Style{StrokeColor: c, StrokeWidth: 2}
}

// sizeProvider maps marker sizes linearly onto 3..18 pixels.
func sizeProvider(sizes []float64) gochart.SizeProvider {
	hi := 0.0
	for _, s := range sizes {
		hi = math.Max(hi, s)
	}
	return func(_, _ gochart.Range, index int, _, _ float64) float64 {
		if hi == 0 || index >= len(sizes) {
			return 4
		}
		return 3 + 15*sizes[index]/hi
	}
}
