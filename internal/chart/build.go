package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// input is what every builder receives: the cleaned wide rows and their
// melted form.
type input struct {
	spec  Spec
	data  *dataset.Dataset
	long  []LongRow
	xKind dataset.Kind
}

func (in *input) x() *dataset.Column { return in.data.Column(in.spec.X) }

func (in *input) y(i int) (*dataset.Column, error) {
	if i >= len(in.spec.Y) {
		return nil, &dataset.SelectionError{Op: "chart", Reason: fmt.Sprintf("%s chart needs at least %d value column(s), got %d", in.spec.Type, i+1, len(in.spec.Y))}
	}
	return in.data.Column(in.spec.Y[i]), nil
}

func (in *input) labels() []string {
	xc := in.x()
	out := make([]string, len(xc.Cells))
	for i, c := range xc.Cells {
		out[i] = c.Raw
	}
	return out
}

type builder func(in *input) (*Figure, error)

var builders = map[Type]builder{
	Line:        seriesBuilder(KindLine),
	Bar:         seriesBuilder(KindBar),
	Area:        seriesBuilder(KindArea),
	Scatter:     seriesBuilder(KindScatter),
	Pie:         buildPie,
	Histogram:   buildHistogram,
	Treemap:     buildTreemap,
	Waterfall:   buildWaterfall,
	Funnel:      buildFunnel,
	Bubble:      buildBubble,
	Candlestick: buildCandlestick,
	KPI:         buildKPI,
	Radar:       buildRadar,
	Pareto:      buildPareto,
	Sankey:      buildSankey,
	Box:         buildBox,
}

// Build turns a dataset and a chart selection into a figure. Arity is checked
// by each builder as it needs columns; any failure, including a panic inside
// a builder, is returned as a *dataset.SelectionError. Unknown types and pie
// charts with other than one value column are drawn as grouped bars.
func Build(ds *dataset.Dataset, spec Spec) (fig *Figure, err error) {
	if spec.X == "" {
		return nil, &dataset.SelectionError{Op: "chart", Reason: "select an x-axis column"}
	}
	if len(spec.Y) == 0 {
		return nil, &dataset.SelectionError{Op: "chart", Reason: "select at least one y-axis column"}
	}
	spec.Type = ParseType(string(spec.Type))
	clean, err := Clean(ds, spec.X, spec.Y, spec.Color)
	if err != nil {
		return nil, err
	}
	if clean.Len() == 0 {
		return nil, &dataset.SelectionError{Op: "chart", Reason: "no rows have values in every selected column"}
	}
	in := &input{spec: spec, data: clean, long: melt(clean, spec.X, spec.Y, spec.Color), xKind: clean.Column(spec.X).Kind}

	b, ok := builders[spec.Type]
	if !ok || (spec.Type == Pie && len(spec.Y) != 1) {
		b = seriesBuilder(KindBar)
	}
	defer func() {
		if r := recover(); r != nil {
			fig = nil
			err = &dataset.SelectionError{Op: "chart", Reason: fmt.Sprintf("could not build %s chart: %v", spec.Type, r)}
		}
	}()
	fig, err = b(in)
	if err != nil {
		return nil, err
	}
	fig.Type = spec.Type
	fig.Title = spec.Title
	if fig.Title == "" {
		fig.Title = fmt.Sprintf("%s chart of %s", spec.Type, spec.X)
	}
	fig.Layout.HoverMode = DefaultHoverMode
	fig.Layout.TransitionMs = DefaultTransitionMs
	if fig.Layout.XTitle == "" {
		fig.Layout.XTitle = spec.X
	}
	return fig, nil
}

// seriesBuilder groups melted rows by color (or metric) into one trace each.
func seriesBuilder(kind string) builder {
	return func(in *input) (*Figure, error) {
		fig := &Figure{}
		if kind == KindBar {
			fig.Layout.BarMode = "group"
		}
		idx := map[string]int{}
		for _, r := range in.long {
			name := r.Metric
			if in.spec.Color != "" {
				name = r.Color
				if len(in.spec.Y) > 1 {
					name = r.Color + " / " + r.Metric
				}
			}
			i, ok := idx[name]
			if !ok {
				i = len(fig.Traces)
				idx[name] = i
				fig.Traces = append(fig.Traces, Trace{Kind: kind, Name: name, Fill: kind == KindArea})
			}
			t := &fig.Traces[i]
			t.Labels = append(t.Labels, r.X.Raw)
			t.Values = append(t.Values, r.Value)
			if kind == KindScatter {
				t.Sizes = append(t.Sizes, math.Abs(r.Value))
			}
		}
		if len(in.spec.Y) == 1 {
			fig.Layout.YTitle = in.spec.Y[0]
		} else {
			fig.Layout.YTitle = "Value"
		}
		return fig, nil
	}
}

// sumByLabel adds values sharing a label, keeping first-seen order.
func sumByLabel(labels []string, values []float64) ([]string, []float64) {
	idx := map[string]int{}
	var outL []string
	var outV []float64
	for i, l := range labels {
		j, ok := idx[l]
		if !ok {
			j = len(outL)
			idx[l] = j
			outL = append(outL, l)
			outV = append(outV, 0)
		}
		outV[j] += values[i]
	}
	return outL, outV
}

func values(c *dataset.Column) []float64 {
	out := make([]float64, len(c.Cells))
	for i, cell := range c.Cells {
		out[i] = cell.Num
	}
	return out
}

func buildPie(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	l, v := sumByLabel(in.labels(), values(y))
	return &Figure{Traces: []Trace{{Kind: KindPie, Name: y.Name, Labels: l, Values: v}}}, nil
}

func buildHistogram(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	xc := in.x()
	t := Trace{Kind: KindHistogram, Name: y.Name}
	if in.xKind != dataset.KindNumeric || len(xc.Cells) < 2 {
		t.Labels, t.Values = sumByLabel(in.labels(), values(y))
		return &Figure{Traces: []Trace{t}, Layout: Layout{YTitle: "sum of " + y.Name}}, nil
	}
	xs := values(xc)
	lo, hi := xs[0], xs[0]
	for _, v := range xs {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	bins := int(math.Ceil(math.Log2(float64(len(xs))))) + 1
	width := (hi - lo) / float64(bins)
	if width == 0 {
		bins, width = 1, 1
	}
	sums := make([]float64, bins)
	for i, v := range xs {
		b := int((v - lo) / width)
		if b >= bins {
			b = bins - 1
		}
		sums[b] += y.Cells[i].Num
	}
	for b := 0; b < bins; b++ {
		from := lo + float64(b)*width
		t.Labels = append(t.Labels, fmt.Sprintf("%s-%s", dataset.FormatNumber(round(from)), dataset.FormatNumber(round(from+width))))
	}
	t.Values = sums
	return &Figure{Traces: []Trace{t}, Layout: Layout{YTitle: "sum of " + y.Name}}, nil
}

func round(v float64) float64 { return math.Round(v*1000) / 1000 }

func buildTreemap(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	l, v := sumByLabel(in.labels(), values(y))
	return &Figure{Traces: []Trace{{Kind: KindTreemap, Name: y.Name, Labels: l, Values: v, Parents: make([]string, len(l))}}}, nil
}

func buildWaterfall(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	t := Trace{Kind: KindWaterfall, Name: y.Name, Labels: in.labels(), Values: values(y)}
	run := 0.0
	for _, v := range t.Values {
		t.Base = append(t.Base, run)
		run += v
	}
	return &Figure{Traces: []Trace{t}, Layout: Layout{YTitle: y.Name}}, nil
}

func buildFunnel(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	return &Figure{
		Traces: []Trace{{Kind: KindFunnel, Name: y.Name, Labels: in.labels(), Values: values(y)}},
		Layout: Layout{XTitle: y.Name, YTitle: in.spec.X},
	}, nil
}

func buildBubble(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	v := values(y)
	sizes := make([]float64, len(v))
	for i := range v {
		sizes[i] = math.Abs(v[i])
	}
	return &Figure{Traces: []Trace{{Kind: KindScatter, Name: y.Name, Labels: in.labels(), Values: v, Sizes: sizes}}, Layout: Layout{YTitle: y.Name}}, nil
}

func buildCandlestick(in *input) (*Figure, error) {
	if len(in.spec.Y) < 4 {
		return nil, &dataset.SelectionError{Op: "chart", Reason: fmt.Sprintf("Candlestick chart needs open, high, low and close columns, got %d", len(in.spec.Y))}
	}
	cols := make([][]float64, 4)
	for i := range cols {
		c, err := in.y(i)
		if err != nil {
			return nil, err
		}
		cols[i] = values(c)
	}
	return &Figure{Traces: []Trace{{
		Kind: KindCandlestick, Name: "OHLC", Labels: in.labels(),
		Open: cols[0], High: cols[1], Low: cols[2], Close: cols[3],
	}}}, nil
}

func buildKPI(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	v := values(y)
	if len(v) == 0 {
		return nil, dataset.Incompatible("chart", y.Name, "no values to summarize")
	}
	mean := 0.0
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	med := median(v)
	return &Figure{Indicator: &Indicator{Label: y.Name, Value: mean, Reference: med, Delta: mean - med}}, nil
}

func median(v []float64) float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func buildRadar(in *input) (*Figure, error) {
	fig := &Figure{}
	labels := in.labels()
	for i := range in.spec.Y {
		c, err := in.y(i)
		if err != nil {
			return nil, err
		}
		fig.Traces = append(fig.Traces, Trace{Kind: KindRadar, Name: c.Name, Labels: labels, Values: values(c), Fill: true})
	}
	return fig, nil
}

func buildPareto(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	labels, v := in.labels(), values(y)
	order := make([]int, len(v))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return v[order[a]] > v[order[b]] })
	total := 0.0
	for _, x := range v {
		total += x
	}
	bars := Trace{Kind: KindBar, Name: y.Name}
	cum := Trace{Kind: KindLine, Name: "Cumulative %", Axis: "y2"}
	run := 0.0
	for _, i := range order {
		run += v[i]
		bars.Labels = append(bars.Labels, labels[i])
		bars.Values = append(bars.Values, v[i])
		cum.Labels = append(cum.Labels, labels[i])
		pct := 0.0
		if total != 0 {
			pct = 100 * run / total
		}
		cum.Values = append(cum.Values, pct)
	}
	return &Figure{Traces: []Trace{bars, cum}, Layout: Layout{YTitle: y.Name, Y2Title: "Cumulative %"}}, nil
}

// buildSankey links each x value to its color value, or to the value column
// itself when no color is chosen. Link weights are summed.
func buildSankey(in *input) (*Figure, error) {
	y, err := in.y(0)
	if err != nil {
		return nil, err
	}
	t := Trace{Kind: KindSankey, Name: y.Name}
	node := map[string]int{}
	id := func(label string) int {
		if i, ok := node[label]; ok {
			return i
		}
		node[label] = len(t.Labels)
		t.Labels = append(t.Labels, label)
		return node[label]
	}
	labels := in.labels()
	for _, l := range labels {
		id(l)
	}
	var cc *dataset.Column
	if in.spec.Color != "" {
		cc = in.data.Column(in.spec.Color)
	}
	link := map[[2]int]int{}
	for i, l := range labels {
		target := y.Name
		if cc != nil {
			target = cc.Cells[i].Raw
		}
		s, tg := id(l), id("→ "+target)
		k := [2]int{s, tg}
		j, ok := link[k]
		if !ok {
			j = len(t.Sources)
			link[k] = j
			t.Sources = append(t.Sources, s)
			t.Targets = append(t.Targets, tg)
			t.Values = append(t.Values, 0)
		}
		t.Values[j] += y.Cells[i].Num
	}
	return &Figure{Traces: []Trace{t}}, nil
}

// BoxLabels names the statistics of a box trace, in order.
var BoxLabels = []string{"lower", "q1", "median", "q3", "upper"}

// buildBox draws one box per value column; x only selects the rows. The
// whiskers reach the furthest values within 1.5 IQR of the quartiles.
func buildBox(in *input) (*Figure, error) {
	fig := &Figure{Layout: Layout{YTitle: "Value", XTitle: "Column"}}
	for i := range in.spec.Y {
		c, err := in.y(i)
		if err != nil {
			return nil, err
		}
		v := append([]float64(nil), values(c)...)
		sort.Float64s(v)
		q1, med, q3 := quantile(v, 0.25), quantile(v, 0.5), quantile(v, 0.75)
		lo, hi := q1-1.5*(q3-q1), q3+1.5*(q3-q1)
		lower, upper := q1, q3
		for _, x := range v {
			if x >= lo {
				lower = x
				break
			}
		}
		for j := len(v) - 1; j >= 0; j-- {
			if v[j] <= hi {
				upper = v[j]
				break
			}
		}
		fig.Traces = append(fig.Traces, Trace{
			Kind: KindBox, Name: c.Name, Labels: append([]string(nil), BoxLabels...),
			Values: []float64{lower, q1, med, q3, upper},
		})
	}
	return fig, nil
}

// quantile interpolates linearly between the closest ranks of sorted v.
func quantile(v []float64, q float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	pos := q * float64(len(v)-1)
	i := int(pos)
	if i+1 >= len(v) {
		return v[len(v)-1]
	}
	return v[i] + (pos-float64(i))*(v[i+1]-v[i])
}
