package chart

import "strings"

// Type is a chart catalog entry.
type Type string

const (
	Line        Type = "Line"
	Bar         Type = "Bar"
	Pie         Type = "Pie"
	Area        Type = "Area"
	Scatter     Type = "Scatter"
	Histogram   Type = "Histogram"
	Treemap     Type = "Treemap"
	Waterfall   Type = "Waterfall"
	Funnel      Type = "Funnel"
	Bubble      Type = "Bubble"
	Candlestick Type = "Candlestick"
	KPI         Type = "KPI"
	Radar       Type = "Radar"
	Pareto      Type = "Pareto"
	Sankey      Type = "Sankey"
	Box         Type = "Box"
)

// Types is the chart catalog in menu order.
var Types = []Type{Line, Bar, Pie, Area, Scatter, Histogram, Treemap, Waterfall, Funnel, Bubble, Candlestick, KPI, Radar, Pareto, Sankey, Box}

// ParseType matches a catalog entry ignoring case. Unknown names are
// returned as-is and render as a grouped bar chart.
func ParseType(s string) Type {
	for _, t := range Types {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t
		}
	}
	return Type(s)
}

// Spec is the user's axis selection.
type Spec struct {
	Type  Type     `json:"type"`
	X     string   `json:"x"`
	Y     []string `json:"y"`
	Color string   `json:"color,omitempty"`
	Title string   `json:"title,omitempty"`
}

// Trace kinds.
const (
	KindBar         = "bar"
	KindLine        = "line"
	KindArea        = "area"
	KindScatter     = "scatter"
	KindPie         = "pie"
	KindHistogram   = "histogram"
	KindTreemap     = "treemap"
	KindWaterfall   = "waterfall"
	KindFunnel      = "funnel"
	KindCandlestick = "candlestick"
	KindRadar       = "radar"
	KindSankey      = "sankey"
	KindBox         = "box"
)

// Trace is one drawable series. Labels and Values are parallel except for
// sankey traces, where Labels are nodes and Values are link weights. Box
// traces carry the five BoxLabels statistics of one column. The
// other slices are filled only by the kinds that use them.
type Trace struct {
	Kind   string    `json:"kind"`
	Name   string    `json:"name"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values,omitempty"`
	// Sizes scales markers of scatter and bubble charts.
	Sizes []float64 `json:"sizes,omitempty"`
	// Open, High, Low and Close carry candlestick prices.
	Open  []float64 `json:"open,omitempty"`
	High  []float64 `json:"high,omitempty"`
	Low   []float64 `json:"low,omitempty"`
	Close []float64 `json:"close,omitempty"`
	// Base is the running total before each waterfall step.
	Base []float64 `json:"base,omitempty"`
	// Parents holds treemap parents; roots have "".
	Parents []string `json:"parents,omitempty"`
	// Sources and Targets index into Labels for sankey links.
	Sources []int `json:"sources,omitempty"`
	Targets []int `json:"targets,omitempty"`
	// Axis is "y2" for series drawn against the secondary axis.
	Axis string `json:"axis,omitempty"`
	Fill bool   `json:"fill,omitempty"`
}

// Indicator is the single-number KPI display.
type Indicator struct {
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Reference float64 `json:"reference"`
	Delta     float64 `json:"delta"`
}

// Layout holds figure-wide presentation settings.
type Layout struct {
	HoverMode    string `json:"hovermode"`
	TransitionMs int    `json:"transition_ms"`
	BarMode      string `json:"barmode,omitempty"`
	XTitle       string `json:"x_title,omitempty"`
	YTitle       string `json:"y_title,omitempty"`
	Y2Title      string `json:"y2_title,omitempty"`
}

// Figure is a renderable chart built from a dataset and a Spec.
type Figure struct {
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Layout    Layout     `json:"layout"`
	Traces    []Trace    `json:"traces"`
	Indicator *Indicator `json:"indicator,omitempty"`
}

// Figure-wide defaults applied to every built chart.
const (
	DefaultHoverMode    = "x unified"
	DefaultTransitionMs = 500
)

// Points counts the values across traces.
func (f *Figure) Points() int {
	n := 0
	for _, t := range f.Traces {
		n += len(t.Labels)
	}
	return n
}
