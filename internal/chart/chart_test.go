package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
)

func stocks() *dataset.Dataset {
	return normalize.Normalize(dataset.New("stocks.csv",
		[]string{"Day", "Open", "High", "Low", "Close", "Region", "Name"},
		[][]string{
			{"2024-01-01", "10", "12", "9", "11", "EU", "a"},
			{"2024-01-02", "11", "13", "10", "12", "US", "b"},
			{"2024-01-03", "12", "15", "11", "14", "EU", "c"},
			{"2024-01-04", "", "14", "12", "13", "US", "d"},
		}), normalize.DefaultOptions())
}

func TestMeltDropsMissingRows(t *testing.T) {
	long, err := Melt(stocks(), "Day", []string{"Open", "Close"}, "Region")
	require.NoError(t, err)
	require.Len(t, long, 6)
	assert.Equal(t, "Open", long[0].Metric)
	assert.Equal(t, "EU", long[0].Color)
	assert.Equal(t, 10.0, long[0].Value)
	assert.Equal(t, "Close", long[3].Metric)
}

func TestMeltRejectsTextValues(t *testing.T) {
	_, err := Melt(stocks(), "Day", []string{"Name"}, "")
	var se *dataset.SelectionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Name", se.Column)
}

func TestBuildEveryType(t *testing.T) {
	ds := stocks()
	for _, typ := range Types {
		t.Run(string(typ), func(t *testing.T) {
			fig, err := Build(ds, Spec{Type: typ, X: "Day", Y: []string{"Open", "High", "Low", "Close"}})
			require.NoError(t, err)
			assert.Equal(t, DefaultHoverMode, fig.Layout.HoverMode)
			assert.Equal(t, DefaultTransitionMs, fig.Layout.TransitionMs)

			var png bytes.Buffer
			require.NoError(t, RenderImage(fig, ImagePNG, &png, ImageOptions{Width: 640, Height: 360}))
			assert.True(t, png.Len() > 0)
		})
	}
}

func TestCandlestickNeedsFourColumns(t *testing.T) {
	_, err := Build(stocks(), Spec{Type: Candlestick, X: "Day", Y: []string{"Open", "Close"}})
	require.Error(t, err)
	var se *dataset.SelectionError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "Candlestick")
}

func TestFallbacksToGroupedBar(t *testing.T) {
	ds := stocks()
	fig, err := Build(ds, Spec{Type: "Sunburst", X: "Day", Y: []string{"Open"}})
	require.NoError(t, err)
	assert.Equal(t, "group", fig.Layout.BarMode)
	assert.Equal(t, KindBar, fig.Traces[0].Kind)

	fig, err = Build(ds, Spec{Type: Pie, X: "Region", Y: []string{"Open", "Close"}})
	require.NoError(t, err)
	assert.Equal(t, KindBar, fig.Traces[0].Kind)
	assert.Len(t, fig.Traces, 2)
}

func TestColorGroupsTraces(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: Line, X: "Day", Y: []string{"Close"}, Color: "Region"})
	require.NoError(t, err)
	require.Len(t, fig.Traces, 2)
	assert.Equal(t, "EU", fig.Traces[0].Name)
	assert.Equal(t, []string{"2024-01-01", "2024-01-03"}, fig.Traces[0].Labels)
	assert.Equal(t, "US", fig.Traces[1].Name)
}

func TestPieSumsByLabel(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: "pie", X: "Region", Y: []string{"Close"}})
	require.NoError(t, err)
	tr := fig.Traces[0]
	assert.Equal(t, []string{"EU", "US"}, tr.Labels)
	assert.Equal(t, []float64{25, 25}, tr.Values)
}

func TestParetoCumulative(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: Pareto, X: "Day", Y: []string{"High"}})
	require.NoError(t, err)
	require.Len(t, fig.Traces, 2)
	assert.Equal(t, []float64{15, 14, 13, 12}, fig.Traces[0].Values)
	cum := fig.Traces[1]
	assert.Equal(t, "y2", cum.Axis)
	assert.InDelta(t, 100.0, cum.Values[len(cum.Values)-1], 1e-9)
}

func TestKPIIndicator(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: KPI, X: "Day", Y: []string{"High"}})
	require.NoError(t, err)
	require.NotNil(t, fig.Indicator)
	assert.InDelta(t, 13.5, fig.Indicator.Value, 1e-9)
	assert.InDelta(t, 13.5, fig.Indicator.Reference, 1e-9)
}

func TestSankeyLinks(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: Sankey, X: "Region", Y: []string{"High"}, Color: "Name"})
	require.NoError(t, err)
	tr := fig.Traces[0]
	assert.Equal(t, []string{"EU", "US", "→ a", "→ b", "→ c", "→ d"}, tr.Labels)
	assert.Len(t, tr.Sources, 4)
	assert.Equal(t, 12.0, tr.Values[0])
}

func TestBoxQuartilesAndWhiskers(t *testing.T) {
	ds := normalize.Normalize(dataset.New("box.csv", []string{"k", "v"}, [][]string{
		{"a", "1"}, {"b", "2"}, {"c", "3"}, {"d", "4"}, {"e", "5"}, {"f", "100"},
	}), normalize.DefaultOptions())
	fig, err := Build(ds, Spec{Type: "box", X: "k", Y: []string{"v"}})
	require.NoError(t, err)
	require.Len(t, fig.Traces, 1)
	tr := fig.Traces[0]
	assert.Equal(t, KindBox, tr.Kind)
	assert.Equal(t, BoxLabels, tr.Labels)
	// q1=2.25, median=3.5, q3=4.75; 100 lies beyond the upper fence
	assert.Equal(t, []float64{1, 2.25, 3.5, 4.75, 5}, tr.Values)

	var svg bytes.Buffer
	require.NoError(t, RenderImage(fig, ImageSVG, &svg, ImageOptions{}))
	assert.Contains(t, svg.String(), "<svg")
}

func TestBuildRequiresAxes(t *testing.T) {
	_, err := Build(stocks(), Spec{Type: Line, Y: []string{"Open"}})
	assert.True(t, dataset.IsUserError(err))
	_, err = Build(stocks(), Spec{Type: Line, X: "Day"})
	assert.True(t, dataset.IsUserError(err))
	_, err = Build(stocks(), Spec{Type: Line, X: "Nope", Y: []string{"Open"}})
	assert.True(t, dataset.IsUserError(err))
}

func TestRenderSingleRowPNG(t *testing.T) {
	ds := normalize.Normalize(dataset.New("one", []string{"k", "v"}, [][]string{{"a", "5"}}), normalize.DefaultOptions())
	fig, err := Build(ds, Spec{Type: Line, X: "k", Y: []string{"v"}})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, RenderImage(fig, ImagePNG, &buf, ImageOptions{}))
	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1024, img.Bounds().Dx())
}

func TestRenderSingleCategory(t *testing.T) {
	ds := normalize.Normalize(dataset.New("paris.csv",
		[]string{"City", "Open", "High", "Low", "Close"},
		[][]string{
			{"Paris", "10", "12", "9", "11"},
			{"Paris", "11", "13", "10", "12"},
		}), normalize.DefaultOptions())
	for _, typ := range []Type{Line, Area, Scatter, Bubble, Radar, Pareto, Candlestick} {
		t.Run(string(typ), func(t *testing.T) {
			fig, err := Build(ds, Spec{Type: typ, X: "City", Y: []string{"Open", "High", "Low", "Close"}})
			require.NoError(t, err)

			var img bytes.Buffer
			require.NoError(t, RenderImage(fig, ImagePNG, &img, ImageOptions{Width: 480, Height: 320}))
			assert.True(t, strings.HasPrefix(img.String(), "\x89PNG"))

			var page bytes.Buffer
			require.NoError(t, RenderHTML(fig, &page, HTMLOptions{}))
			assert.Contains(t, page.String(), "<svg")
		})
	}
}

func TestRenderSVGAndHTML(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: Bar, X: "Day", Y: []string{"Close"}, Title: "Close <by> day"})
	require.NoError(t, err)

	var svg bytes.Buffer
	require.NoError(t, RenderImage(fig, ImageSVG, &svg, ImageOptions{}))
	assert.Contains(t, svg.String(), "<svg")

	var page bytes.Buffer
	require.NoError(t, RenderHTML(fig, &page, HTMLOptions{CSS: ":root{--bg:#000}"}))
	html := page.String()
	assert.Contains(t, html, "<svg")
	assert.Contains(t, html, "Close &lt;by&gt; day")
	assert.Contains(t, html, `id="search"`)
	assert.Contains(t, html, "--bg:#000")

	start := strings.Index(html, `id="figure">`) + len(`id="figure">`)
	end := strings.Index(html[start:], "</script>")
	var decoded Figure
	require.NoError(t, json.Unmarshal([]byte(html[start:start+end]), &decoded))
	assert.Equal(t, Bar, decoded.Type)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	fig, err := Build(stocks(), Spec{Type: Bar, X: "Day", Y: []string{"Close"}})
	require.NoError(t, err)
	assert.Error(t, RenderImage(fig, "gif", &bytes.Buffer{}, ImageOptions{}))
}

func TestDataCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DataCSV(stocks(), Spec{X: "Day", Y: []string{"Open"}}, &buf))
	assert.Equal(t, "Day,Open\n2024-01-01,10\n2024-01-02,11\n2024-01-03,12\n", buf.String())
}
