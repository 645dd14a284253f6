package chart

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// HTMLOptions styles the standalone page.
type HTMLOptions struct {
	Image ImageOptions
	// CSS is injected into the page head, typically a theme's variables.
	CSS string
}

var pageTmpl = template.Must(template.New("chart").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}
body{font-family:sans-serif;margin:1.5rem;background:var(--bg,#fff);color:var(--fg,#222)}
figure{margin:0 0 1rem 0}
figure svg{max-width:100%;height:auto;transition:box-shadow .3s ease}
figure svg:hover{box-shadow:0 0 20px #ffd70066}
table{border-collapse:collapse;font-size:.9rem}
th,td{border:1px solid #ccc;padding:.25rem .5rem;text-align:right}
th:first-child,td:first-child{text-align:left}
input{margin:.5rem 0;padding:.25rem}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<figure>{{.SVG}}</figure>
<input id="search" type="search" placeholder="Search rows">
<table id="data">
<thead><tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table>
<script type="application/json" id="figure">{{.JSON}}</script>
<script>
document.getElementById("search").addEventListener("input", function (e) {
  var q = e.target.value.toLowerCase();
  document.querySelectorAll("#data tbody tr").forEach(function (tr) {
    tr.style.display = tr.textContent.toLowerCase().indexOf(q) >= 0 ? "" : "none";
  });
});
</script>
</body>
</html>
`))

// RenderHTML writes a self-contained page with the figure as inline SVG,
// its data as a searchable table and the figure itself as JSON.
func RenderHTML(fig *Figure, w io.Writer, opt HTMLOptions) error {
	var svg bytes.Buffer
	if err := RenderImage(fig, ImageSVG, &svg, opt.Image); err != nil {
		return err
	}
	payload, err := json.Marshal(fig)
	if err != nil {
		return fmt.Errorf("encode figure: %w", err)
	}
	header, rows := Table(fig)
	err = pageTmpl.Execute(w, map[string]any{
		"Title":  fig.Title,
		"CSS":    template.CSS(opt.CSS),
		"SVG":    template.HTML(svg.String()),
		"Header": header,
		"Rows":   rows,
		"JSON":   template.JS(payload),
	})
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// Table flattens a figure into a header and display rows, one per point.
func Table(fig *Figure) ([]string, [][]string) {
	if fig.Indicator != nil {
		ind := fig.Indicator
		return []string{"Metric", "Mean", "Median", "Delta"}, [][]string{{
			ind.Label, dataset.FormatNumber(ind.Value), dataset.FormatNumber(ind.Reference), dataset.FormatNumber(ind.Delta),
		}}
	}
	header := []string{"Series", "Label", "Value"}
	var rows [][]string
	for _, t := range fig.Traces {
		switch t.Kind {
		case KindCandlestick:
			header = []string{"Label", "Open", "High", "Low", "Close"}
			for i, l := range t.Labels {
				rows = append(rows, []string{l, dataset.FormatNumber(t.Open[i]), dataset.FormatNumber(t.High[i]), dataset.FormatNumber(t.Low[i]), dataset.FormatNumber(t.Close[i])})
			}
		case KindSankey:
			header = []string{"Source", "Target", "Value"}
			for i, v := range t.Values {
				rows = append(rows, []string{t.Labels[t.Sources[i]], t.Labels[t.Targets[i]], dataset.FormatNumber(v)})
			}
		default:
			for i, l := range t.Labels {
				rows = append(rows, []string{t.Name, l, dataset.FormatNumber(t.Values[i])})
			}
		}
	}
	return header, rows
}

// DataCSV writes the chart's underlying columns, x followed by the y
// columns, for rows with no missing value among them.
func DataCSV(ds *dataset.Dataset, spec Spec, w io.Writer) error {
	clean, err := Clean(ds, spec.X, spec.Y, "")
	if err != nil {
		return err
	}
	cols, err := clean.Subset(append([]string{spec.X}, spec.Y...))
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(cols.Records()); err != nil {
		return fmt.Errorf("write chart csv: %w", err)
	}
	return nil
}
