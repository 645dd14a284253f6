package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
)

var csvRows = [][]string{
	{"2024-01-01", "Paris", "10", "A"},
	{"2024-01-02", "Lyon", "11", "B"},
	{"2024-01-03", "Paris", "9.5", "A"},
	{"2024-01-04", "Nice", "10.5", "A"},
	{"2024-01-05", "Lyon", "9.8", "B"},
	{"2024-01-06", "Paris", "10.2", "A"},
	{"2024-01-07", "Nice", "8.8", "B"},
	{"2024-01-08", "Lyon", "9.7", "A"},
	{"2024-01-09", "Paris", "50", "B"},
	{"2024-01-10", "Nice", "", "A"},
	{"2024-01-11", "Paris", "10.1", "B"},
	{"2024-01-12", "Lyon", "9.9", "A"},
}

func metrics() *dataset.Dataset {
	return normalize.Normalize(dataset.New("metrics.csv", []string{"Date", "City", "Score", "Zone"}, csvRows), normalize.DefaultOptions())
}

func TestOverviewAndMarkdown(t *testing.T) {
	rep := Overview(metrics(), DefaultOptions())

	if rep.Rows != 12 || len(rep.Cols) != 4 {
		t.Fatalf("unexpected shape: rows=%d cols=%d", rep.Rows, len(rep.Cols))
	}
	if len(rep.Preview) != 10 {
		t.Fatalf("expected 10 preview rows, got %d", len(rep.Preview))
	}
	if rep.Sampled {
		t.Fatalf("small dataset must not be sampled")
	}

	score := rep.Cols[2]
	if score.Kind != dataset.KindNumeric || score.NonNull != 11 || score.Missing != 1 {
		t.Fatalf("unexpected score summary: %+v", score)
	}
	if score.Min != 8.8 || score.Max != 50 {
		t.Fatalf("unexpected score range: %v..%v", score.Min, score.Max)
	}
	if score.OutliersCount != 1 {
		t.Fatalf("expected one outlier, got %d", score.OutliersCount)
	}
	if rep.Cols[0].Kind != dataset.KindDatetime || dataset.FormatTime(rep.Cols[0].To) != "2024-01-12" {
		t.Fatalf("unexpected date summary: %+v", rep.Cols[0])
	}
	city := rep.Cols[1]
	if city.Kind != dataset.KindCategorical || city.TopValues[0].Value != "Paris" || city.TopValues[0].Count != 5 {
		t.Fatalf("unexpected city summary: %+v", city)
	}

	if len(rep.Pivot) != 5 || rep.Pivot[0][0] != "City" || rep.Pivot[4][0] != "All" {
		t.Fatalf("unexpected auto pivot: %v", rep.Pivot)
	}
	if len(rep.Charts) != 2 || rep.Charts[0].Type != chart.Pie || rep.Charts[0].X != "City" {
		t.Fatalf("unexpected charts: %+v", rep.Charts)
	}

	md := rep.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: metrics.csv",
		"Rows: 12",
		"- Score: numeric (non-null 11, missing 8.3%, unique 11)",
		"outliers: 1 above |z|>3.5",
		"top: Paris(5), Lyon(4), Nice(3)",
		"2024-01-01 to 2024-01-12",
		"[PREVIEW]",
		"| Date | City | Score | Zone |",
		"[PIVOT]",
		"| All | ",
		"- Pie: x=City y=Score",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestOverviewSamplesLargeData(t *testing.T) {
	rows := make([][]string, 120)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("item-%d", i%7), fmt.Sprint(i)}
	}
	ds := normalize.Normalize(dataset.New("big.csv", []string{"Item", "Qty"}, rows), normalize.DefaultOptions())

	opt := DefaultOptions()
	opt.LargeRows = 100
	rep := Overview(ds, opt)
	if !rep.Sampled {
		t.Fatalf("expected sampling")
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "50-row sample") {
		t.Fatalf("unexpected warnings: %v", rep.Warnings)
	}
	again := Overview(ds, opt)
	if fmt.Sprint(again.Pivot) != fmt.Sprint(rep.Pivot) {
		t.Fatalf("sampling must be deterministic")
	}
	if rep.Rows != 120 {
		t.Fatalf("row count must describe the full dataset, got %d", rep.Rows)
	}
}

func TestOverviewWithoutPivotColumns(t *testing.T) {
	ds := normalize.Normalize(dataset.New("n.csv", []string{"A", "B"}, [][]string{{"1", "2"}, {"3", "4"}}), normalize.DefaultOptions())
	rep := Overview(ds, DefaultOptions())
	if rep.Pivot != nil {
		t.Fatalf("expected no pivot, got %v", rep.Pivot)
	}
	if len(rep.Charts) != 2 || rep.Charts[0].Type != chart.Scatter || rep.Charts[1].Type != chart.Box {
		t.Fatalf("expected scatter and box suggestions, got %+v", rep.Charts)
	}
	if fmt.Sprint(rep.Charts[1].Y) != "[A B]" {
		t.Fatalf("box plot should cover both numeric columns, got %v", rep.Charts[1].Y)
	}
	for _, spec := range rep.Charts {
		if _, err := chart.Build(ds, spec); err != nil {
			t.Fatalf("suggested %s chart does not build: %v", spec.Type, err)
		}
	}
}

func TestSampleMatchesOverview(t *testing.T) {
	rows := make([][]string, 30)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i), fmt.Sprint(i * 2)}
	}
	ds := normalize.Normalize(dataset.New("s.csv", []string{"A", "B"}, rows), normalize.DefaultOptions())
	opt := DefaultOptions()
	if s, sampled := Sample(ds, opt); sampled || s != ds {
		t.Fatalf("small dataset must be used as-is")
	}
	opt.LargeRows, opt.SampleRows = 20, 10
	s, sampled := Sample(ds, opt)
	if !sampled || s.Len() != 10 {
		t.Fatalf("expected a 10-row sample, got %d (sampled=%v)", s.Len(), sampled)
	}
	if !Overview(ds, opt).Sampled {
		t.Fatalf("overview must agree with Sample")
	}
}

func TestOverviewEmpty(t *testing.T) {
	rep := Overview(dataset.New("e.csv", []string{"A"}, nil), DefaultOptions())
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Markdown(), "No data available.") {
		t.Fatalf("expected empty warning, got %v", rep.Warnings)
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
}
