package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
)

// Options controls the dashboard overview.
type Options struct {
	// PreviewRows is the number of leading rows shown as a preview.
	PreviewRows int
	// LargeRows and LargeBytes mark a dataset as large; either is enough.
	LargeRows  int
	LargeBytes int64
	// SampleRows rows are drawn with SampleSeed for the visual summaries of
	// large datasets.
	SampleRows int
	SampleSeed int64
	// Outlier detection via robust Z-score (MAD); 0 disables it.
	OutlierThreshold float64
	TopValues        int
}

// DefaultOptions returns reasonable defaults for the overview.
func DefaultOptions() Options {
	return Options{
		PreviewRows:      10,
		LargeRows:        10000,
		LargeBytes:       10 << 20,
		SampleRows:       50,
		SampleSeed:       1,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// PivotWarning is reported when the automatic pivot cannot be built.
const PivotWarning = "Pivot table could not be created due to memory constraints or incompatible columns."

// Report is the dashboard overview of a dataset.
type Report struct {
	Name        string          `json:"name"`
	Rows        int             `json:"rows"`
	MemoryBytes int64           `json:"memory_bytes"`
	Cols        []ColumnSummary `json:"columns"`
	Header      []string        `json:"header"`
	Preview     [][]string      `json:"preview"`
	// Sampled is set for large datasets; Pivot and Charts then describe a
	// SampleRows-row sample.
	Sampled  bool         `json:"sampled"`
	Pivot    [][]string   `json:"pivot,omitempty"`
	Charts   []chart.Spec `json:"charts,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string       `json:"name"`
	Kind    dataset.Kind `json:"kind"`
	NonNull int          `json:"non_null"`
	Missing int          `json:"missing"`
	Unique  int          `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Datetime range
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
	// Text and categorical values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Overview summarizes ds for the dashboard page. It never fails: problems
// building the automatic pivot end up in Warnings.
func Overview(ds *dataset.Dataset, opt Options) *Report {
	rep := &Report{Name: ds.Name, Rows: ds.Len(), MemoryBytes: ds.MemoryEstimate(), Header: ds.Names()}
	if ds.Empty() {
		rep.Warnings = append(rep.Warnings, "No data available.")
		return rep
	}
	for _, c := range ds.Columns {
		rep.Cols = append(rep.Cols, summarize(c, opt))
	}
	rep.Preview = ds.Head(opt.PreviewRows).Records()[1:]

	sample, sampled := Sample(ds, opt)
	if sampled {
		rep.Sampled = true
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("Large file detected. Visualizations are based on a %d-row sample.", opt.SampleRows))
		log.Debug().Str("dataset", ds.Name).Int("rows", ds.Len()).Int64("bytes", rep.MemoryBytes).Msg("overview: sampling large dataset")
	}

	texts := sample.ColumnsOfKind(dataset.KindText, dataset.KindCategorical)
	nums := sample.ColumnsOfKind(dataset.KindNumeric)
	if len(texts) > 0 && len(nums) > 0 {
		pt, err := pivot.Build(sample, pivot.Spec{Rows: texts[:1], Values: nums[:1], Agg: pivot.AggSum})
		if err != nil {
			log.Warn().Err(err).Str("dataset", ds.Name).Msg("overview: auto pivot failed")
			rep.Warnings = append(rep.Warnings, PivotWarning)
		} else {
			rep.Pivot = pt.Records()
		}
	}
	rep.Charts = SuggestCharts(sample)
	return rep
}

// Sample returns the rows the overview visuals are drawn from: a seeded
// SampleRows sample when ds is large, ds itself otherwise.
func Sample(ds *dataset.Dataset, opt Options) (*dataset.Dataset, bool) {
	if (opt.LargeRows > 0 && ds.Len() > opt.LargeRows) || (opt.LargeBytes > 0 && ds.MemoryEstimate() > opt.LargeBytes) {
		return ds.Sample(opt.SampleRows, opt.SampleSeed), true
	}
	return ds, false
}

// SuggestCharts picks the overview charts: pie and treemap of the first
// numeric column by the first text column, then a scatter and a box plot
// of the first two numeric columns.
func SuggestCharts(ds *dataset.Dataset) []chart.Spec {
	texts := ds.ColumnsOfKind(dataset.KindText, dataset.KindCategorical)
	nums := ds.ColumnsOfKind(dataset.KindNumeric)
	var specs []chart.Spec
	if len(texts) > 0 && len(nums) > 0 {
		specs = append(specs,
			chart.Spec{Type: chart.Pie, X: texts[0], Y: nums[:1]},
			chart.Spec{Type: chart.Treemap, X: texts[0], Y: nums[:1]},
		)
	}
	if len(nums) >= 2 {
		specs = append(specs,
			chart.Spec{Type: chart.Scatter, X: nums[0], Y: nums[1:2], Title: "Scatter Plot"},
			chart.Spec{Type: chart.Box, X: nums[0], Y: nums[:2], Title: "Box Plot"},
		)
	}
	return specs
}

func summarize(c *dataset.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: c.Kind}
	counts := map[string]int{}
	w := newWelford()
	var nums []float64
	for _, cell := range c.Cells {
		if cell.Null {
			s.Missing++
			continue
		}
		s.NonNull++
		counts[cell.Raw]++
		switch c.Kind {
		case dataset.KindNumeric:
			w.add(cell.Num)
			nums = append(nums, cell.Num)
		case dataset.KindDatetime:
			if s.From.IsZero() || cell.Time.Before(s.From) {
				s.From = cell.Time
			}
			if cell.Time.After(s.To) {
				s.To = cell.Time
			}
		default:
			if len(s.ExampleTexts) < 3 {
				s.ExampleTexts = append(s.ExampleTexts, cell.Raw)
			}
		}
	}
	s.Unique = len(counts)
	switch c.Kind {
	case dataset.KindNumeric:
		if w.n > 0 {
			s.Min, s.Max, s.Mean, s.Std = w.min, w.max, w.mean, w.std()
		}
		if opt.OutlierThreshold > 0 && len(nums) >= 8 {
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(nums, opt.OutlierThreshold)
			s.OutlierThreshold = opt.OutlierThreshold
		}
	case dataset.KindCategorical:
		s.ExampleTexts = nil
		s.TopValues = top(counts, opt.TopValues)
	}
	return s
}

func top(counts map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if n > 0 && len(tops) > n {
		tops = tops[:n]
	}
	return tops
}
