package chart

import (
	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// LongRow is one (x, color, metric, value) record of melted data.
type LongRow struct {
	X      dataset.Cell
	Color  string
	Metric string
	Value  float64
}

// Clean returns the rows of ds with a value in x and every y column, and
// checks that the selected columns exist and y columns are numeric.
func Clean(ds *dataset.Dataset, x string, ys []string, color string) (*dataset.Dataset, error) {
	xc := ds.Column(x)
	if xc == nil {
		return nil, dataset.UnknownColumn("chart", x)
	}
	cols := []*dataset.Column{xc}
	for _, y := range ys {
		c := ds.Column(y)
		if c == nil {
			return nil, dataset.UnknownColumn("chart", y)
		}
		if c.Kind != dataset.KindNumeric {
			return nil, dataset.Incompatible("chart", y, "value columns must be numeric, this one is %s", c.Kind)
		}
		cols = append(cols, c)
	}
	if color != "" && ds.Column(color) == nil {
		return nil, dataset.UnknownColumn("chart", color)
	}
	keep := make([]int, 0, ds.Len())
rows:
	for i := 0; i < ds.Len(); i++ {
		for _, c := range cols {
			if c.Cells[i].Null {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return ds.Select(keep), nil
}

// Melt reshapes the y columns into long form, one row per (row, y column),
// after dropping rows with a missing x or y.
func Melt(ds *dataset.Dataset, x string, ys []string, color string) ([]LongRow, error) {
	clean, err := Clean(ds, x, ys, color)
	if err != nil {
		return nil, err
	}
	return melt(clean, x, ys, color), nil
}

func melt(clean *dataset.Dataset, x string, ys []string, color string) []LongRow {
	xc := clean.Column(x)
	var cc *dataset.Column
	if color != "" {
		cc = clean.Column(color)
	}
	out := make([]LongRow, 0, clean.Len()*len(ys))
	for _, y := range ys {
		yc := clean.Column(y)
		for i := 0; i < clean.Len(); i++ {
			r := LongRow{X: xc.Cells[i], Metric: y, Value: yc.Cells[i].Num}
			if cc != nil {
				r.Color = cc.Cells[i].Raw
			}
			out = append(out, r)
		}
	}
	return out
}
