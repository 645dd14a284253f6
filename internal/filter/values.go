package filter

import (
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// Enumerable lists the columns with at most max distinct values, in dataset
// order. Those are the columns offered for allow-list filtering.
func Enumerable(ds *dataset.Dataset, max int) []string {
	if max <= 0 {
		max = DefaultMaxDistinct
	}
	var out []string
	for _, c := range ds.Columns {
		if c.DistinctCount(max) <= max {
			out = append(out, c.Name)
		}
	}
	return out
}

// ValueOptions returns the sorted distinct display values of a column.
func ValueOptions(ds *dataset.Dataset, col string) ([]string, error) {
	c := ds.Column(col)
	if c == nil {
		return nil, dataset.UnknownColumn("filter", col)
	}
	cells := c.DistinctCells()
	dataset.SortCells(c.Kind, cells)
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = cell.Raw
	}
	return out, nil
}

// MatchValues narrows a list of choices to those containing query,
// ignoring case. An empty query returns the input.
func MatchValues(values []string, query string) []string {
	q := strings.ToLower(query)
	if q == "" {
		return values
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), q) {
			out = append(out, v)
		}
	}
	return out
}

// SearchableColumns lists text and categorical columns, the ones where a
// substring search makes sense.
func SearchableColumns(ds *dataset.Dataset) []string {
	return ds.ColumnsOfKind(dataset.KindText, dataset.KindCategorical)
}
