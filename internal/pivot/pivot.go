package pivot

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// Agg names an aggregation function.
type Agg string

const (
	AggSum   Agg = "sum"
	AggMean  Agg = "mean"
	AggCount Agg = "count"
	AggFirst Agg = "first"
	AggLast  Agg = "last"
)

// Aggs lists the supported aggregations in display order.
var Aggs = []Agg{AggSum, AggMean, AggCount, AggFirst, AggLast}

// ParseAgg resolves a case-insensitive aggregation name. Empty means sum.
func ParseAgg(s string) (Agg, error) {
	a := Agg(strings.ToLower(strings.TrimSpace(s)))
	if a == "" {
		return AggSum, nil
	}
	for _, k := range Aggs {
		if a == k {
			return a, nil
		}
	}
	return "", &dataset.SelectionError{Op: "pivot", Reason: fmt.Sprintf("unknown aggregation %q (use sum, mean, count, first or last)", s)}
}

func (a Agg) numeric() bool { return a == AggSum || a == AggMean }

// MarginLabel names the grand-total row and columns.
const MarginLabel = "All"

// Spec selects the pivot axes.
type Spec struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Values  []string `json:"values"`
	Agg     Agg      `json:"agg"`
}

// Header describes one value column of the table: the source value column
// and, when column keys are used, the column-key tuple it belongs to.
type Header struct {
	Value string   `json:"value"`
	Key   []string `json:"key,omitempty"`
}

// Label flattens the header for single-line outputs.
func (h Header) Label() string {
	if len(h.Key) == 0 {
		return h.Value
	}
	return h.Value + " / " + strings.Join(h.Key, " / ")
}

// Row is one output row. Margin marks the grand-total row.
type Row struct {
	Keys   []string       `json:"keys"`
	Cells  []dataset.Cell `json:"-"`
	Margin bool           `json:"margin,omitempty"`
}

// Table is a cross-tabulated summary.
type Table struct {
	Spec   Spec     `json:"spec"`
	Header []Header `json:"header"`
	Rows   []Row    `json:"rows"`
}

type acc struct {
	sum         float64
	n           int
	first, last dataset.Cell
}

func (a *acc) add(c dataset.Cell) {
	if c.Null {
		return
	}
	if a.n == 0 {
		a.first = c
	}
	a.last = c
	a.sum += c.Num
	a.n++
}

func (a *acc) result(agg Agg) dataset.Cell {
	if a == nil || a.n == 0 {
		return dataset.NumberCell(0)
	}
	switch agg {
	case AggSum:
		return dataset.NumberCell(a.sum)
	case AggMean:
		return dataset.NumberCell(a.sum / float64(a.n))
	case AggCount:
		return dataset.NumberCell(float64(a.n))
	case AggFirst:
		return a.first
	default:
		return a.last
	}
}

// group is a distinct key tuple with the cells used to order it.
type group struct {
	key   string
	parts []string
	cells []dataset.Cell
}

func keyOf(cols []*dataset.Column, i int) group {
	g := group{parts: make([]string, len(cols)), cells: make([]dataset.Cell, len(cols))}
	for j, c := range cols {
		g.parts[j] = c.Cells[i].Raw
		g.cells[j] = c.Cells[i]
	}
	g.key = strings.Join(g.parts, "\x1f")
	return g
}

func sortGroups(gs []group, cols []*dataset.Column) {
	sort.SliceStable(gs, func(a, b int) bool {
		for j, c := range cols {
			if d := dataset.Compare(c.Kind, gs[a].cells[j], gs[b].cells[j]); d != 0 {
				return d < 0
			}
		}
		return false
	})
}

func lookup(ds *dataset.Dataset, names []string) ([]*dataset.Column, error) {
	out := make([]*dataset.Column, len(names))
	for i, n := range names {
		c := ds.Column(n)
		if c == nil {
			return nil, dataset.UnknownColumn("pivot", n)
		}
		out[i] = c
	}
	return out, nil
}

// Build groups ds by the row (and column) keys of spec and aggregates each
// value column. Absent combinations are filled with 0. A margin row named
// All is always appended; with column keys every value column also gets an
// All column. Margins are aggregated from the underlying rows.
func Build(ds *dataset.Dataset, spec Spec) (*Table, error) {
	if len(spec.Rows) == 0 {
		return nil, &dataset.SelectionError{Op: "pivot", Reason: "select at least one row field"}
	}
	if len(spec.Values) == 0 {
		return nil, &dataset.SelectionError{Op: "pivot", Reason: "select at least one value column"}
	}
	agg, err := ParseAgg(string(spec.Agg))
	if err != nil {
		return nil, err
	}
	spec.Agg = agg
	rowCols, err := lookup(ds, spec.Rows)
	if err != nil {
		return nil, err
	}
	colCols, err := lookup(ds, spec.Columns)
	if err != nil {
		return nil, err
	}
	valCols, err := lookup(ds, spec.Values)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, dataset.ErrEmpty
	}
	for _, v := range valCols {
		if agg.numeric() && v.Kind != dataset.KindNumeric {
			return nil, dataset.Incompatible("pivot", v.Name, "cannot compute %s of a %s column", agg, v.Kind)
		}
	}

	const margin = "\x00all"
	rowGroups := map[string]group{}
	colGroups := map[string]group{}
	// cells[rowKey][colKey][valueIdx]
	cells := map[string]map[string][]*acc{}
	get := func(rk, ck string, v int) *acc {
		byCol := cells[rk]
		if byCol == nil {
			byCol = map[string][]*acc{}
			cells[rk] = byCol
		}
		as := byCol[ck]
		if as == nil {
			as = make([]*acc, len(valCols))
			byCol[ck] = as
		}
		if as[v] == nil {
			as[v] = &acc{}
		}
		return as[v]
	}

	for i := 0; i < ds.Len(); i++ {
		rg := keyOf(rowCols, i)
		rowGroups[rg.key] = rg
		ck := ""
		if len(colCols) > 0 {
			cg := keyOf(colCols, i)
			colGroups[cg.key] = cg
			ck = cg.key
		}
		for v, vc := range valCols {
			c := vc.Cells[i]
			get(rg.key, ck, v).add(c)
			get(margin, ck, v).add(c)
			if len(colCols) > 0 {
				get(rg.key, margin, v).add(c)
				get(margin, margin, v).add(c)
			}
		}
	}

	rows := make([]group, 0, len(rowGroups))
	for _, g := range rowGroups {
		rows = append(rows, g)
	}
	sortGroups(rows, rowCols)
	cols := make([]group, 0, len(colGroups))
	for _, g := range colGroups {
		cols = append(cols, g)
	}
	sortGroups(cols, colCols)

	type slot struct {
		colKey string
		value  int
	}
	var slots []slot
	t := &Table{Spec: spec}
	for v, vc := range valCols {
		if len(colCols) == 0 {
			slots = append(slots, slot{"", v})
			t.Header = append(t.Header, Header{Value: vc.Name})
			continue
		}
		for _, cg := range cols {
			slots = append(slots, slot{cg.key, v})
			t.Header = append(t.Header, Header{Value: vc.Name, Key: cg.parts})
		}
		slots = append(slots, slot{margin, v})
		t.Header = append(t.Header, Header{Value: vc.Name, Key: marginKeys(len(colCols))})
	}

	emit := func(rk string, keys []string, isMargin bool) {
		r := Row{Keys: keys, Margin: isMargin, Cells: make([]dataset.Cell, len(slots))}
		for i, s := range slots {
			var a *acc
			if as := cells[rk][s.colKey]; as != nil {
				a = as[s.value]
			}
			r.Cells[i] = a.result(agg)
		}
		t.Rows = append(t.Rows, r)
	}
	for _, g := range rows {
		emit(g.key, g.parts, false)
	}
	emit(margin, marginKeys(len(rowCols)), true)
	return t, nil
}

func marginKeys(n int) []string {
	out := make([]string, n)
	out[0] = MarginLabel
	return out
}

// Margin returns the grand-total row.
func (t *Table) Margin() *Row {
	for i := range t.Rows {
		if t.Rows[i].Margin {
			return &t.Rows[i]
		}
	}
	return nil
}

// ColumnLabels returns the flattened header: row fields then value labels.
func (t *Table) ColumnLabels() []string {
	out := append([]string{}, t.Spec.Rows...)
	for _, h := range t.Header {
		out = append(out, h.Label())
	}
	return out
}

// Records returns the header followed by one line per row.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.ColumnLabels())
	for _, r := range t.Rows {
		line := append([]string{}, r.Keys...)
		for _, c := range r.Cells {
			line = append(line, c.Raw)
		}
		out = append(out, line)
	}
	return out
}

// WriteCSV writes Records as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write pivot csv: %w", err)
	}
	return nil
}
