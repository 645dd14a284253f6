package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindText        Kind = "text"
	KindNumeric     Kind = "numeric"
	KindDatetime    Kind = "datetime"
	KindCategorical Kind = "categorical"
)

// IsText reports whether cells of this kind carry plain strings.
func (k Kind) IsText() bool {
	return k == KindText || k == KindCategorical || k == ""
}

// DefaultPlaceholder replaces missing values after normalization.
const DefaultPlaceholder = "-"

// Cell is a single value. Raw always holds the display form; Num and Time
// are only meaningful for numeric and datetime columns respectively.
type Cell struct {
	Raw  string
	Num  float64
	Time time.Time
	Null bool
}

func (c Cell) String() string { return c.Raw }

// TextCell wraps a raw string.
func TextCell(s string) Cell { return Cell{Raw: s} }

// NumberCell builds a numeric cell with a canonical display form.
func NumberCell(f float64) Cell { return Cell{Raw: FormatNumber(f), Num: f} }

// TimeCell builds a datetime cell with a canonical display form.
func TimeCell(t time.Time) Cell { return Cell{Raw: FormatTime(t), Time: t} }

// NullCell marks a missing value shown as placeholder.
func NullCell(placeholder string) Cell { return Cell{Raw: placeholder, Null: true} }

// FormatNumber renders floats without trailing zeros.
func FormatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// FormatTime renders dates at midnight without a clock part.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

// Column is a named, typed vector of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// Dataset is an ordered collection of equally long columns.
type Dataset struct {
	Name    string
	Columns []*Column
}

// New builds an untyped dataset from a header and string rows. Short rows are
// padded with empty strings, long rows are truncated to the header width.
func New(name string, header []string, rows [][]string) *Dataset {
	ds := &Dataset{Name: name, Columns: make([]*Column, len(header))}
	for j, h := range header {
		cells := make([]Cell, len(rows))
		for i, rec := range rows {
			if j < len(rec) {
				cells[i] = TextCell(rec[j])
			}
		}
		ds.Columns[j] = &Column{Name: h, Kind: KindText, Cells: cells}
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil || len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// Width returns the number of columns.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// Empty reports whether there is nothing to explore.
func (d *Dataset) Empty() bool { return d.Len() == 0 || d.Width() == 0 }

// Names lists column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of a column or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the named column or nil.
func (d *Dataset) Column(name string) *Column {
	if i := d.Index(name); i >= 0 {
		return d.Columns[i]
	}
	return nil
}

// ColumnsOfKind lists names of columns matching any of the kinds.
func (d *Dataset) ColumnsOfKind(kinds ...Kind) []string {
	var out []string
	for _, c := range d.Columns {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

// Clone deep-copies the dataset.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// Select returns a new dataset holding the given rows in order.
func (d *Dataset) Select(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, Columns: make([]*Column, len(d.Columns))}
	for i, c := range d.Columns {
		cells := make([]Cell, len(rows))
		for k, r := range rows {
			cells[k] = c.Cells[r]
		}
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.Len() {
		n = d.Len()
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return d.Select(idx)
}

// Sample draws n rows without replacement using a fixed seed so repeated
// renders show the same rows. Row order of the source is preserved.
func (d *Dataset) Sample(n int, seed int64) *Dataset {
	if n >= d.Len() {
		return d.Clone()
	}
	rng := rand.New(rand.NewSource(seed))
	idx := rng.Perm(d.Len())[:n]
	sort.Ints(idx)
	return d.Select(idx)
}

// Subset keeps only the named columns in the given order.
func (d *Dataset) Subset(names []string) (*Dataset, error) {
	out := &Dataset{Name: d.Name}
	for _, n := range names {
		c := d.Column(n)
		if c == nil {
			return nil, UnknownColumn("select", n)
		}
		out.Columns = append(out.Columns, c)
	}
	return out.Clone(), nil
}

// Row returns the display strings of row i.
func (d *Dataset) Row(i int) []string {
	out := make([]string, len(d.Columns))
	for j, c := range d.Columns {
		out[j] = c.Cells[i].Raw
	}
	return out
}

// Records returns the header followed by every row as strings.
func (d *Dataset) Records() [][]string {
	out := make([][]string, 0, d.Len()+1)
	out = append(out, d.Names())
	for i := 0; i < d.Len(); i++ {
		out = append(out, d.Row(i))
	}
	return out
}

// WriteCSV writes the dataset with a header row and no index column.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(d.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// DistinctCells returns the distinct cells of a column (by display form) in
// first-seen order. Null cells participate through their placeholder.
func (c *Column) DistinctCells() []Cell {
	seen := make(map[string]struct{}, 64)
	var out []Cell
	for _, cell := range c.Cells {
		if _, ok := seen[cell.Raw]; ok {
			continue
		}
		seen[cell.Raw] = struct{}{}
		out = append(out, cell)
	}
	return out
}

// DistinctCount counts distinct display values, stopping early past limit
// when limit > 0.
func (c *Column) DistinctCount(limit int) int {
	seen := make(map[string]struct{}, 64)
	for _, cell := range c.Cells {
		seen[cell.Raw] = struct{}{}
		if limit > 0 && len(seen) > limit {
			break
		}
	}
	return len(seen)
}

// NonNull counts present values.
func (c *Column) NonNull() int {
	n := 0
	for _, cell := range c.Cells {
		if !cell.Null {
			n++
		}
	}
	return n
}

// Compare orders two cells of the given kind. Nulls sort last.
func Compare(kind Kind, a, b Cell) int {
	switch {
	case a.Null && b.Null:
		return 0
	case a.Null:
		return 1
	case b.Null:
		return -1
	}
	switch kind {
	case KindNumeric:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case KindDatetime:
		return a.Time.Compare(b.Time)
	default:
		return strings.Compare(a.Raw, b.Raw)
	}
}

// SortCells sorts cells in place by typed order.
func SortCells(kind Kind, cells []Cell) {
	sort.SliceStable(cells, func(i, j int) bool { return Compare(kind, cells[i], cells[j]) < 0 })
}

// MemoryEstimate approximates the in-memory footprint in bytes.
func (d *Dataset) MemoryEstimate() int64 {
	const perCell = 64
	var total int64
	for _, c := range d.Columns {
		for _, cell := range c.Cells {
			total += perCell + int64(len(cell.Raw))
		}
	}
	return total
}
