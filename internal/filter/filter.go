package filter

import (
	"sort"
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// DefaultMaxDistinct is the cardinality above which a column is not offered
// for value filtering.
const DefaultMaxDistinct = 100

// ColumnFilter holds the predicates selected for one column. A nil Values
// slice means no allow-list is active; an empty non-nil slice matches nothing.
type ColumnFilter struct {
	Values []string `json:"values"`
	Query  string   `json:"query,omitempty"`
}

func (f *ColumnFilter) active() bool {
	return f != nil && (f.Values != nil || f.Query != "")
}

// Selection maps column names to their filters for the lifetime of a session.
type Selection struct {
	Columns map[string]*ColumnFilter `json:"columns"`
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{Columns: map[string]*ColumnFilter{}}
}

// Reset clears every stored filter.
func (s *Selection) Reset() {
	s.Columns = map[string]*ColumnFilter{}
}

// Active reports whether any predicate is set.
func (s *Selection) Active() bool {
	if s == nil {
		return false
	}
	for _, f := range s.Columns {
		if f.active() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s *Selection) Clone() *Selection {
	out := NewSelection()
	if s == nil {
		return out
	}
	for col, f := range s.Columns {
		if f == nil {
			continue
		}
		cp := &ColumnFilter{Query: f.Query}
		if f.Values != nil {
			cp.Values = append([]string{}, f.Values...)
		}
		out.Columns[col] = cp
	}
	return out
}

// SetValues stores an allow-list for col.
func (s *Selection) SetValues(col string, values []string) {
	s.ensure(col).Values = values
}

// SetQuery stores a substring query for col.
func (s *Selection) SetQuery(col, query string) {
	s.ensure(col).Query = query
}

func (s *Selection) ensure(col string) *ColumnFilter {
	if s.Columns == nil {
		s.Columns = map[string]*ColumnFilter{}
	}
	f := s.Columns[col]
	if f == nil {
		f = &ColumnFilter{}
		s.Columns[col] = f
	}
	return f
}

// Options tunes Apply.
type Options struct {
	MaxDistinct int
}

// Result is the filtered view.
type Result struct {
	Data *dataset.Dataset
	// Total is the row count before filtering.
	Total int
	// Skipped lists columns whose allow-list was ignored because they have
	// too many distinct values.
	Skipped []string
}

type predicate struct {
	col   *dataset.Column
	allow map[string]struct{}
	query string
}

func (p predicate) match(i int) bool {
	cell := p.col.Cells[i]
	if p.allow != nil {
		if _, ok := p.allow[cell.Raw]; !ok {
			return false
		}
	}
	if p.query != "" {
		if cell.Null || !strings.Contains(strings.ToLower(cell.Raw), p.query) {
			return false
		}
	}
	return true
}

// Apply returns the rows matching every active predicate. Allow-lists compare
// the cell's display form; queries are case-insensitive substrings, taken
// verbatim including surrounding spaces, and never match missing values.
func Apply(ds *dataset.Dataset, sel *Selection, opt Options) (*Result, error) {
	if opt.MaxDistinct <= 0 {
		opt.MaxDistinct = DefaultMaxDistinct
	}
	res := &Result{Total: ds.Len()}
	if !sel.Active() {
		res.Data = ds
		return res, nil
	}

	names := make([]string, 0, len(sel.Columns))
	for name := range sel.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	var preds []predicate
	for _, name := range names {
		f := sel.Columns[name]
		if !f.active() {
			continue
		}
		col := ds.Column(name)
		if col == nil {
			return nil, dataset.UnknownColumn("filter", name)
		}
		p := predicate{col: col, query: strings.ToLower(f.Query)}
		if f.Values != nil {
			if col.DistinctCount(opt.MaxDistinct) > opt.MaxDistinct {
				res.Skipped = append(res.Skipped, name)
			} else {
				p.allow = make(map[string]struct{}, len(f.Values))
				for _, v := range f.Values {
					p.allow[v] = struct{}{}
				}
			}
		}
		if p.allow == nil && p.query == "" {
			continue
		}
		preds = append(preds, p)
	}

	keep := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		ok := true
		for _, p := range preds {
			if !p.match(i) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	res.Data = ds.Select(keep)
	return res, nil
}
