package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
)

// Format names an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Exporter writes a Table in one file format.
type Exporter interface {
	Export(t *Table, w io.Writer) error
	ContentType() string
	Extension() string
}

// Table is a format-neutral grid. Row values are float64 for numbers and
// strings otherwise, so spreadsheet formats keep numeric cells numeric.
type Table struct {
	Title     string
	Headers   []string
	Rows      [][]any
	CreatedAt time.Time
	Style     Style
}

// Style controls presentation in formats that support it.
type Style struct {
	HeaderBgColor string
	RowBgColor1   string
	RowBgColor2   string
	AlternateRows bool
	FreezeHeader  bool
	AutoFilter    bool
	FontFamily    string
	FontSize      float64
	Orientation   string
}

// DefaultStyle returns the house style.
func DefaultStyle() Style {
	return Style{
		HeaderBgColor: "#4472C4",
		RowBgColor1:   "#FFFFFF",
		RowBgColor2:   "#F2F2F2",
		AlternateRows: true,
		FreezeHeader:  true,
		AutoFilter:    true,
		FontFamily:    "Arial",
		FontSize:      10,
		Orientation:   "portrait",
	}
}

// ForFormat returns the exporter for a format name such as "xlsx" or ".csv".
func ForFormat(name string) (Exporter, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")) {
	case FormatCSV, "":
		return CSVExporter{}, nil
	case FormatXLSX, "excel":
		return NewExcelExporter(), nil
	case FormatPDF:
		return NewPDFExporter(), nil
	}
	return nil, fmt.Errorf("%w: %q", dataset.ErrUnsupportedFormat, name)
}

// FromDataset converts every row of ds. Present numeric cells become numbers,
// everything else its display string.
func FromDataset(ds *dataset.Dataset) *Table {
	t := &Table{Title: ds.Name, Headers: ds.Names(), CreatedAt: time.Now(), Style: DefaultStyle()}
	for i := 0; i < ds.Len(); i++ {
		row := make([]any, len(ds.Columns))
		for j, c := range ds.Columns {
			cell := c.Cells[i]
			if c.Kind == dataset.KindNumeric && !cell.Null {
				row[j] = cell.Num
			} else {
				row[j] = cell.Raw
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FromPivot converts a pivot table, margin row included.
func FromPivot(pt *pivot.Table) *Table {
	title := "Pivot of " + strings.Join(pt.Spec.Values, ", ") + " by " + strings.Join(pt.Spec.Rows, ", ")
	t := &Table{Title: title, Headers: pt.ColumnLabels(), CreatedAt: time.Now(), Style: DefaultStyle()}
	raw := pt.Spec.Agg == pivot.AggFirst || pt.Spec.Agg == pivot.AggLast
	for _, r := range pt.Rows {
		row := make([]any, 0, len(r.Keys)+len(r.Cells))
		for _, k := range r.Keys {
			row = append(row, k)
		}
		for _, c := range r.Cells {
			if raw || c.Null {
				row = append(row, c.Raw)
			} else {
				row = append(row, c.Num)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return dataset.FormatNumber(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
