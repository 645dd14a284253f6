package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ExcelExporter writes a single-sheet workbook with a styled header row.
type ExcelExporter struct {
	sheetName string
}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{sheetName: "Data"}
}

func (e *ExcelExporter) Export(t *Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", e.sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if t.Title != "" {
		_ = f.SetDocProps(&excelize.DocProperties{Title: t.Title, Creator: "sheetlens"})
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: t.Style.FontSize, Family: t.Style.FontFamily, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHash(t.Style.HeaderBgColor)}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	oddStyle, err := e.rowStyle(f, t.Style, t.Style.RowBgColor1)
	if err != nil {
		return err
	}
	evenStyle := oddStyle
	if t.Style.AlternateRows {
		if evenStyle, err = e.rowStyle(f, t.Style, t.Style.RowBgColor2); err != nil {
			return err
		}
	}

	header := make([]any, len(t.Headers))
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(e.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(e.sheetName, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	for i, row := range t.Rows {
		r := i + 2
		first, _ := excelize.CoordinatesToCellName(1, r)
		vals := make([]any, len(row))
		copy(vals, row)
		if err := f.SetSheetRow(e.sheetName, first, &vals); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
		for j, v := range row {
			if j < len(widths) {
				if n := utf8.RuneCountInString(format(v)); n > widths[j] {
					widths[j] = n
				}
			}
		}
		if len(row) == 0 {
			continue
		}
		last, _ := excelize.CoordinatesToCellName(len(row), r)
		style := oddStyle
		if i%2 == 1 {
			style = evenStyle
		}
		if err := f.SetCellStyle(e.sheetName, first, last, style); err != nil {
			return fmt.Errorf("failed to style row %d: %w", r, err)
		}
	}

	for i, n := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(e.sheetName, col, col, float64(min(max(n, 8), 60)+2))
	}

	if t.Style.FreezeHeader {
		if err := f.SetPanes(e.sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}
	if t.Style.AutoFilter && len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), len(t.Rows)+1)
		if err := f.AutoFilter(e.sheetName, "A1:"+last, nil); err != nil {
			return fmt.Errorf("failed to add auto-filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}
	return nil
}

func (e *ExcelExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *ExcelExporter) Extension() string { return ".xlsx" }

func (e *ExcelExporter) rowStyle(f *excelize.File, st Style, bg string) (int, error) {
	s := &excelize.Style{Font: &excelize.Font{Size: st.FontSize, Family: st.FontFamily}}
	if bg != "" && !strings.EqualFold(bg, "#FFFFFF") {
		s.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripHash(bg)}}
	}
	id, err := f.NewStyle(s)
	if err != nil {
		return 0, fmt.Errorf("failed to create row style: %w", err)
	}
	return id, nil
}

func stripHash(color string) string {
	return strings.TrimPrefix(color, "#")
}
