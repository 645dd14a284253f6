package loader

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(name, mime string) bool {
	switch ext(name) {
	case ".xlsx", ".xlsm":
		return true
	case "":
		return mimeBase(mime) == mimeXLSX
	}
	return false
}

func (xlsxReader) Read(_ context.Context, name string, data []byte, opt ReadOptions) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("workbook has no sheets")}
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("sheet %q not found; available sheets: %s", opt.Sheet, strings.Join(sheets, ", "))}
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	if len(rows) == 0 {
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("sheet %q has no header row", sheet)}
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	unformatNumbers(f, sheet, rows, raw)
	return dataset.New(name, rows[0], rows[1:]), nil
}

// unformatNumbers replaces display text such as "12%" or "$1,234.50" with
// the stored number for numeric cells below the header. Cells with a date or
// time format keep their display text, which the normalizer parses.
func unformatNumbers(f *excelize.File, sheet string, rows, raw [][]string) {
	dates := map[int]bool{}
	for r := 1; r < len(rows) && r < len(raw); r++ {
		for c := range rows[r] {
			if c >= len(raw[r]) || raw[r][c] == rows[r][c] {
				continue
			}
			if _, err := strconv.ParseFloat(raw[r][c], 64); err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			if typ, err := f.GetCellType(sheet, cell); err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
				continue
			}
			idx, err := f.GetCellStyle(sheet, cell)
			if err != nil {
				continue
			}
			isDate, ok := dates[idx]
			if !ok {
				isDate = true
				if st, err := f.GetStyle(idx); err == nil {
					isDate = dateFormat(st)
				}
				dates[idx] = isDate
			}
			if !isDate {
				rows[r][c] = raw[r][c]
			}
		}
	}
}

// dateFormat reports whether a cell style renders its number as a date or
// time: one of the built-in date formats, or a custom code with a date or
// time token outside quoted and bracketed sections.
func dateFormat(st *excelize.Style) bool {
	switch n := st.NumFmt; {
	case n >= 14 && n <= 22, n >= 27 && n <= 36, n >= 45 && n <= 47, n >= 50 && n <= 58:
		return true
	}
	if st.CustomNumFmt == nil {
		return false
	}
	code := strings.ToLower(*st.CustomNumFmt)
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			quoted = !quoted
		case quoted:
		case ch == '[':
			bracket = true
		case ch == ']':
			bracket = false
		case bracket:
		case strings.IndexByte("ymdhs", ch) >= 0:
			return true
		}
	}
	return false
}

// SheetList returns the sheet names of an XLSX workbook in order.
func SheetList(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
