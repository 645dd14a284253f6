package export

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
)

func sales() *dataset.Dataset {
	return normalize.Normalize(dataset.New("sales.csv", []string{"City", "Sales"}, [][]string{
		{"Paris", "10"},
		{"Lyon", "5"},
		{"Paris", "7.5"},
		{"Nice", ""},
	}), normalize.DefaultOptions())
}

func TestForFormat(t *testing.T) {
	for name, ext := range map[string]string{"csv": ".csv", ".XLSX": ".xlsx", "excel": ".xlsx", "pdf": ".pdf", "": ".csv"} {
		e, err := ForFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, ext, e.Extension())
	}
	_, err := ForFormat("xls")
	assert.True(t, errors.Is(err, dataset.ErrUnsupportedFormat))
}

func TestFromDatasetKeepsNumbers(t *testing.T) {
	tbl := FromDataset(sales())
	assert.Equal(t, []string{"City", "Sales"}, tbl.Headers)
	require.Len(t, tbl.Rows, 4)
	assert.Equal(t, 10.0, tbl.Rows[0][1])
	assert.Equal(t, "-", tbl.Rows[3][1])
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVExporter{}.Export(FromDataset(sales()), &buf))
	assert.Equal(t, "City,Sales\nParis,10\nLyon,5\nParis,7.5\nNice,-\n", buf.String())
}

func TestExcelExportPivot(t *testing.T) {
	pt, err := pivot.Build(sales(), pivot.Spec{Rows: []string{"City"}, Values: []string{"Sales"}, Agg: pivot.AggSum})
	require.NoError(t, err)

	var buf bytes.Buffer
	e := NewExcelExporter()
	require.NoError(t, e.Export(FromPivot(pt), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"City", "Sales"}, rows[0])
	assert.Equal(t, []string{"All", "22.5"}, rows[4])

	typ, err := f.GetCellType("Data", "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)

	panes, err := f.GetPanes("Data")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, "Pivot of Sales by City", props.Title)
}

func TestPDFExport(t *testing.T) {
	var buf bytes.Buffer
	tbl := FromDataset(sales())
	for i := 0; i < 80; i++ {
		tbl.Rows = append(tbl.Rows, []any{"Zürich", float64(i)})
	}
	require.NoError(t, NewPDFExporter().Export(tbl, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	assert.Error(t, NewPDFExporter().Export(&Table{}, &bytes.Buffer{}))
}
