package dataset

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Dataset {
	return New("sales.csv", []string{"City", "Sales"}, [][]string{
		{"Paris", "10"},
		{"Lyon"},
		{"Paris", "5", "extra"},
	})
}

func TestNewPadsAndTruncates(t *testing.T) {
	ds := sample()
	require.Equal(t, 3, ds.Len())
	require.Equal(t, 2, ds.Width())
	assert.Equal(t, "", ds.Column("Sales").Cells[1].Raw)
	assert.Equal(t, []string{"Paris", "5"}, ds.Row(2))
}

func TestSelectAndClone(t *testing.T) {
	ds := sample()
	sub := ds.Select([]int{2, 0})
	assert.Equal(t, []string{"Paris", "5"}, sub.Row(0))
	assert.Equal(t, []string{"Paris", "10"}, sub.Row(1))

	cl := ds.Clone()
	cl.Columns[0].Cells[0].Raw = "Nice"
	assert.Equal(t, "Paris", ds.Columns[0].Cells[0].Raw)
}

func TestSampleIsDeterministic(t *testing.T) {
	rows := make([][]string, 200)
	for i := range rows {
		rows[i] = []string{FormatNumber(float64(i))}
	}
	ds := New("n", []string{"n"}, rows)
	a := ds.Sample(50, 1)
	b := ds.Sample(50, 1)
	require.Equal(t, 50, a.Len())
	assert.Equal(t, a.Records(), b.Records())
	assert.Equal(t, 3, ds.Head(3).Len())
	assert.Equal(t, 200, ds.Sample(500, 1).Len())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sample().WriteCSV(&buf))
	assert.Equal(t, "City,Sales\nParis,10\nLyon,\nParis,5\n", buf.String())
}

func TestDistinctAndCompare(t *testing.T) {
	c := &Column{Name: "n", Kind: KindNumeric, Cells: []Cell{NumberCell(3), NumberCell(1), NullCell("-"), NumberCell(3)}}
	d := c.DistinctCells()
	require.Len(t, d, 3)
	SortCells(c.Kind, d)
	assert.Equal(t, "1", d[0].Raw)
	assert.Equal(t, "3", d[1].Raw)
	assert.True(t, d[2].Null)
	assert.Equal(t, 3, c.NonNull())
	assert.Equal(t, 2, c.DistinctCount(1))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "2024-03-01", FormatTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-03-01 10:30:00", FormatTime(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)))
}

func TestSubsetUnknownColumn(t *testing.T) {
	_, err := sample().Subset([]string{"City", "Nope"})
	var se *SelectionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Nope", se.Column)
	assert.True(t, IsUserError(err))
	assert.True(t, strings.Contains(err.Error(), "no such column"))
}
