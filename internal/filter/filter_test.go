package filter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
)

func sales() *dataset.Dataset {
	return normalize.Normalize(dataset.New("sales.csv", []string{"City", "Product", "Sales"}, [][]string{
		{"Paris", "Red Apple", "10"},
		{"Lyon", "green apple", "20"},
		{"Paris", "Pear", "30"},
		{"Nice", "", "40"},
	}), normalize.DefaultOptions())
}

func TestApplyEmptySelection(t *testing.T) {
	ds := sales()
	res, err := Apply(ds, NewSelection(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Data.Len())
	assert.Equal(t, 4, res.Total)
}

func TestApplyAllowListAndQuery(t *testing.T) {
	ds := sales()
	sel := NewSelection()
	sel.SetValues("City", []string{"Paris", "Lyon"})
	sel.SetQuery("Product", "APPLE")

	res, err := Apply(ds, sel, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Data.Len())
	assert.Equal(t, []string{"Paris", "Red Apple", "10"}, res.Data.Row(0))
	assert.Equal(t, []string{"Lyon", "green apple", "20"}, res.Data.Row(1))
}

func TestQueryNeverMatchesMissing(t *testing.T) {
	sel := NewSelection()
	sel.SetQuery("Product", "-")
	res, err := Apply(sales(), sel, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Data.Len())
}

func TestQueryKeepsSurroundingSpaces(t *testing.T) {
	ds := normalize.Normalize(dataset.New("cities.csv", []string{"City"}, [][]string{
		{"New York"}, {"Yorkshire"}, {"york"},
	}), normalize.DefaultOptions())
	sel := NewSelection()
	sel.SetQuery("City", " york")
	res, err := Apply(ds, sel, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Data.Len())
	assert.Equal(t, []string{"New York"}, res.Data.Row(0))

	assert.Equal(t, []string{"New York"}, MatchValues([]string{"New York", "Yorkshire", "york"}, " York"))
}

func TestEmptyAllowListMatchesNothing(t *testing.T) {
	sel := NewSelection()
	sel.SetValues("City", []string{})
	res, err := Apply(sales(), sel, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Data.Len())
}

func TestAllDistinctValuesKeepRowCount(t *testing.T) {
	ds := sales()
	sel := NewSelection()
	for _, name := range ds.Names() {
		vals, err := ValueOptions(ds, name)
		require.NoError(t, err)
		sel.SetValues(name, vals)
	}
	res, err := Apply(ds, sel, Options{})
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), res.Data.Len())
}

func TestResetRestoresRowCount(t *testing.T) {
	ds := sales()
	sel := NewSelection()
	sel.SetValues("City", []string{"Nice"})
	res, err := Apply(ds, sel, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Data.Len())

	sel.Reset()
	assert.False(t, sel.Active())
	res, err = Apply(ds, sel, Options{})
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), res.Data.Len())
}

func TestHighCardinalityColumnSkipped(t *testing.T) {
	rows := make([][]string, 150)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("id-%d", i)}
	}
	ds := dataset.New("ids", []string{"ID"}, rows)
	sel := NewSelection()
	sel.SetValues("ID", []string{"id-1"})
	res, err := Apply(ds, sel, Options{MaxDistinct: 100})
	require.NoError(t, err)
	assert.Equal(t, 150, res.Data.Len())
	assert.Equal(t, []string{"ID"}, res.Skipped)
	assert.Empty(t, Enumerable(ds, 100))
}

func TestUnknownColumn(t *testing.T) {
	sel := NewSelection()
	sel.SetValues("Country", []string{"FR"})
	_, err := Apply(sales(), sel, Options{})
	var se *dataset.SelectionError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Country", se.Column)
}

func TestValueHelpers(t *testing.T) {
	ds := sales()
	vals, err := ValueOptions(ds, "Sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20", "30", "40"}, vals)

	assert.Equal(t, []string{"Red Apple", "green apple"}, MatchValues([]string{"Red Apple", "Pear", "green apple"}, "apple"))
	assert.Equal(t, []string{"City", "Product"}, SearchableColumns(ds))
	assert.Equal(t, []string{"City", "Product", "Sales"}, Enumerable(ds, 100))
}

func TestSelectionClone(t *testing.T) {
	sel := NewSelection()
	sel.SetValues("City", []string{"Paris"})
	sel.SetQuery("Product", "app")

	cp := sel.Clone()
	cp.Columns["City"].Values[0] = "Lyon"
	cp.Reset()

	assert.Equal(t, []string{"Paris"}, sel.Columns["City"].Values)
	assert.True(t, sel.Active())
	assert.False(t, cp.Active())
}
