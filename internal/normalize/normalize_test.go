package normalize

import (
	"testing"
	"time"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

func raw(header []string, rows ...[]string) *dataset.Dataset {
	return dataset.New("t.csv", header, rows)
}

func TestCleanNames(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{[]string{" Order Date ", "Sales ($)", "city-name"}, []string{"Order_Date", "Sales_", "cityname"}},
		{[]string{"", "%%", "x"}, []string{"column_1", "column_2", "x"}},
		{[]string{"a", "a", "a!", "a_2"}, []string{"a", "a_2", "a_3", "a_2_2"}},
	}
	for _, tc := range cases {
		got := CleanNames(tc.in)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("CleanNames(%q)[%d] = %q, want %q", tc.in, i, got[i], tc.want[i])
			}
		}
	}
}

func TestNormalizeCoercesColumns(t *testing.T) {
	ds := raw([]string{"Date", "City", "Sales", "Mixed", "Empty"},
		[]string{"2024-01-01", "Paris", "1,200.5", "10", ""},
		[]string{"2024-01-02", "Lyon", "300", "abc", "NA"},
		[]string{"2024-01-03", "Paris", "", "12", "null"},
	)
	out := Normalize(ds, DefaultOptions())

	if k := out.Column("Date").Kind; k != dataset.KindDatetime {
		t.Fatalf("Date kind = %s", k)
	}
	if got := out.Column("Date").Cells[1].Time; !got.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Date[1] = %v", got)
	}
	sales := out.Column("Sales")
	if sales.Kind != dataset.KindNumeric {
		t.Fatalf("Sales kind = %s", sales.Kind)
	}
	if sales.Cells[0].Num != 1200.5 {
		t.Fatalf("Sales[0] = %v", sales.Cells[0].Num)
	}
	if !sales.Cells[2].Null || sales.Cells[2].Raw != "-" {
		t.Fatalf("missing sales should be placeholder null, got %+v", sales.Cells[2])
	}
	if k := out.Column("Mixed").Kind; !k.IsText() {
		t.Fatalf("Mixed should stay text, got %s", k)
	}
	if out.Column("Mixed").Cells[0].Raw != "10" {
		t.Fatalf("mixed column must not be partially coerced")
	}
	if k := out.Column("City").Kind; k != dataset.KindCategorical {
		t.Fatalf("City kind = %s", k)
	}
	empty := out.Column("Empty")
	for _, c := range empty.Cells {
		if !c.Null || c.Raw != "-" {
			t.Fatalf("Empty cells should be placeholders: %+v", c)
		}
	}
	// source untouched
	if ds.Column("Sales").Cells[0].Raw != "1,200.5" {
		t.Fatalf("Normalize mutated its input")
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	ds := raw([]string{"When", "Who ", "Qty", "Note"},
		[]string{"3/1/2024", "ann", "1e3", "x"},
		[]string{"3/2/2024", "bob", "-2", "N/A"},
		[]string{"", "ann", "4.5", "y"},
	)
	once := Normalize(ds, DefaultOptions())
	twice := Normalize(once, DefaultOptions())
	if len(once.Columns) != len(twice.Columns) {
		t.Fatalf("column count changed")
	}
	for i, c := range once.Columns {
		d := twice.Columns[i]
		if c.Name != d.Name || c.Kind != d.Kind {
			t.Fatalf("column %d changed: %s/%s vs %s/%s", i, c.Name, c.Kind, d.Name, d.Kind)
		}
		for j := range c.Cells {
			a, b := c.Cells[j], d.Cells[j]
			if a.Raw != b.Raw || a.Null != b.Null || a.Num != b.Num || !a.Time.Equal(b.Time) {
				t.Fatalf("cell %s[%d] changed: %+v vs %+v", c.Name, j, a, b)
			}
		}
	}
}

func TestPlainNumbersAreNotDates(t *testing.T) {
	out := Normalize(raw([]string{"n"}, []string{"2024"}, []string{"12"}, []string{"7"}), DefaultOptions())
	if out.Columns[0].Kind != dataset.KindNumeric {
		t.Fatalf("kind = %s, want numeric", out.Columns[0].Kind)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in    string
		comma bool
		want  float64
		ok    bool
	}{
		{"42", false, 42, true},
		{" -3.5 ", false, -3.5, true},
		{"1,234,567.25", false, 1234567.25, true},
		{"1.5e3", false, 1500, true},
		{"1,2", false, 0, false},
		{"1.234,5", true, 1234.5, true},
		{"0,75", true, 0.75, true},
		{"NaN", false, 0, false},
		{"Inf", false, 0, false},
		{"0x1p3", false, 0, false},
		{"abc", false, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, tc.comma)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseNumber(%q, %v) = %v, %v; want %v, %v", tc.in, tc.comma, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDetectTimeLayoutRequiresAllValues(t *testing.T) {
	if _, ok := DetectTimeLayout([]string{"2024-01-01", "soon"}); ok {
		t.Fatalf("layout detected for mixed values")
	}
	l, ok := DetectTimeLayout([]string{"13/1/2024", "2/1/2024"})
	if !ok || l != "2/1/2006" {
		t.Fatalf("expected day-first layout, got %q %v", l, ok)
	}
}
