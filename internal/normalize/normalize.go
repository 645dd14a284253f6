package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// Options controls the cleaning pass applied once at load time.
type Options struct {
	// Placeholder replaces missing values. Defaults to "-".
	Placeholder string
	// DecimalComma parses "1.234,5" style numbers instead of "1,234.5".
	DecimalComma bool
	// CategoricalMaxDistinct marks text columns with at most this many distinct
	// values (and some repetition) as categorical. 0 disables the refinement.
	CategoricalMaxDistinct int
}

// DefaultOptions returns the options used by the dashboard and CLI.
func DefaultOptions() Options {
	return Options{
		Placeholder:            dataset.DefaultPlaceholder,
		CategoricalMaxDistinct: 100,
	}
}

// missing tokens follow the usual CSV conventions for absent values.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "NULL": {}, "null": {},
	"None": {}, "#N/A": {}, "#NA": {}, "<NA>": {}, "NaT": {},
}

// IsMissing reports whether a raw value counts as absent.
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.TrimSpace(s)]
	return ok
}

// Normalize returns a cleaned copy of ds: column names restricted to
// [A-Za-z0-9_] and unique, text columns coerced to datetime or numeric when
// every present value parses, and missing values replaced by the placeholder.
// Running it on its own output is a no-op.
func Normalize(ds *dataset.Dataset, opt Options) *dataset.Dataset {
	if opt.Placeholder == "" {
		opt.Placeholder = dataset.DefaultPlaceholder
	}
	out := ds.Clone()
	names := CleanNames(out.Names())
	for i, c := range out.Columns {
		c.Name = names[i]
		coerce(c, opt)
	}
	return out
}

var disallowed = regexp.MustCompile(`[^A-Za-z0-9_ ]`)

// CleanName strips surrounding whitespace, drops characters outside
// [A-Za-z0-9_ ] and turns spaces into underscores.
func CleanName(s string) string {
	s = strings.TrimSpace(s)
	s = disallowed.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "_")
}

// CleanNames cleans every name and makes the result unique. Empty names
// become column_N; repeats get a numeric suffix.
func CleanNames(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]struct{}, len(names))
	for i, n := range names {
		c := CleanName(n)
		if c == "" {
			c = fmt.Sprintf("column_%d", i+1)
		}
		base := c
		for k := 2; ; k++ {
			if _, dup := used[c]; !dup {
				break
			}
			c = fmt.Sprintf("%s_%d", base, k)
		}
		used[c] = struct{}{}
		out[i] = c
	}
	return out
}

func coerce(c *dataset.Column, opt Options) {
	if c.Kind == dataset.KindNumeric || c.Kind == dataset.KindDatetime {
		fillNulls(c, opt.Placeholder)
		return
	}
	present := make([]string, 0, len(c.Cells))
	for i := range c.Cells {
		if c.Cells[i].Null {
			continue
		}
		if IsMissing(c.Cells[i].Raw) {
			c.Cells[i] = dataset.NullCell(opt.Placeholder)
			continue
		}
		present = append(present, strings.TrimSpace(c.Cells[i].Raw))
	}
	c.Kind = dataset.KindText
	if len(present) > 0 {
		if layout, ok := DetectTimeLayout(present); ok {
			for i := range c.Cells {
				if c.Cells[i].Null {
					continue
				}
				t, _ := time.Parse(layout, strings.TrimSpace(c.Cells[i].Raw))
				c.Cells[i] = dataset.TimeCell(t)
			}
			c.Kind = dataset.KindDatetime
		} else if allNumeric(present, opt.DecimalComma) {
			for i := range c.Cells {
				if c.Cells[i].Null {
					continue
				}
				f, _ := ParseNumber(c.Cells[i].Raw, opt.DecimalComma)
				c.Cells[i] = dataset.NumberCell(f)
			}
			c.Kind = dataset.KindNumeric
		}
	}
	fillNulls(c, opt.Placeholder)
	if c.Kind == dataset.KindText && opt.CategoricalMaxDistinct > 0 {
		n := c.NonNull()
		d := distinctPresent(c, opt.CategoricalMaxDistinct)
		if n > 0 && d <= opt.CategoricalMaxDistinct && d < n {
			c.Kind = dataset.KindCategorical
		}
	}
}

func fillNulls(c *dataset.Column, placeholder string) {
	for i := range c.Cells {
		if c.Cells[i].Null {
			c.Cells[i].Raw = placeholder
		}
	}
}

func distinctPresent(c *dataset.Column, limit int) int {
	seen := make(map[string]struct{})
	for _, cell := range c.Cells {
		if cell.Null {
			continue
		}
		seen[cell.Raw] = struct{}{}
		if len(seen) > limit {
			break
		}
	}
	return len(seen)
}

func allNumeric(values []string, decimalComma bool) bool {
	for _, v := range values {
		if _, ok := ParseNumber(v, decimalComma); !ok {
			return false
		}
	}
	return true
}

// timeLayouts are tried in order; the first layout that parses every present
// value of a column wins, so a column never mixes month-first and day-first.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"2/1/2006",
	"1-2-2006",
	"01-02-06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2006",
	"2006-01",
}

// DetectTimeLayout returns the first layout parsing all values.
func DetectTimeLayout(values []string) (string, bool) {
	for _, l := range timeLayouts {
		ok := true
		for _, v := range values {
			if _, err := time.Parse(l, v); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return l, true
		}
	}
	return "", false
}

// ParseTime parses a single value with any known layout.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var (
	groupedDot   = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
	groupedComma = regexp.MustCompile(`^[+-]?\d{1,3}(\.\d{3})+(,\d+)?$`)
)

// ParseNumber parses a decimal number. Thousands separators are accepted only
// in well-formed groups of three so that "1,2" is never read as 12.
func ParseNumber(s string, decimalComma bool) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
	if raw == "" {
		return 0, false
	}
	if decimalComma {
		if groupedComma.MatchString(raw) {
			raw = strings.ReplaceAll(raw, ".", "")
		}
		raw = strings.Replace(raw, ",", ".", 1)
	} else if groupedDot.MatchString(raw) {
		raw = strings.ReplaceAll(raw, ",", "")
	}
	if strings.ContainsAny(raw, "xXpP_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
