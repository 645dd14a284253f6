package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// Markdown renders the overview for terminals and standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Memory: %.2f MB\n\n", float64(r.MemoryBytes)/(1<<20)))

	if len(r.Cols) > 0 {
		b.WriteString("[SCHEMA]\n")
	}
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique))
		switch c.Kind {
		case dataset.KindNumeric:
			if c.NonNull > 0 {
				b.WriteString(fmt.Sprintf(" - min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			}
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case dataset.KindDatetime:
			if !c.From.IsZero() {
				b.WriteString(fmt.Sprintf(" - %s to %s", dataset.FormatTime(c.From), dataset.FormatTime(c.To)))
			}
		case dataset.KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" - top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		default:
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" - e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Preview) > 0 {
		b.WriteString("\n[PREVIEW]\n")
		table(&b, r.Header, r.Preview)
	}
	if len(r.Pivot) > 1 {
		b.WriteString("\n[PIVOT]\n")
		if r.Sampled {
			b.WriteString("(sampled)\n")
		}
		table(&b, r.Pivot[0], r.Pivot[1:])
	}
	if len(r.Charts) > 0 {
		b.WriteString("\n[SUGGESTED CHARTS]\n")
		for _, c := range r.Charts {
			b.WriteString(fmt.Sprintf("- %s: x=%s y=%s\n", c.Type, c.X, strings.Join(c.Y, ",")))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func table(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(h))
	}
	b.WriteString(" |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
