package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/loader"
	"github.com/KaramelBytes/sheetlens/internal/utils"
)

// loadInput reads a local CSV/XLSX path or a Google Sheets URL.
func loadInput(ctx context.Context, l *loader.Loader, src, sheet string) (*dataset.Dataset, error) {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		id, err := loader.ExtractSheetID(src)
		if err != nil {
			return nil, err
		}
		return l.LoadSheet(ctx, id, sheet)
	}
	return l.LoadFile(ctx, src, sheet)
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// assignment is one "column=value" flag occurrence.
type assignment struct {
	col, value string
}

// parseAssignments splits "col=value" flags in order. Only the column name
// is trimmed; the value is kept verbatim.
func parseAssignments(flag string, items []string) ([]assignment, error) {
	out := make([]assignment, 0, len(items))
	for _, it := range items {
		k, v, ok := strings.Cut(it, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --%s %q (use column=value)", flag, it)
		}
		out = append(out, assignment{col: strings.TrimSpace(k), value: v})
	}
	return out, nil
}

// parseValueList reads a comma-separated list of filter values with CSV
// quoting, so `"Paris, TX",Nice` holds two values. Values are not trimmed
// and an empty list matches nothing.
func parseValueList(s string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(s))
	rec, err := r.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid value list %q: %w", s, err)
	}
	return rec, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, what string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote %s to %s\n", what, path)
	return nil
}
