package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes the header and rows; titles and styles are ignored.
type CSVExporter struct{}

func (CSVExporter) Export(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	line := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		line = line[:0]
		for _, v := range row {
			line = append(line, format(v))
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSVExporter) ContentType() string { return "text/csv" }

func (CSVExporter) Extension() string { return ".csv" }
