package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

type csvReader struct{}

func (csvReader) CanRead(name, mime string) bool {
	switch ext(name) {
	case ".csv", ".tsv":
		return true
	case "":
		m := mimeBase(mime)
		return m == mimeCSV || m == "text/tab-separated-values"
	}
	return false
}

func (csvReader) Read(_ context.Context, name string, data []byte, opt ReadOptions) (*dataset.Dataset, error) {
	return parseCSV(name, data, opt.Delimiter)
}

func sniffDelimiter(name string) rune {
	if ext(name) == ".tsv" {
		return '\t'
	}
	return ','
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV reads a header row followed by records. Ragged rows are padded
// or truncated to the header width.
func parseCSV(name string, data []byte, delim rune) (*dataset.Dataset, error) {
	if delim == 0 {
		delim = sniffDelimiter(name)
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &dataset.LoadError{Source: name, Err: errors.New("no header row")}
		}
		return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("read header: %w", err)}
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &dataset.LoadError{Source: name, Err: fmt.Errorf("read row %d: %w", len(rows)+1, err)}
		}
		if len(rec) == 1 && rec[0] == "" && len(header) > 1 {
			continue
		}
		rows = append(rows, rec)
	}
	return dataset.New(name, header, rows), nil
}
