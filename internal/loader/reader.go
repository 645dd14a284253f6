package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// Reader turns the bytes of one tabular format into an untyped dataset.
type Reader interface {
	CanRead(name, mime string) bool
	Read(ctx context.Context, name string, data []byte, opt ReadOptions) (*dataset.Dataset, error)
}

// ReadOptions are format-level knobs shared by readers.
type ReadOptions struct {
	// Sheet selects a workbook sheet by name; empty reads the first sheet.
	Sheet string
	// Delimiter overrides CSV delimiter detection.
	Delimiter rune
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func ext(name string) string { return strings.ToLower(filepath.Ext(name)) }

// mimeBase drops parameters such as "; charset=utf-8".
func mimeBase(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}

func readerFor(name, mime string) (Reader, error) {
	for _, r := range registry {
		if r.CanRead(name, mime) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", filepath.Base(name), dataset.ErrUnsupportedFormat)
}

// Decode parses data with the first registered reader accepting the name or
// mime type. The result is not normalized.
func Decode(ctx context.Context, name, mime string, data []byte, opt ReadOptions) (*dataset.Dataset, error) {
	r, err := readerFor(name, mime)
	if err != nil {
		return nil, err
	}
	ds, err := r.Read(ctx, name, data, opt)
	if err != nil {
		return nil, err
	}
	ds.Name = filepath.Base(name)
	return ds, nil
}
