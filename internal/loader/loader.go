package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/cache"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/normalize"
)

// DefaultSheetsBaseURL is the public Google Sheets endpoint.
const DefaultSheetsBaseURL = "https://docs.google.com"

// Options configures a Loader.
type Options struct {
	// CacheTTL bounds how long a loaded dataset is reused. Defaults to 600s.
	CacheTTL time.Duration
	// HTTPTimeout applies to remote sheet fetches. Defaults to 30s.
	HTTPTimeout time.Duration
	// MaxBytes rejects larger inputs; 0 means unlimited.
	MaxBytes int64
	// Normalize is applied to every load.
	Normalize normalize.Options
	// SheetsBaseURL overrides DefaultSheetsBaseURL.
	SheetsBaseURL string
	// Delimiter forces a CSV delimiter.
	Delimiter rune
}

// Loader reads datasets from files, uploads and public Google Sheets,
// normalizes them and memoizes the result by input.
type Loader struct {
	opt    Options
	client *http.Client
	memo   *cache.Memo[*dataset.Dataset]
	names  *cache.Memo[[]string]
}

// New returns a Loader with defaults filled in.
func New(opt Options) *Loader {
	if opt.CacheTTL <= 0 {
		opt.CacheTTL = 600 * time.Second
	}
	if opt.HTTPTimeout <= 0 {
		opt.HTTPTimeout = 30 * time.Second
	}
	if opt.SheetsBaseURL == "" {
		opt.SheetsBaseURL = DefaultSheetsBaseURL
	}
	if opt.Normalize.Placeholder == "" {
		opt.Normalize = normalize.DefaultOptions()
	}
	return &Loader{
		opt:    opt,
		client: &http.Client{Timeout: opt.HTTPTimeout},
		memo:   cache.New[*dataset.Dataset](opt.CacheTTL),
		names:  cache.New[[]string](opt.CacheTTL),
	}
}

// Upload is an in-memory file received from a user.
type Upload struct {
	Name  string
	MIME  string
	Data  []byte
	Sheet string
}

// LoadFile reads and normalizes a local CSV or XLSX file. sheet selects a
// workbook sheet and is ignored for CSV.
func (l *Loader) LoadFile(ctx context.Context, path, sheet string) (*dataset.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &dataset.LoadError{Source: path, Err: err}
	}
	if info.IsDir() {
		return nil, &dataset.LoadError{Source: path, Err: fmt.Errorf("is a directory")}
	}
	if _, err := readerFor(path, ""); err != nil {
		return nil, err
	}
	if err := l.checkSize(path, info.Size()); err != nil {
		return nil, err
	}
	key := fmt.Sprintf("file|%s|%d|%d|%s", path, info.ModTime().UnixNano(), info.Size(), sheet)
	return l.memo.Get(ctx, key, func(ctx context.Context) (*dataset.Dataset, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &dataset.LoadError{Source: path, Err: err}
		}
		return l.decode(ctx, path, "", data, sheet)
	})
}

// LoadUpload decodes and normalizes an uploaded file. The format is chosen by
// extension first, then by MIME type.
func (l *Loader) LoadUpload(ctx context.Context, up Upload) (*dataset.Dataset, error) {
	if _, err := readerFor(up.Name, up.MIME); err != nil {
		return nil, err
	}
	if err := l.checkSize(up.Name, int64(len(up.Data))); err != nil {
		return nil, err
	}
	sum := sha256.Sum256(up.Data)
	key := fmt.Sprintf("upload|%s|%s|%s", up.Name, hex.EncodeToString(sum[:]), up.Sheet)
	return l.memo.Get(ctx, key, func(ctx context.Context) (*dataset.Dataset, error) {
		return l.decode(ctx, up.Name, up.MIME, up.Data, up.Sheet)
	})
}

func (l *Loader) checkSize(name string, n int64) error {
	if l.opt.MaxBytes > 0 && n > l.opt.MaxBytes {
		return &dataset.LoadError{Source: filepath.Base(name), Err: fmt.Errorf("file is %d bytes, limit is %d", n, l.opt.MaxBytes)}
	}
	return nil
}

func (l *Loader) decode(ctx context.Context, name, mime string, data []byte, sheet string) (*dataset.Dataset, error) {
	start := time.Now()
	raw, err := Decode(ctx, name, mime, data, ReadOptions{Sheet: sheet, Delimiter: l.opt.Delimiter})
	if err != nil {
		return nil, err
	}
	ds := normalize.Normalize(raw, l.opt.Normalize)
	log.Debug().
		Str("source", ds.Name).
		Int("rows", ds.Len()).
		Int("cols", ds.Width()).
		Dur("took", time.Since(start)).
		Msg("dataset loaded")
	return ds, nil
}

// Template returns the empty sample dataset offered for download.
func Template() *dataset.Dataset {
	return dataset.New("template.csv", []string{"FC", "QTY", "ZONE", "PICKUP_CITY"}, nil)
}
