package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/dataset"
)

// ExtractSheetID returns the spreadsheet id of a Google Sheets URL, the path
// segment following /d/.
func ExtractSheetID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &dataset.LoadError{Source: raw, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if !strings.Contains(u.Path, "spreadsheets") {
		return "", &dataset.LoadError{Source: raw, Err: errors.New("not a Google Sheets URL")}
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "d" && parts[i+1] != "" {
			return parts[i+1], nil
		}
	}
	return "", &dataset.LoadError{Source: raw, Err: errors.New("sheet id not found in URL")}
}

func (l *Loader) fetch(ctx context.Context, u string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	var body io.Reader = resp.Body
	if l.opt.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, l.opt.MaxBytes+1)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := b
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, "", fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if l.opt.MaxBytes > 0 && int64(len(b)) > l.opt.MaxBytes {
		return nil, "", fmt.Errorf("response exceeds %d bytes", l.opt.MaxBytes)
	}
	return b, resp.Header.Get("Content-Type"), nil
}

// SheetNames lists the sheets of a public spreadsheet. Names come from the
// workbook export when it is reachable; otherwise the single default sheet
// is assumed.
func (l *Loader) SheetNames(ctx context.Context, id string) ([]string, error) {
	return l.names.Get(ctx, "names|"+id, func(ctx context.Context) ([]string, error) {
		u := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=xlsx", l.opt.SheetsBaseURL, url.PathEscape(id))
		b, _, err := l.fetch(ctx, u)
		if err == nil {
			if names, err := SheetList(b); err == nil && len(names) > 0 {
				return names, nil
			}
		}
		log.Debug().Str("sheet_id", id).Err(err).Msg("workbook export unavailable, assuming Sheet1")
		return []string{"Sheet1"}, nil
	})
}

// LoadSheet fetches one sheet as CSV through the gviz endpoint and
// normalizes it.
func (l *Loader) LoadSheet(ctx context.Context, id, sheet string) (*dataset.Dataset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &dataset.LoadError{Source: "google sheets", Err: errors.New("empty sheet id")}
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	source := fmt.Sprintf("%s (%s)", id, sheet)
	return l.memo.Get(ctx, "sheet|"+id+"|"+sheet, func(ctx context.Context) (*dataset.Dataset, error) {
		u := fmt.Sprintf("%s/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s",
			l.opt.SheetsBaseURL, url.PathEscape(id), url.QueryEscape(sheet))
		b, ctype, err := l.fetch(ctx, u)
		if err != nil {
			return nil, &dataset.LoadError{Source: source, Err: err}
		}
		if strings.Contains(strings.ToLower(ctype), "text/html") {
			return nil, &dataset.LoadError{Source: source, Err: errors.New("sheet is not public or does not exist")}
		}
		ds, err := l.decode(ctx, sheet+".csv", mimeCSV, b, "")
		if err != nil {
			return nil, err
		}
		ds.Name = source
		return ds, nil
	})
}
