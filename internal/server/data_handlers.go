package server

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/analysis"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/export"
	"github.com/KaramelBytes/sheetlens/internal/filter"
	"github.com/KaramelBytes/sheetlens/internal/loader"
	"github.com/KaramelBytes/sheetlens/internal/session"
)

// loadResponse describes a freshly loaded dataset.
type loadResponse struct {
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Sheets  []string `json:"sheets,omitempty"`
}

func loadedResponse(sess session.Session, sheets []string) loadResponse {
	return loadResponse{Source: sess.Source, Rows: sess.Dataset.Len(), Columns: sess.Dataset.Names(), Sheets: sheets}
}

// requireRows rejects a load that parsed but holds no rows, such as the
// header-only template. The session keeps its previous dataset.
func requireRows(ds *dataset.Dataset, name string) error {
	if ds.Empty() {
		return fmt.Errorf("%s has no data rows: %w", name, dataset.ErrEmpty)
	}
	return nil
}

func (s *Server) sessionInfo(c *fiber.Ctx) error {
	sess := current(c)
	resp := fiber.Map{"session": sess, "has_data": sess.HasData()}
	if sess.HasData() {
		resp["rows"] = sess.Dataset.Len()
		resp["columns"] = sess.Dataset.Names()
	}
	return c.JSON(resp)
}

// upload accepts a multipart "file" field plus an optional "sheet" for
// workbooks.
func (s *Server) upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ds, err := s.load.LoadUpload(c.UserContext(), loader.Upload{
		Name:  fh.Filename,
		MIME:  fh.Header.Get("Content-Type"),
		Data:  data,
		Sheet: c.FormValue("sheet"),
	})
	if err != nil {
		return err
	}
	if err := requireRows(ds, fh.Filename); err != nil {
		return err
	}
	sess, err := s.ss.Replace(current(c).ID, ds, fh.Filename)
	if err != nil {
		return err
	}
	var sheets []string
	if strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		sheets, _ = loader.SheetList(data)
	}
	log.Info().Str("sid", sess.ID).Str("file", fh.Filename).Int("rows", ds.Len()).Msg("dataset uploaded")
	return c.JSON(loadedResponse(sess, sheets))
}

type sheetsRequest struct {
	URL   string `json:"url"`
	ID    string `json:"id"`
	Sheet string `json:"sheet"`
}

// sheetNames resolves a Google Sheets URL to its id and sheet names.
func (s *Server) sheetNames(c *fiber.Ctx) error {
	var req sheetsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	id, err := loader.ExtractSheetID(req.URL)
	if err != nil {
		return err
	}
	names, err := s.load.SheetNames(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "sheets": names})
}

// loadSheet loads one sheet by id, or by URL when no id is given.
func (s *Server) loadSheet(c *fiber.Ctx) error {
	var req sheetsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		var err error
		if id, err = loader.ExtractSheetID(req.URL); err != nil {
			return err
		}
	}
	ds, err := s.load.LoadSheet(c.UserContext(), id, req.Sheet)
	if err != nil {
		return err
	}
	if err := requireRows(ds, ds.Name); err != nil {
		return err
	}
	sess, err := s.ss.Replace(current(c).ID, ds, ds.Name)
	if err != nil {
		return err
	}
	log.Info().Str("sid", sess.ID).Str("sheet", ds.Name).Int("rows", ds.Len()).Msg("google sheet loaded")
	return c.JSON(loadedResponse(sess, nil))
}

// overview returns the dashboard summary, or its markdown rendering with
// ?format=markdown.
func (s *Server) overview(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	rep := analysis.Overview(sess.Dataset, s.opt.Overview)
	if c.Query("format") == "markdown" {
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		return c.SendString(rep.Markdown())
	}
	return c.JSON(rep)
}

// view returns the raw dataset or the session's filtered view.
func (s *Server) view(c *fiber.Ctx, sess session.Session, def string) (*filter.Result, error) {
	switch c.Query("view", def) {
	case "raw":
		return &filter.Result{Data: sess.Dataset, Total: sess.Dataset.Len()}, nil
	case "filtered":
		return filter.Apply(sess.Dataset, sess.Selection, s.opt.Filter)
	default:
		return nil, fiber.NewError(fiber.StatusBadRequest, "view must be raw or filtered")
	}
}

// data serves the raw or filtered rows as JSON or as a download.
func (s *Server) data(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	res, err := s.view(c, sess, "raw")
	if err != nil {
		return err
	}
	format := c.Query("format", "json")
	if format == "json" {
		return c.JSON(fiber.Map{
			"header":  res.Data.Names(),
			"rows":    res.Data.Records()[1:],
			"total":   res.Total,
			"skipped": res.Skipped,
		})
	}
	name := c.Query("view", "raw") + "_data"
	return sendTable(c, export.FromDataset(res.Data), format, name)
}

func (s *Server) template(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := loader.Template().WriteCSV(&buf); err != nil {
		return err
	}
	c.Attachment("template.csv")
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(buf.Bytes())
}

// sendTable encodes t with the exporter for format and sends it as an
// attachment named base plus the format's extension.
func sendTable(c *fiber.Ctx, t *export.Table, format, base string) error {
	ex, err := export.ForFormat(format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := ex.Export(t, &buf); err != nil {
		return err
	}
	c.Attachment(base + ex.Extension())
	c.Set(fiber.HeaderContentType, ex.ContentType())
	return c.Send(buf.Bytes())
}

func badSelection(op, reason string) error {
	return &dataset.SelectionError{Op: op, Reason: reason}
}
