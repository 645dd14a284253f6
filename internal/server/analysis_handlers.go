package server

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/KaramelBytes/sheetlens/internal/analysis"
	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/export"
	"github.com/KaramelBytes/sheetlens/internal/filter"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
	"github.com/KaramelBytes/sheetlens/internal/session"
	"github.com/KaramelBytes/sheetlens/internal/theme"
)

// filterOptions lists the filterable columns, or the choices of one column
// narrowed by ?q= when ?column= is given.
func (s *Server) filterOptions(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	col := c.Query("column")
	if col == "" {
		return c.JSON(fiber.Map{
			"enumerable": filter.Enumerable(sess.Dataset, s.opt.Filter.MaxDistinct),
			"searchable": filter.SearchableColumns(sess.Dataset),
		})
	}
	values, err := filter.ValueOptions(sess.Dataset, col)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"column": col, "values": filter.MatchValues(values, c.Query("q"))})
}

// setFilters replaces the selection after checking it against the dataset.
func (s *Server) setFilters(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	sel := filter.NewSelection()
	if err := c.BodyParser(sel); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if sel.Columns == nil {
		sel.Columns = map[string]*filter.ColumnFilter{}
	}
	res, err := filter.Apply(sess.Dataset, sel, s.opt.Filter)
	if err != nil {
		return err
	}
	if _, err := s.ss.Update(sess.ID, func(st *session.Session) error {
		st.Selection = sel
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rows": res.Data.Len(), "total": res.Total, "skipped": res.Skipped})
}

func (s *Server) resetFilters(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	if _, err := s.ss.Update(sess.ID, func(st *session.Session) error {
		st.Selection.Reset()
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"rows": sess.Dataset.Len(), "total": sess.Dataset.Len()})
}

// pivot builds a pivot table over the filtered view by default. ?format=
// selects json, csv, xlsx or pdf.
func (s *Server) pivot(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	var spec pivot.Spec
	if err := c.BodyParser(&spec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	if spec.Agg, err = pivot.ParseAgg(string(spec.Agg)); err != nil {
		return err
	}
	res, err := s.view(c, sess, "filtered")
	if err != nil {
		return err
	}
	pt, err := pivot.Build(res.Data, spec)
	if err != nil {
		return err
	}
	format := c.Query("format", "json")
	if format == "json" {
		recs := pt.Records()
		return c.JSON(fiber.Map{"spec": pt.Spec, "header": recs[0], "rows": recs[1:]})
	}
	return sendTable(c, export.FromPivot(pt), format, "pivot_table")
}

func (s *Server) chartTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": chart.Types})
}

// chart builds a figure over the filtered view by default. ?format= selects
// json, png, svg, html or csv (the plotted columns).
func (s *Server) chart(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	var spec chart.Spec
	if err := c.BodyParser(&spec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	spec.Type = chart.ParseType(string(spec.Type))
	res, err := s.view(c, sess, "filtered")
	if err != nil {
		return err
	}
	format := strings.ToLower(c.Query("format", "json"))
	if format == "csv" {
		var buf bytes.Buffer
		if err := chart.DataCSV(res.Data, spec, &buf); err != nil {
			return err
		}
		c.Attachment("chart_data.csv")
		c.Set(fiber.HeaderContentType, "text/csv")
		return c.Send(buf.Bytes())
	}

	fig, err := chart.Build(res.Data, spec)
	if err != nil {
		return err
	}
	th, _ := theme.Lookup(sess.Theme)
	img := s.opt.Image
	img.Palette = th.Series

	var buf bytes.Buffer
	switch format {
	case "json":
		return c.JSON(fig)
	case "png", "svg":
		return sendImage(c, fig, format, img)
	case "html":
		if err := chart.RenderHTML(fig, &buf, chart.HTMLOptions{Image: img, CSS: th.CSS()}); err != nil {
			return err
		}
		c.Attachment("chart.html")
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(buf.Bytes())
	}
	return badSelection("chart", "format must be json, png, svg, html or csv")
}

func sendImage(c *fiber.Ctx, fig *chart.Figure, format string, img chart.ImageOptions) error {
	var buf bytes.Buffer
	if err := chart.RenderImage(fig, chart.ImageFormat(format), &buf, img); err != nil {
		return err
	}
	if format == "svg" {
		c.Set(fiber.HeaderContentType, "image/svg+xml")
	} else {
		c.Set(fiber.HeaderContentType, "image/png")
	}
	if c.QueryBool("download") {
		c.Attachment("chart." + format)
	}
	return c.Send(buf.Bytes())
}

// overviewChart renders the n-th suggested overview chart as an image,
// drawn from the same sample the overview uses.
func (s *Server) overviewChart(c *fiber.Ctx) error {
	sess, err := loaded(c)
	if err != nil {
		return err
	}
	n, err := c.ParamsInt("n")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "chart index must be a number")
	}
	sample, _ := analysis.Sample(sess.Dataset, s.opt.Overview)
	specs := analysis.SuggestCharts(sample)
	if n < 0 || n >= len(specs) {
		return fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("overview has %d chart(s)", len(specs)))
	}
	format := strings.ToLower(c.Query("format", "png"))
	if format != "png" && format != "svg" {
		return badSelection("chart", "format must be png or svg")
	}
	fig, err := chart.Build(sample, specs[n])
	if err != nil {
		return err
	}
	th, _ := theme.Lookup(sess.Theme)
	img := s.opt.Image
	img.Palette = th.Series
	return sendImage(c, fig, format, img)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) setNotes(c *fiber.Ctx) error {
	var req notesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	sess, err := s.ss.SetNotes(current(c).ID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"notes": sess.Notes})
}

func (s *Server) themes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"themes": theme.All(), "current": current(c).Theme})
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func (s *Server) setTheme(c *fiber.Ctx) error {
	var req themeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	sess, err := s.ss.SetTheme(current(c).ID, req.Theme)
	if err != nil {
		return err
	}
	th, _ := theme.Lookup(sess.Theme)
	return c.JSON(th)
}
