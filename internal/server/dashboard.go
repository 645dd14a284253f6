package server

import (
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/pivot"
	"github.com/KaramelBytes/sheetlens/internal/theme"
)

//go:embed dashboard.html
var dashboardHTML string

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardHTML))

type dashboardData struct {
	CSS    template.CSS
	Theme  string
	Themes []string
	Charts []chart.Type
	Aggs   []pivot.Agg
	Source string
	Notes  string
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	sess := current(c)
	th, _ := theme.Lookup(sess.Theme)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return dashboardTmpl.Execute(c, dashboardData{
		CSS:    template.CSS(th.CSS()),
		Theme:  th.Name,
		Themes: theme.Names(),
		Charts: chart.Types,
		Aggs:   pivot.Aggs,
		Source: sess.Source,
		Notes:  sess.Notes,
	})
}
