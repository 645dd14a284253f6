package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/analysis"
	"github.com/KaramelBytes/sheetlens/internal/chart"
	"github.com/KaramelBytes/sheetlens/internal/config"
	"github.com/KaramelBytes/sheetlens/internal/dataset"
	"github.com/KaramelBytes/sheetlens/internal/filter"
	"github.com/KaramelBytes/sheetlens/internal/loader"
	"github.com/KaramelBytes/sheetlens/internal/session"
)

// Options wires the dashboard to its collaborators.
type Options struct {
	Loader   *loader.Loader
	Sessions *session.Store
	Overview analysis.Options
	Filter   filter.Options
	// Image sizes rendered charts; the palette comes from the session theme.
	Image chart.ImageOptions
	// MaxUploadBytes caps request bodies. Defaults to 200 MiB.
	MaxUploadBytes int
}

// OptionsFromConfig derives server options from the global configuration.
func OptionsFromConfig(c *config.Global, l *loader.Loader) Options {
	ov := analysis.DefaultOptions()
	ov.LargeRows = c.LargeRowsThreshold
	ov.LargeBytes = c.LargeBytesThreshold
	ov.SampleRows = c.SampleRows
	ov.SampleSeed = c.SampleSeed
	return Options{
		Loader:         l,
		Sessions:       session.NewStore(time.Duration(c.SessionIdleMin)*time.Minute, c.DefaultTheme),
		Overview:       ov,
		Filter:         filter.Options{MaxDistinct: c.FilterMaxDistinct},
		Image:          chart.ImageOptions{Width: c.ChartWidth, Height: c.ChartHeight},
		MaxUploadBytes: c.MaxUploadMB << 20,
	}
}

// Server is the interactive dashboard: the HTML page plus its JSON and
// download API. All state lives in per-visitor sessions keyed by cookie.
type Server struct {
	app  *fiber.App
	opt  Options
	load *loader.Loader
	ss   *session.Store
}

// New builds the fiber app and registers every route.
func New(opt Options) *Server {
	if opt.Loader == nil {
		opt.Loader = loader.New(loader.Options{})
	}
	if opt.Sessions == nil {
		opt.Sessions = session.NewStore(time.Hour, "")
	}
	if opt.MaxUploadBytes <= 0 {
		opt.MaxUploadBytes = 200 << 20
	}
	if opt.Overview.PreviewRows == 0 {
		opt.Overview = analysis.DefaultOptions()
	}
	s := &Server{opt: opt, load: opt.Loader, ss: opt.Sessions}
	s.app = fiber.New(fiber.Config{
		AppName:               "sheetlens",
		BodyLimit:             opt.MaxUploadBytes,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})
	s.app.Use(requestLogger())
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: stashStack,
	}))
	s.app.Use(cors.New())
	s.app.Use(s.sessionMiddleware())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/", s.dashboard)
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.app.Group("/api")
	api.Get("/session", s.sessionInfo)
	api.Post("/upload", s.upload)
	api.Post("/sheets", s.sheetNames)
	api.Post("/sheets/load", s.loadSheet)
	api.Get("/overview", s.overview)
	api.Get("/overview/charts/:n", s.overviewChart)
	api.Get("/data", s.data)
	api.Get("/template.csv", s.template)

	api.Get("/filters/options", s.filterOptions)
	api.Put("/filters", s.setFilters)
	api.Post("/filters/reset", s.resetFilters)

	api.Post("/pivot", s.pivot)

	api.Get("/charts", s.chartTypes)
	api.Post("/chart", s.chart)

	api.Put("/notes", s.setNotes)
	api.Get("/themes", s.themes)
	api.Put("/theme", s.setTheme)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listen(addr) }()
	log.Info().Str("addr", addr).Msg("dashboard listening")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return s.app.ShutdownWithTimeout(10 * time.Second)
	}
}

var errNoData = errors.New("no dataset loaded; upload a file or load a Google Sheet first")

const stackKey = "stack"

func stashStack(c *fiber.Ctx, e interface{}) {
	c.Locals(stackKey, string(debug.Stack()))
	log.Error().Str("path", c.Path()).Interface("panic", e).Msg("recovered from panic")
}

func statusFor(err error) int {
	var fe *fiber.Error
	var le *dataset.LoadError
	var se *dataset.SelectionError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errNoData):
		return fiber.StatusNotFound
	case errors.As(err, &le):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &se), errors.Is(err, dataset.ErrUnsupportedFormat), errors.Is(err, dataset.ErrEmpty):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// errorHandler turns handler errors into JSON. User errors carry their
// message; anything else is reported as an internal error with the stack
// captured by the recover middleware, when there is one.
func errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	body := fiber.Map{"error": err.Error()}
	if dataset.IsUserError(err) {
		log.Warn().Err(err).Str("path", c.Path()).Int("status", code).Msg("request rejected")
	}
	if code == fiber.StatusInternalServerError {
		body["error"] = fmt.Sprintf("internal error: %v", err)
		if st, ok := c.Locals(stackKey).(string); ok {
			body["trace"] = st
		}
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(code).JSON(body)
}
