package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/sheetlens/internal/session"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "sid"

const sessionKey = "session"

// requestLogger logs one line per request. Chain errors are resolved here
// through the app error handler so the logged status is the one sent.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		var ev *zerolog.Event
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		default:
			ev = log.Debug()
		}
		sid, _ := c.Locals(SessionCookie).(string)
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("sid", sid).
			Msg("request")
		return nil
	}
}

// sessionMiddleware resolves the visitor's session, creating one and
// setting the cookie when needed.
func (s *Server) sessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := s.ss.Touch(c.Cookies(SessionCookie))
		if sess.ID != c.Cookies(SessionCookie) {
			c.Cookie(&fiber.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(SessionCookie, sess.ID)
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

func current(c *fiber.Ctx) session.Session {
	sess, _ := c.Locals(sessionKey).(session.Session)
	return sess
}

// loaded returns the session when it holds a dataset.
func loaded(c *fiber.Ctx) (session.Session, error) {
	sess := current(c)
	if !sess.HasData() {
		return sess, errNoData
	}
	return sess, nil
}
