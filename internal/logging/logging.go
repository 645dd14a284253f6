package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level and sinks for the process logger.
type Options struct {
	Level string
	// File, when set, receives JSON lines through a rotating writer in
	// addition to stderr.
	File  string
	JSON  bool
	Debug bool
	// Out overrides stderr; used by tests.
	Out io.Writer
}

// Setup configures the global zerolog logger and returns it.
func Setup(opt Options) (zerolog.Logger, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if opt.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(opt.Level))
		if err != nil {
			return log.Logger, fmt.Errorf("invalid log level %q: %w", opt.Level, err)
		}
		level = l
	}
	if opt.Debug {
		level = zerolog.DebugLevel
	}

	out := opt.Out
	if out == nil {
		out = os.Stderr
	}
	var w io.Writer = out
	if !opt.JSON {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	if opt.File != "" {
		if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
			return log.Logger, fmt.Errorf("failed to create log dir: %w", err)
		}
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   opt.File,
			MaxSize:    100, // megabytes
			MaxBackups: 3,
			MaxAge:     60, // days
		})
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return logger, nil
}
