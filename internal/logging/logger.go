// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/NowakAdmin/ScaleBridge/internal/config"
)

const fileName = "agent.log"

// New returns a logger writing JSON lines to stdout and/or a log file in dir.
// The returned close function releases the file handle.
func New(cfg config.LoggingConfig, dir string) (zerolog.Logger, func(), error) {
	zerolog.TimeFieldFormat = time.RFC3339

	writers := make([]io.Writer, 0, 2)
	closeFn := func() {}

	if cfg.Console {
		writers = append(writers, os.Stdout)
	}

	if cfg.File {
		logPath := filepath.Join(dir, fileName)
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return zerolog.Nop(), closeFn, err
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closeFn, err
		}

		writers = append(writers, f)
		closeFn = func() {
			_ = f.Close()
		}
	}

	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger := zerolog.New(io.MultiWriter(writers...)).
		Level(ParseLevel(cfg.Level, cfg.Debug)).
		With().
		Timestamp().
		Str("service", "scalebridge").
		Logger()

	return logger, closeFn, nil
}

// ParseLevel falls back to info for unknown names; debug wins over level.
func ParseLevel(level string, debug bool) zerolog.Level {
	if debug {
		return zerolog.DebugLevel
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return parsed
}

func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
