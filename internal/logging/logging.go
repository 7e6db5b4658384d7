// Package logging configures the process wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Level string
	Dev   bool
	Out   io.Writer
}

// New builds a logger. Dev mode writes human readable console output,
// otherwise one JSON object per line.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Dev {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

// Setup replaces the global logger used through github.com/rs/zerolog/log
func Setup(opts Options) zerolog.Logger {
	logger := New(opts)
	log.Logger = logger
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	return logger
}

// ParseLevel falls back to info for unknown or empty levels
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
