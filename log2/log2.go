package log2

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Configure replaces the global zerolog logger with a console logger writing to w.
// An empty level means info.
func Configure(level string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return nil
}

func Debugf(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

// IsTrace reports whether the global logger emits trace events.
func IsTrace() bool {
	return log.Logger.GetLevel() == zerolog.TraceLevel
}
