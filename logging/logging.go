// Package logging builds the zerolog loggers used by the engine and the
// consoles.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing JSON lines to w at level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// ConsoleWriter renders log lines for humans. Timestamps are omitted when
// noTime is set, which keeps console transcripts stable.
func ConsoleWriter(w io.Writer, noTime bool) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
	if noTime {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	return cw
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}
