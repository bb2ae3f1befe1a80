package log

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a console logger tagged with the given component. The
// level defaults to info and can be overridden with LOG_LEVEL.
func NewLogger(component string) zerolog.Logger {
	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	return zerolog.New(writer).Level(level).With().Timestamp().Str("component", component).Logger()
}
