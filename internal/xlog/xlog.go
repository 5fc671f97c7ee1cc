package xlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Zero is the process-wide logger. Commands adjust the level at startup.
var Zero = New()

// New builds a console logger writing to stderr.
func New() *zerolog.Logger {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return &logger
}

// SetLevel replaces the global logger level.
func SetLevel(level string) {
	logger := Zero.Level(parseLevel(level))
	Zero = &logger
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warning", "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
