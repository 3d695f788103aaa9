package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application logger instance
var Logger zerolog.Logger = zerolog.Nop()

// Init initializes the logger with the given configuration.
// The CLI writes logs to stderr so that command output on stdout stays clean.
func Init(level, format string) {
	Logger = New(os.Stderr, level, format)

	// Set the global logger
	log.Logger = Logger
}

// New builds a logger writing to w. Tests pass a buffer here.
func New(w io.Writer, level, format string) zerolog.Logger {
	logLevel := parseLogLevel(level)

	if strings.ToLower(format) == "json" {
		return zerolog.New(w).Level(logLevel).With().
			Timestamp().
			Logger()
	}

	// Console format with colors
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}
	return zerolog.New(output).Level(logLevel).With().
		Timestamp().
		Logger()
}

// parseLogLevel parses string log level to zerolog level
func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
