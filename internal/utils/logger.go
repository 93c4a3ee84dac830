package utils

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	serverWriter io.Writer
	httpWriter   io.Writer
)

// InitLogger configures the global zerolog logger. Server logs go to stdout
// and a rotating homeserver.log; request logs go to a separate http.log via
// GetHTTPLogger. LOG_DIR overrides the log directory, default ./logs.
func InitLogger(level, format, component string) {
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "./logs"
	}

	if component == "" {
		component = "homeserver"
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Logger = newLogger(os.Stdout, format, component)
		log.Error().Err(err).Str("dir", logDir).Msg("Cannot create log directory, logging to stdout only")
		return
	}

	serverWriter = newRotatingWriter(filepath.Join(logDir, "homeserver.log"))
	httpWriter = newRotatingWriter(filepath.Join(logDir, "http.log"))

	log.Logger = newLogger(io.MultiWriter(os.Stdout, serverWriter), format, component)

	log.Info().
		Str("level", logLevel.String()).
		Str("format", format).
		Str("log_dir", logDir).
		Msg("Logger initialized")
}

func newLogger(out io.Writer, format, component string) zerolog.Logger {
	if format == "text" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}

func newRotatingWriter(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
}

// GetHTTPLogger returns the logger for the request log, writing to http.log.
// Before InitLogger runs it falls back to the global logger.
func GetHTTPLogger() zerolog.Logger {
	if httpWriter == nil {
		return log.Logger
	}
	return zerolog.New(io.MultiWriter(os.Stdout, httpWriter)).With().Timestamp().Str("component", "http").Logger()
}
