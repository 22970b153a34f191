// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure the logger.
type Options struct {
	level     slog.Level
	logToFile bool
	logFile   string
}

// Option mutates Options.
type Option func(*Options)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *Options) { o.level = level }
}

// WithLogToFile enables writing logs to a rotated file in addition to stdout.
func WithLogToFile(enabled bool) Option {
	return func(o *Options) { o.logToFile = enabled }
}

// WithLogFile sets the log file path used when file logging is enabled.
func WithLogFile(path string) Option {
	return func(o *Options) { o.logFile = path }
}

// New creates a slog.Logger for the given environment. Development gets a
// colorized tint handler on stderr; production gets JSON, optionally teed
// into a size-rotated file.
func New(environment string, opts ...Option) *slog.Logger {
	options := &Options{
		level:   slog.LevelInfo,
		logFile: "logs/indic-seamless.log",
	}
	for _, opt := range opts {
		opt(options)
	}

	if environment == "development" {
		return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
			Level:      options.level,
			TimeFormat: time.Kitchen,
		}))
	}

	var w io.Writer = os.Stdout
	if options.logToFile {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   options.logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: options.level}))
}

// ParseLevel maps a LOG_LEVEL string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
