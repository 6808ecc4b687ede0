package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/driftlabs/driftline/internal/infrastructure/config"
)

// Logger wraps slog.Logger so every line carries the service and version
// fields, and so components can derive scoped loggers without touching
// handler setup.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from the logging section of config.yaml.
//
// It selects:
//   - Format: JSON by default, "text" for local development
//   - Level: via parseLevel, defaulting to info
//   - Destination: stdout unless "stderr" is configured
//
// The returned logger stamps service=driftline and the build version on
// every record, so request logs, hub broadcasts, and seeding output can
// all be correlated to a deploy.
func New(cfg config.LoggingConfig, version string) *Logger {
	// Determine output writer
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	// Parse log level
	level := parseLevel(cfg.Level)

	// Create handler based on format
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	// Add default fields
	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "driftline"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// With returns a new Logger carrying additional default attributes.
//
// Used to scope loggers per subsystem:
//
//	hubLog := log.With("component", "hub")
//	hubLog.Info("channel subscribed", "channel", "global-chat") // Includes component=hub
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default returns a stdout JSON logger at info level, for the window at
// startup before config.Load has run. Anything logged through it carries
// version "dev"; main replaces it with a configured logger as soon as the
// config file is parsed.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
