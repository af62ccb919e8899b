// Package observability provides the structured logging the transmuxer
// core and its CLI host use.
package observability

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/flowreel/transmux/internal/config"
	"github.com/m-mizutani/masq"
)

// LevelTrace sits below slog.LevelDebug for the per-sample/per-keyframe
// logging the demux/remux components emit on every access unit — too
// frequent for slog.LevelDebug, useful when diagnosing a specific
// segment's demux output.
const LevelTrace = slog.Level(-8)

// GlobalLogLevel is the shared log level; SetLogLevel/GetLogLevel
// change and read it at runtime without reconstructing the logger.
var GlobalLogLevel = &slog.LevelVar{}

// NewLogger creates a new slog.Logger based on the provided configuration.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// sensitiveFieldRedactor builds a masq redactor for the encryption key
// material that flows through KeyData: Key and IV must never reach a
// log line in the clear, however a caller happens to name the field
// when logging a KeyData value or one of its components.
func sensitiveFieldRedactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithFieldName("Key"),
		masq.WithFieldName("key"),
		masq.WithFieldName("IV"),
		masq.WithFieldName("iv"),
		masq.WithFieldName("KeyData"),
	)
}

// NewLoggerWithWriter creates a slog.Logger writing to w. Used directly
// by tests and by NewLogger for the stdout default. The logger honors
// GlobalLogLevel for runtime level changes and redacts key material via
// sensitiveFieldRedactor.
func NewLoggerWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	GlobalLogLevel.Set(parseLevel(cfg.Level))
	redactor := sensitiveFieldRedactor()

	opts := &slog.HandlerOptions{
		Level:     GlobalLogLevel,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			a = redactor(groups, a)
			if a.Key == slog.TimeKey && cfg.TimeFormat != "" {
				if t, ok := a.Value.Any().(time.Time); ok {
					return slog.String(slog.TimeKey, t.Format(cfg.TimeFormat))
				}
			}
			if a.Key == slog.LevelKey {
				if lv, ok := a.Value.Any().(slog.Level); ok && lv <= LevelTrace {
					return slog.String(slog.LevelKey, "TRACE")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// parseLevel converts a configured level string to slog.Level.
func parseLevel(level string) slog.Level {
	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLogLevel changes the global log level at runtime.
func SetLogLevel(level string) {
	GlobalLogLevel.Set(parseLevel(level))
}

// GetLogLevel returns the current log level as a string.
func GetLogLevel() string {
	level := GlobalLogLevel.Level()
	switch {
	case level <= LevelTrace:
		return "trace"
	case level == slog.LevelDebug:
		return "debug"
	case level == slog.LevelInfo:
		return "info"
	case level == slog.LevelWarn:
		return "warn"
	case level >= slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

// WithComponent tags a logger with the subsystem emitting through it
// (e.g. "ts-demuxer", "fmp4-remuxer", "orchestrator"), so a host
// process running several demuxer/remuxer pairs can tell their log
// lines apart.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(slog.String("component", component))
}

// WithError adds an error to the logger attributes, or returns logger
// unchanged if err is nil.
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With(slog.String("error", err.Error()))
}
