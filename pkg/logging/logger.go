package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with application-specific functionality
type Logger struct {
	*slog.Logger
}

// Options tunes the JSON handler behind a Logger.
type Options struct {
	Level  string
	Writer io.Writer
	// Scrub rewrites free-text attribute values before they are written.
	// Attributes listed in ScrubKeys are passed through it.
	Scrub     func(string) string
	ScrubKeys []string
}

// New creates a new logger with the specified level
func New(level string) *Logger {
	return NewWithOptions(Options{Level: level})
}

// NewWithOptions creates a logger writing JSON to opts.Writer (stdout when nil).
func NewWithOptions(opts Options) *Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}
	if opts.Scrub != nil && len(opts.ScrubKeys) > 0 {
		keys := make(map[string]struct{}, len(opts.ScrubKeys))
		for _, k := range opts.ScrubKeys {
			keys[k] = struct{}{}
		}
		scrub := opts.Scrub
		handlerOpts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
			if _, ok := keys[a.Key]; !ok {
				return a
			}
			if a.Value.Kind() != slog.KindString {
				return a
			}
			return slog.String(a.Key, scrub(a.Value.String()))
		}
	}

	handler := slog.NewJSONHandler(w, handlerOpts)
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a logger with default settings
func Default() *Logger {
	return New("info")
}

// With returns a Logger carrying the given attributes on every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
