package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// SetupLogger installs the default slog logger for diagnostics output.
// Diagnostics go to stderr so they never interleave with the rendered
// console region on stdout.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		Level: ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stderr, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// NewLogger returns a Logger writing JSON records to w at the given level,
// with the stacktrace-extracting handler installed.
func NewLogger(w io.Writer, level Level) Logger {
	ops := slog.HandlerOptions{Level: slog.Level(level)}
	handler := WrapByErrFmtHandler(slog.NewJSONHandler(w, &ops))
	return &slogLogger{l: slog.New(handler)}
}

// GetLogger returns a Logger backed by the process-wide default slog logger.
func GetLogger() Logger {
	return &slogLogger{l: slog.Default()}
}

// Discard returns a Logger that drops every record. Used when a logger
// instance is constructed without a diagnostics sink.
func Discard() Logger {
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4})
	return &slogLogger{l: slog.New(handler)}
}

func (s *slogLogger) Debug(msg string, fields ...any) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...any)  { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...any)  { s.l.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...any) { s.l.Error(msg, fields...) }

func (s *slogLogger) With(fields ...any) Logger {
	return &slogLogger{l: s.l.With(fields...)}
}

func (s *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return s.l.Enabled(ctx, slog.Level(level))
}
