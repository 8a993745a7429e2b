package observability

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeySessionID ctxKey = "session_id"
)

var level = new(slog.LevelVar)

// basic global logger, JSON to stdout.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

func Logger() *slog.Logger {
	return logger
}

// SetLevel changes the level of the global logger: debug, info, warn or error.
func SetLevel(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// SetLogger replaces the global logger, e.g. to keep stdout free for the chat REPL.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// NewLogger builds a JSON logger on the given file sharing the global level.
func NewLogger(f *os.File) *slog.Logger {
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
}

// WithFields returns a logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return logger.With(kv...)
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// WithSessionID stores a session_id in the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID, sessionID)
}

// LoggerFromContext adds request_id and session_id if present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	l := logger
	if reqID, _ := ctx.Value(ctxKeyRequestID).(string); reqID != "" {
		l = l.With("request_id", reqID)
	}
	if sessID, _ := ctx.Value(ctxKeySessionID).(string); sessID != "" {
		l = l.With("session_id", sessID)
	}
	return l
}
