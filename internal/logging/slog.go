package logging

import (
	"context"
	"log/slog"
)

// SlogLogger adapts *slog.Logger to Logger. The CLI and the tests use it;
// the server logs through ZapLogger.
type SlogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps l, or slog.Default() when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

// With returns a logger carrying args on every record. Store and request
// loggers call it with store_id and request_id.
func (s *SlogLogger) With(args ...any) Logger {
	if len(args) == 0 {
		return s
	}
	return &SlogLogger{l: s.l.With(args...)}
}
