package logger

import "log/slog"

// Interface is the logging surface injected through the application. The *w
// variants take alternating key/value pairs, matching slog's loose form.
type Interface interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Interface
	Named(name string) Interface

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

type slogAdapter struct {
	s *slog.Logger
}

// NewLogger wraps the process-wide slog logger, initializing it with defaults
// when Init was never called (tests take this path).
func NewLogger() Interface {
	return &slogAdapter{s: Get()}
}

func (l *slogAdapter) Debug(msg string, args ...any) { l.s.Debug(msg, args...) }
func (l *slogAdapter) Info(msg string, args ...any)  { l.s.Info(msg, args...) }
func (l *slogAdapter) Warn(msg string, args ...any)  { l.s.Warn(msg, args...) }
func (l *slogAdapter) Error(msg string, args ...any) { l.s.Error(msg, args...) }

func (l *slogAdapter) With(args ...any) Interface {
	return &slogAdapter{s: l.s.With(args...)}
}

func (l *slogAdapter) Named(name string) Interface {
	return &slogAdapter{s: l.s.With("logger", name)}
}

func (l *slogAdapter) Debugw(msg string, keysAndValues ...any) { l.s.Debug(msg, keysAndValues...) }
func (l *slogAdapter) Infow(msg string, keysAndValues ...any)  { l.s.Info(msg, keysAndValues...) }
func (l *slogAdapter) Warnw(msg string, keysAndValues ...any)  { l.s.Warn(msg, keysAndValues...) }
func (l *slogAdapter) Errorw(msg string, keysAndValues ...any) { l.s.Error(msg, keysAndValues...) }
