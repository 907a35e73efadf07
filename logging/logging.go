// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging provides a leveled, colorized logger built on top of
// log/slog.
//
// It is grounded on the teacher framework's logging package: a thin
// wrapper around slog with a console handler that colorizes output by
// level. Unlike the teacher (which is a standalone observability module),
// this package also exposes counter hooks so that a caller (such as
// cmd/exampleservice) can wire Warn/Error calls to the process-wide
// metrics registry's log_warnings/log_errors counters without creating an
// import cycle between logging and metrics.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Level aliases slog.Level so callers don't need to import log/slog.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Logger is a leveled, colorized logger with optional warning/error hooks.
//
// All methods are safe for concurrent use (slog.Logger itself is
// concurrency-safe; the hooks are plain function pointers set once at
// construction).
type Logger struct {
	slogger  *slog.Logger
	onWarn   func()
	onError  func()
	minLevel Level
}

// Option configures a Logger.
type Option func(*Logger)

// WithOutput sets the writer the console handler writes to. Defaults to
// os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(l *Logger) { l.buildWith(w, l.minLevel) }
}

// WithLevel sets the minimum level that is emitted. Defaults to LevelInfo.
func WithLevel(level Level) Option {
	return func(l *Logger) {
		l.minLevel = level
		// A handler built by an earlier WithOutput is rebuilt at the new level.
		if l.slogger != nil {
			if h, ok := l.slogger.Handler().(*consoleHandler); ok {
				l.buildWith(h.output, level)
			}
		}
	}
}

// WithCounterHooks wires onWarn/onError callbacks, invoked synchronously
// every time Warn or Error is called (before the record is emitted).
// cmd/exampleservice uses this to increment metrics.Registry's
// log_warnings/log_errors counters.
func WithCounterHooks(onWarn, onError func()) Option {
	return func(l *Logger) {
		l.onWarn = onWarn
		l.onError = onError
	}
}

// New builds a Logger with a colorized console handler writing to
// os.Stderr by default.
func New(opts ...Option) *Logger {
	l := &Logger{minLevel: LevelInfo}
	for _, opt := range opts {
		opt(l)
	}
	if l.slogger == nil {
		l.buildWith(os.Stderr, l.minLevel)
	}
	return l
}

func (l *Logger) buildWith(w io.Writer, level Level) {
	handler := newConsoleHandler(w, &slog.HandlerOptions{Level: level})
	l.slogger = slog.New(handler)
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.slogger.Info(msg, args...) }

// Warn logs at warn level and fires the onWarn counter hook, if set.
func (l *Logger) Warn(msg string, args ...any) {
	if l.onWarn != nil {
		l.onWarn()
	}
	l.slogger.Warn(msg, args...)
}

// Error logs at error level and fires the onError counter hook, if set.
func (l *Logger) Error(msg string, args ...any) {
	if l.onError != nil {
		l.onError()
	}
	l.slogger.Error(msg, args...)
}

// With returns a Logger whose emitted records carry the given key/value
// pairs in addition to its own.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slogger:  l.slogger.With(args...),
		onWarn:   l.onWarn,
		onError:  l.onError,
		minLevel: l.minLevel,
	}
}

// Slog returns the underlying *slog.Logger for interop with code that
// expects one (e.g. net/http servers' ErrorLog adapters).
func (l *Logger) Slog() *slog.Logger { return l.slogger }

// nopLogger is returned by Nop; it discards everything and never fires
// counter hooks.
var nopLogger = &Logger{slogger: slog.New(slog.NewTextHandler(io.Discard, nil))}

// Nop returns a Logger that discards all output, useful in tests.
func Nop() *Logger { return nopLogger }

// ctxKey is the context key under which a Logger may be stashed by a
// caller wishing to thread a request-scoped logger through a call chain.
type ctxKey struct{}

// WithContext returns a context carrying l, retrievable with FromContext.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the Logger stashed in ctx, or a no-op Logger if none
// was set.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	return Nop()
}
