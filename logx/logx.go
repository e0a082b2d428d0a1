// Package logx implements the core.Logger interface on top of zerolog.
package logx

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/taskslib/go-tasks-queue/core"
)

// Logger adapts a zerolog.Logger to the core.Logger interface.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New creates a Logger writing JSON lines to w at the given level.
func New(w io.Writer, level zerolog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// NewConsole creates a Logger with zerolog's human-readable console output,
// for examples and local development.
func NewConsole(level zerolog.Level) *Logger {
	cw := zerolog.ConsoleWriter{Out: os.Stderr}
	return &Logger{zl: zerolog.New(cw).Level(level).With().Timestamp().Logger()}
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...core.Field) {
	emit(l.zl.Debug(), msg, fields)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...core.Field) {
	emit(l.zl.Info(), msg, fields)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields ...core.Field) {
	emit(l.zl.Warn(), msg, fields)
}

// Error logs an error message with optional fields.
func (l *Logger) Error(msg string, fields ...core.Field) {
	emit(l.zl.Error(), msg, fields)
}

func emit(ev *zerolog.Event, msg string, fields []core.Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}
