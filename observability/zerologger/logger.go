// Package zerologger backs the core.Logger facade with rs/zerolog, giving
// the threading runtime structured JSON (or console) log output.
package zerologger

import (
	"io"

	"github.com/Sanaki/go-threading/core"
	"github.com/rs/zerolog"
)

// Logger adapts a zerolog.Logger to core.Logger.
type Logger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*Logger)(nil)

// New creates a Logger writing to w. A nil w selects zerolog's default
// (stderr).
func New(w io.Writer) *Logger {
	var zl zerolog.Logger
	if w == nil {
		zl = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	} else {
		zl = zerolog.New(w).With().Timestamp().Logger()
	}
	return &Logger{zl: zl}
}

// Wrap adapts an existing zerolog.Logger.
func Wrap(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...core.Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...core.Field) {
	l.emit(l.zl.Info(), msg, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...core.Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...core.Field) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []core.Field) {
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}
