// Package rzlog adapts github.com/rs/zerolog to desim.Logger, the
// structured-logging interface the kernel and its domain components log
// through. It is the structured Logger implementation this repo ships
// (pass it to desim.WithLogger; the kernel otherwise uses desim.NopLogger), wrapping a
// single third-party backend behind desim's own small interface rather
// than exposing zerolog directly.
package rzlog

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/desimkit/desim"
)

// Logger adapts a zerolog.Logger to desim.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New returns a Logger writing human-readable console output to w. Pass
// os.Stdout for interactive use; for production use NewJSON instead.
func New(w *os.File) *Logger {
	return &Logger{zl: zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()}
}

// NewJSON returns a Logger writing newline-delimited JSON to w.
func NewJSON(w *os.File) *Logger {
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

func (l *Logger) event(level zerolog.Level, msg string, kv []any) {
	e := l.zl.WithLevel(level)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}

func (l *Logger) Trace(msg string, kv ...any) { l.event(zerolog.TraceLevel, msg, kv) }
func (l *Logger) Debug(msg string, kv ...any) { l.event(zerolog.DebugLevel, msg, kv) }
func (l *Logger) Info(msg string, kv ...any)  { l.event(zerolog.InfoLevel, msg, kv) }
func (l *Logger) Warn(msg string, kv ...any)  { l.event(zerolog.WarnLevel, msg, kv) }
func (l *Logger) Error(msg string, kv ...any) { l.event(zerolog.ErrorLevel, msg, kv) }

var _ desim.Logger = (*Logger)(nil)
