package log

import (
	"context"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// StacktraceAttrKey is the attribute under which an error's stack trace is
// attached to error-level events.
const StacktraceAttrKey = "stacktrace"

var (
	loggerMu      sync.RWMutex
	defaultLogger Logger = newZerologLogger()
)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide default logger. Intended for tests and
// for applications that need a custom sink.
func SetLogger(l Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = l
}

// SetLevel sets the minimum level emitted by the zerolog backend.
func SetLevel(level Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologLogger adapts zerolog to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

func newZerologLogger() *zerologLogger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func (z *zerologLogger) Debug(msg string, fields ...any) {
	z.emit(z.zl.Debug(), msg, fields)
}

func (z *zerologLogger) Info(msg string, fields ...any) {
	z.emit(z.zl.Info(), msg, fields)
}

func (z *zerologLogger) Warn(msg string, fields ...any) {
	z.emit(z.zl.Warn(), msg, fields)
}

func (z *zerologLogger) Error(msg string, fields ...any) {
	z.emit(z.zl.Error(), msg, fields)
}

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel() &&
		toZerologLevel(level) >= zerolog.GlobalLevel()
}

// emit writes one event, expanding key/value pairs. Error values marshal as
// structured objects when they implement zerolog.LogObjectMarshaler, and any
// cockroachdb stack trace is attached alongside.
func (z *zerologLogger) emit(ev *zerolog.Event, msg string, fields []any) {
	if ev == nil {
		return
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		switch v := fields[i+1].(type) {
		case error:
			if marshaler, ok := v.(zerolog.LogObjectMarshaler); ok {
				ev = ev.Object(key, marshaler)
			} else {
				ev = ev.AnErr(key, v)
			}
			if trace := extractStacktrace(v); trace != "" {
				ev = ev.Str(StacktraceAttrKey, trace)
			}
		default:
			ev = ev.Interface(key, v)
		}
	}
	ev.Msg(msg)
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
