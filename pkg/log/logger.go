package log

import (
	"context"
	"fmt"
	"os"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/patchscope/pkg/errors"
)

// ErrAttrKey is the attribute key under which error values are logged.
const ErrAttrKey = "error"

// StacktraceAttrKey is the attribute key for stack traces extracted from
// cockroachdb/errors values.
const StacktraceAttrKey = "stacktrace"

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps the given zerolog.Logger.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return &zerologLogger{zl: zl}
}

func (z *zerologLogger) Debug(msg string, fields ...any) { z.emit(z.zl.Debug(), msg, fields) }
func (z *zerologLogger) Info(msg string, fields ...any)  { z.emit(z.zl.Info(), msg, fields) }
func (z *zerologLogger) Warn(msg string, fields ...any)  { z.emit(z.zl.Warn(), msg, fields) }
func (z *zerologLogger) Error(msg string, fields ...any) { z.emit(z.zl.Error(), msg, fields) }

func (z *zerologLogger) With(fields ...any) Logger {
	ctx := z.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		ctx = ctx.Interface(fmt.Sprintf("%v", fields[i]), fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (z *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= z.zl.GetLevel()
}

func (z *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	// An error passed as the leading odd field gets the standard error key
	// plus any stack trace recorded by cockroachdb/errors.
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = e.AnErr(ErrAttrKey, err)
			if st := extractStacktrace(err); st != "" {
				e = e.Str(StacktraceAttrKey, st)
			}
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func extractStacktrace(err error) string {
	safeDetails := cerrors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
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

// defaultProvider is the process-wide provider backed by zerolog.
type defaultProvider struct {
	mu     sync.RWMutex
	level  zerolog.Level
	writer zerolog.Logger
}

var provider = newDefaultProvider()

func newDefaultProvider() *defaultProvider {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &defaultProvider{level: zerolog.InfoLevel, writer: zl}
}

func (p *defaultProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.writer.Level(p.level)}
}

func (p *defaultProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zerologLogger{zl: p.writer.Level(p.level).With().Str(ComponentKey, name).Logger()}
}

func (p *defaultProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = toZerologLevel(level)
}

// GetLogger returns the default process-wide logger.
func GetLogger() Logger {
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return provider.GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the default provider.
func SetLevel(level Level) {
	provider.SetLevel(level)
}

// SetOutput replaces the default provider's zerolog base logger. The console
// writer variant is what cmd/patchscope installs for interactive runs.
func SetOutput(zl zerolog.Logger) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	provider.writer = zl
}

func init() {
	// Route library warnings (ConvergenceWarning and friends) through the
	// structured logger.
	errors.SetZerologWarnFunc(func(warning error) {
		GetLogger().Warn("library warning", ErrAttrKey, warning)
	})
}
