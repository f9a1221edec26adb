package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	perrors "github.com/YuminosukeSato/housingeda/pkg/errors"
)

// ZerologProvider implements LoggerProvider on top of zerolog.
// All loggers handed out by one provider share its level.
type ZerologProvider struct {
	base  zerolog.Logger
	level *atomic.Int64
}

// ProviderOption configures a ZerologProvider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	out     io.Writer
	console bool
}

// WithWriter sets the destination of log records. Defaults to os.Stderr.
func WithWriter(w io.Writer) ProviderOption {
	return func(c *providerConfig) {
		c.out = w
	}
}

// WithConsoleFormat switches from JSON lines to zerolog's human readable console output.
func WithConsoleFormat() ProviderOption {
	return func(c *providerConfig) {
		c.console = true
	}
}

// NewZerologProvider creates a provider emitting records at or above level.
func NewZerologProvider(level Level, opts ...ProviderOption) *ZerologProvider {
	cfg := &providerConfig{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	out := cfg.out
	if cfg.console {
		out = zerolog.ConsoleWriter{Out: cfg.out, NoColor: true}
	}

	p := &ZerologProvider{
		base:  zerolog.New(out).With().Timestamp().Logger(),
		level: &atomic.Int64{},
	}
	p.level.Store(int64(level))
	return p
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.base, level: p.level}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{
		zl:    p.base.With().Str(ComponentKey, name).Logger(),
		level: p.level,
	}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.level.Store(int64(level))
}

type zerologLogger struct {
	zl    zerolog.Logger
	level *atomic.Int64
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(LevelDebug, msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(LevelInfo, msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(LevelWarn, msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(LevelError, msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	return &zerologLogger{
		zl:    l.zl.With().Fields(normalizeFields(fields)).Logger(),
		level: l.level,
	}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return int64(level) >= l.level.Load()
}

func (l *zerologLogger) emit(level Level, msg string, fields []any) {
	if !l.Enabled(context.Background(), level) {
		return
	}
	l.zl.WithLevel(toZerologLevel(level)).Fields(normalizeFields(fields)).Msg(msg)
}

// warnObject writes a warning carrying a zerolog object marshaller.
func (l *zerologLogger) warnObject(msg string, obj zerolog.LogObjectMarshaler, fields []any) {
	if !l.Enabled(context.Background(), LevelWarn) {
		return
	}
	l.zl.Warn().Object("warning", obj).Fields(normalizeFields(fields)).Msg(msg)
}

// normalizeFields turns a leading error into an "error" pair and adds the
// stack trace of every error value found among the fields.
func normalizeFields(fields []any) []any {
	if len(fields) == 0 {
		return nil
	}
	if err, ok := fields[0].(error); ok && len(fields)%2 == 1 {
		fields = append([]any{ErrorKey, err}, fields[1:]...)
	}

	out := make([]any, 0, len(fields)+4)
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		value := fields[i+1]
		out = append(out, key, value)

		if err, ok := value.(error); ok && err != nil {
			out = append(out, ErrorCodeKey, perrors.Code(err))
			if st := extractStacktrace(err); st != "" {
				out = append(out, StacktraceKey, st)
			}
		}
	}
	return out
}

func extractStacktrace(err error) string {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if details := errors.GetSafeDetails(e).SafeDetails; len(details) > 0 {
			return details[0]
		}
	}
	return ""
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level >= LevelError:
		return zerolog.ErrorLevel
	case level >= LevelWarn:
		return zerolog.WarnLevel
	case level >= LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// ParseLevel converts a textual level ("debug", "info", "warn", "error") into a Level.
func ParseLevel(level string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Newf("invalid log level: %q", level)
	}
}

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider = NewZerologProvider(LevelInfo)
)

// SetProvider replaces the package-level provider.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

// GetProvider returns the package-level provider.
func GetProvider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return defaultProvider
}

// GetLogger returns the default logger of the package-level provider.
func GetLogger() Logger {
	return GetProvider().GetLogger()
}

// GetLoggerWithName returns a named logger of the package-level provider.
func GetLoggerWithName(name string) Logger {
	return GetProvider().GetLoggerWithName(name)
}

// Warning logs w at warn level on logger, tagged with its type under
// WarningTypeKey. Warnings that know how to marshal themselves are logged as a
// structured object.
func Warning(logger Logger, w error) {
	fields := []any{WarningTypeKey, strings.TrimPrefix(fmt.Sprintf("%T", w), "*errors.")}
	if zl, ok := logger.(*zerologLogger); ok {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			zl.warnObject(w.Error(), obj, fields)
			return
		}
	}
	logger.Warn(w.Error(), fields...)
}

// InstallWarningHandler routes warnings raised through the process-wide
// errors.Warn to logger. The returned func restores the previous route.
//
//	defer log.InstallWarningHandler(logger)()
func InstallWarningHandler(logger Logger) (restore func()) {
	previous := perrors.SetZerologWarnFunc(func(w error) { Warning(logger, w) })
	return func() { perrors.SetZerologWarnFunc(previous) }
}
