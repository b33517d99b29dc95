// Package logger configures the process-wide structured logger: a zap core with a JSON
// encoder, exposed to the rest of the code as a logr.Logger through zapr.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/oakwood-commons/cmtui/pkg/settings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	CommitKey    = "commit"
	VersionKey   = "version"
	BuildTimeKey = "build_time"
	GoVersionKey = "go_version"
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

// Options selects the sink and verbosity. Level follows zap: 0 is info, -1 enables V(1).
type Options struct {
	Level int8
	// File, when set, receives the log instead of stderr. The interactive UI owns the
	// terminal so it always logs to a file or not at all.
	File string
}

var (
	mu sync.Mutex

	globalZapLogger  *zap.Logger
	globalLogrLogger *logr.Logger
	globalSink       io.Closer

	defaultNoopLogger logr.Logger = logr.Discard()
)

func newCore(w zapcore.WriteSyncer, level int8) zapcore.Core {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	goVersion := "unknown"
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(w),
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	).With([]zapcore.Field{
		zap.String(CommitKey, settings.VersionInformation.Commit),
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
		zap.String(BuildTimeKey, settings.VersionInformation.BuildTime),
		zap.String(GoVersionKey, goVersion),
	})
}

// New builds a standalone logger writing to w. It does not touch the global logger.
func New(w zapcore.WriteSyncer, level int8) logr.Logger {
	return zapr.NewLogger(zap.New(newCore(w, level), zap.AddCaller()))
}

// Setup replaces the global logger. A previous log file is closed.
func Setup(opts Options) (*logr.Logger, error) {
	var (
		sink   zapcore.WriteSyncer = os.Stderr
		closer io.Closer
	)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		sink, closer = f, f
	}

	mu.Lock()
	defer mu.Unlock()
	if globalZapLogger != nil {
		_ = globalZapLogger.Sync()
	}
	if globalSink != nil {
		_ = globalSink.Close()
	}
	globalZapLogger = zap.New(newCore(sink, opts.Level),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.WithFatalHook(zapcore.WriteThenPanic),
	)
	globalSink = closer
	gl := zapr.NewLogger(globalZapLogger)
	globalLogrLogger = &gl
	return globalLogrLogger, nil
}

// Get returns the global logger, configuring a stderr logger at logLevel on first use.
func Get(logLevel int8) *logr.Logger {
	mu.Lock()
	configured := globalLogrLogger != nil
	mu.Unlock()
	if !configured {
		if _, err := Setup(Options{Level: logLevel}); err != nil {
			return &defaultNoopLogger
		}
	}
	return GetGlobalLogger()
}

// WithLogger returns a context carrying log. The same context is returned when it already
// carries that logger.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the context's logger, else the global one, else a no-op logger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	return GetGlobalLogger()
}

// Sync flushes buffered entries. Call it before exiting.
func Sync() {
	mu.Lock()
	zl := globalZapLogger
	mu.Unlock()
	if zl == nil {
		return
	}
	if err := zl.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync zap logger: %v\n", err)
	}
}

// isIgnorableSyncError reports the errors Sync returns on pipes and terminals.
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	// Windows consoles
	return strings.Contains(err.Error(), "The handle is invalid")
}

// GetGlobalLogger returns the global logger or a no-op logger when none is configured.
func GetGlobalLogger() *logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogrLogger != nil {
		return globalLogrLogger
	}
	return &defaultNoopLogger
}

func GetNoopLogger() *logr.Logger {
	return &defaultNoopLogger
}

// WithValues returns a copy of lgr with extra key/value pairs.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	nlgr := lgr.WithValues(keysAndValues...)
	return &nlgr
}
