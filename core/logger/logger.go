package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.SugaredLogger]

func init() {
	current.Store(zap.NewNop().Sugar())
}

// Init builds the process logger. Level is one of debug, info, warn, error;
// encoding is "json" or "console".
func Init(level string, encoding string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}
	current.Store(l.Sugar())
	return nil
}

// Set replaces the process logger, mostly for tests.
func Set(l *zap.SugaredLogger) {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	current.Store(l)
}

// L returns the underlying sugared logger.
func L() *zap.SugaredLogger {
	return current.Load()
}

func Debug(msg string, keysAndValues ...any) {
	current.Load().Debugw(msg, keysAndValues...)
}

func Info(msg string, keysAndValues ...any) {
	current.Load().Infow(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	current.Load().Warnw(msg, keysAndValues...)
}

func Error(msg string, keysAndValues ...any) {
	current.Load().Errorw(msg, keysAndValues...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = current.Load().Sync()
}
