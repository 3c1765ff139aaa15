// Package log provides structured logging for tinyhook using zap.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with tinyhook-specific helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance. Output goes to stderr so script
// diagnostics never mix with guest program output.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	// Shorter timestamps in development
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fallback to no-op if config fails
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// HookError logs a script failure at a hook boundary. The failure is
// recovered by the dispatcher; this record is the only trace of it.
func (l *Logger) HookError(phase string, num int, err error) {
	l.Warn("hook failed",
		zap.String("phase", phase),
		zap.Int("sys", num),
		zap.Error(err),
	)
}

// ScriptLoaded logs a successful script load.
func (l *Logger) ScriptLoaded(path string, pre, post int) {
	l.Info("loaded hook script",
		zap.String("path", path),
		zap.Int("pre", pre),
		zap.Int("post", post),
	)
}

// Hex formats a uint64 as hex string for logging.
func Hex(addr uint64) string {
	return fmt.Sprintf("%#x", addr)
}

// Field helpers for common patterns.

// Addr creates an address field.
func Addr(addr uint64) zap.Field {
	return zap.String("addr", Hex(addr))
}

// Size creates a size field.
func Size(size int) zap.Field {
	return zap.Int("size", size)
}

// Sys creates a syscall number field.
func Sys(num int) zap.Field {
	return zap.Int("sys", num)
}
