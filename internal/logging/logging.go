package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kubev2v/corofiber/internal/config"
)

// Sink lists the logging methods *Logger provides. No package takes a
// Sink parameter; scheduler.ExceptionLogger is satisfied by a *Logger
// built from this package.
type Sink interface {
	FiberPanic(fiberID uint64, recovered any, stack []byte)
	Infow(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

// Logger is the default Sink, backed by a named *zap.SugaredLogger.
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a Logger from cfg.Log: "console" format uses zap's
// development encoder, anything else (including "json") uses production.
func New(cfg config.Log) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", cfg.Level, err)
	}

	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	base, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build: %w", err)
	}
	return &Logger{s: base.Sugar().Named("corofiberd")}, nil
}

// Named returns a child Logger scoped under an additional name segment,
// mirroring the teacher's zap.S().Named(...) chaining.
func (l *Logger) Named(name string) *Logger {
	return &Logger{s: l.s.Named(name)}
}

func (l *Logger) Infow(msg string, keysAndValues ...any)  { l.s.Infow(msg, keysAndValues...) }
func (l *Logger) Errorw(msg string, keysAndValues ...any) { l.s.Errorw(msg, keysAndValues...) }

// FiberPanic implements scheduler.ExceptionLogger.
func (l *Logger) FiberPanic(fiberID uint64, recovered any, stack []byte) {
	l.s.Errorw("fiber panic",
		"fiber_id", fiberID,
		"recovered", recovered,
		"stack", string(stack),
	)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.s.Sync() }
