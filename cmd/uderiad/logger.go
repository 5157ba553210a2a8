package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap sugared logger to the key-value Logger
// interface shared by the uderia packages.
type zapLogger struct {
	sugared *zap.SugaredLogger
}

func newZapLogger(level, format string) (*zapLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "console", "":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugared: logger.Sugar()}, nil
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugared.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugared.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugared.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugared.Errorw(msg, args...) }

func (l *zapLogger) Sync() {
	_ = l.sugared.Sync()
}
