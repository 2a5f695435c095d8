package log

import (
	"fmt"
	"os"

	"salesdesk/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	stderrOnly bool
}

type Option func(*options)

// StderrOnly 所有層級都寫 stderr，CLI 用來保持 stdout 只有指令輸出
func StderrOnly() Option {
	return func(o *options) { o.stderrOnly = true }
}

// NewLogger 預設 JSON；Warn 以上寫 stderr，其餘寫 stdout
func NewLogger(conf *config.Configuration, opts ...Option) (*zap.Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	level, err := zapcore.ParseLevel(conf.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	threshold := zap.NewAtomicLevelAt(level)

	encoder, err := newEncoder(conf.Log.Format)
	if err != nil {
		return nil, err
	}

	var core zapcore.Core
	if o.stderrOnly {
		core = zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), threshold)
	} else {
		core = zapcore.NewTee(
			zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return threshold.Enabled(l) && l < zapcore.WarnLevel
			})),
			zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return threshold.Enabled(l) && l >= zapcore.WarnLevel
			})),
		)
	}

	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(
			zap.String("service", conf.App.Name),
			zap.String("version", conf.App.Version),
			zap.String("env", conf.App.Env),
		),
	)
	logger.Debug("logger initialised", zap.Stringer("level", level), zap.String("format", conf.Log.Format))
	return logger, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.MessageKey = "message"
	encCfg.TimeKey = "ts"
	encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case "", "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	}
	return nil, fmt.Errorf("unknown log format %q", format)
}
