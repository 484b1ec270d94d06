// Package logging builds the zap sugared logger every other package logs
// through, with an optional lumberjack-backed rotating file sink.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileRotation configures the optional lumberjack sink.
type FileRotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a production-configured sugared logger. If rotation is
// non-nil, log output is written (also) to the rotating file it describes.
func New(component string, rotation *FileRotation) (*zap.SugaredLogger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encCfg)

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.InfoLevel)

	if rotation != nil && rotation.Path != "" {
		lj := &lumberjack.Logger{
			Filename:   rotation.Path,
			MaxSize:    orDefault(rotation.MaxSizeMB, 100),
			MaxBackups: rotation.MaxBackups,
			MaxAge:     rotation.MaxAgeDays,
			Compress:   rotation.Compress,
		}
		fileCore := zapcore.NewCore(encoder, zapcore.AddSync(lj), zap.InfoLevel)
		core = zapcore.NewTee(core, fileCore)
	}

	logger := zap.New(core, zap.AddCaller()).With(zap.String("component", component))
	return logger.Sugar(), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
