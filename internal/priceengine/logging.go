package priceengine

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a zap.Logger that writes JSON records to a
// size-rotated file (via lumberjack) and human-readable records to
// stderr.
func NewLogger(cfg Config) *zap.Logger {
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})

	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, fileSink, zapcore.InfoLevel),
		zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), zapcore.WarnLevel),
	)
	return zap.New(core, zap.AddCaller())
}
