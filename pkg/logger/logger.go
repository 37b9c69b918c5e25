package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls how NewLogger builds the zap logger.
type LoggerConfig struct {
	Debug bool
}

// NewLogger returns a production JSON logger, or a colored development
// console logger at debug level when cfg.Debug is set.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	var zc zap.Config
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return zc.Build()
}
