package config

import (
	"go.uber.org/zap/zapcore"

	"github.com/spacemeshos/go-blockrecon/log"
)

const defaultLoggingLevel = zapcore.InfoLevel

// LoggerConfig holds the logging level for each module.
type LoggerConfig struct {
	Encoder            log.Encoder   `mapstructure:"log-encoder"`
	AppLoggerLevel     zapcore.Level `mapstructure:"app"`
	ReconLoggerLevel   zapcore.Level `mapstructure:"recon"`
	MempoolLoggerLevel zapcore.Level `mapstructure:"mempool"`
	SimLoggerLevel     zapcore.Level `mapstructure:"sim"`
}

func defaultLoggingConfig() LoggerConfig {
	return LoggerConfig{
		Encoder:            log.ConsoleEncoder,
		AppLoggerLevel:     defaultLoggingLevel,
		ReconLoggerLevel:   defaultLoggingLevel,
		MempoolLoggerLevel: zapcore.WarnLevel,
		SimLoggerLevel:     defaultLoggingLevel,
	}
}
