// Package logger provides the process-wide leveled logger.
//
// The CLI front-ends call Init once with the configured level and format;
// everything else uses the package-level printf-style functions. Before Init
// is called the logger only emits warnings and errors, so library code can
// log unconditionally.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.SugaredLogger

func init() {
	log = build(zapcore.WarnLevel, "console")
}

// Init configures the global logger. Level is one of debug, info, warn,
// error (case-insensitive); format is "console" or "json". Unknown values
// fall back to info/console.
func Init(level, format string) {
	log = build(parseLevel(level), format)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func build(level zapcore.Level, format string) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		EncoderConfig:    encCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if strings.ToLower(format) == "json" {
		cfg.Encoding = "json"
	} else {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		// The static configs above cannot fail to build; keep the previous
		// logger rather than panic in a CLI process.
		return log
	}
	return l.Sugar()
}

func Debug(format string, v ...any) {
	log.Debugf(format, v...)
}

func Info(format string, v ...any) {
	log.Infof(format, v...)
}

func Warn(format string, v ...any) {
	log.Warnf(format, v...)
}

func Error(format string, v ...any) {
	log.Errorf(format, v...)
}

// Sync flushes any buffered log entries. Called on CLI exit.
func Sync() {
	_ = log.Sync()
}
