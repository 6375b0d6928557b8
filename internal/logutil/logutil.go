// Package logutil provides the leveled, package-global logging free
// functions used throughout the database, backed by a zap.SugaredLogger
// instead of the stdlib log.Logger. Level is controlled by the LOG_LEVEL
// environment variable or SetLevelByString, same convention as before.
package logutil

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level  = zap.NewAtomicLevel()
	base   *zap.Logger
	sugar  *zap.SugaredLogger
)

func init() {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), level)
	base = zap.New(core)
	sugar = base.Sugar()

	if l := os.Getenv("LOG_LEVEL"); l != "" {
		SetLevelByString(l)
	} else {
		level.SetLevel(zap.InfoLevel)
	}
}

// SetLevelByString sets the minimum log level by name: debug, info, warn,
// error, or fatal. Unrecognized names are treated as "info".
func SetLevelByString(name string) {
	switch strings.ToLower(name) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	case "fatal":
		level.SetLevel(zap.FatalLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}
}

func Debug(args ...interface{})                 { sugar.Debug(args...) }
func Debugf(format string, args ...interface{}) { sugar.Debugf(format, args...) }
func Info(args ...interface{})                  { sugar.Info(args...) }
func Infof(format string, args ...interface{})  { sugar.Infof(format, args...) }
func Warn(args ...interface{})                  { sugar.Warn(args...) }
func Warnf(format string, args ...interface{})  { sugar.Warnf(format, args...) }
func Error(args ...interface{})                 { sugar.Error(args...) }
func Errorf(format string, args ...interface{}) { sugar.Errorf(format, args...) }
func Fatal(args ...interface{})                 { sugar.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { sugar.Fatalf(format, args...) }

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return base.Sync()
}
