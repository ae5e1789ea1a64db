// Package logger wraps zap with the console+file core pair used across the pipeline.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the narrow logging surface the pipeline depends on, so call sites
// don't couple directly to zap's concrete types.
type Logger interface {
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field)
	Fatal(msg string, fields ...zapcore.Field)
	With(fields ...zapcore.Field) Logger
}

// ZapLogger is the zap-backed Logger implementation.
type ZapLogger struct {
	logger *zap.Logger
}

// New builds a Logger with a colored console core and, when logFile is
// non-empty, a JSON file core tailing the same events.
func New(debug bool, logFile string) *ZapLogger {
	return &ZapLogger{logger: newZapLogger(debug, logFile)}
}

func newZapLogger(debug bool, logFile string) *zap.Logger {
	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleConfig.EncodeCaller = shortCallerEncoder

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(os.Stdout), level),
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err == nil {
			if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666); err == nil {
				fileConfig := zap.NewProductionEncoderConfig()
				fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
				cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(f), zapcore.DebugLevel))
			}
		}
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// shortCallerEncoder prints "file.go:line" instead of the full import path.
func shortCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	if !caller.Defined {
		enc.AppendString("undefined")
		return
	}
	enc.AppendString(fmt.Sprintf("%s:%d", filepath.Base(caller.File), caller.Line))
}

func (l *ZapLogger) Debug(msg string, fields ...zapcore.Field) { l.logger.Debug(msg, fields...) }
func (l *ZapLogger) Info(msg string, fields ...zapcore.Field)  { l.logger.Info(msg, fields...) }
func (l *ZapLogger) Warn(msg string, fields ...zapcore.Field)  { l.logger.Warn(msg, fields...) }
func (l *ZapLogger) Error(msg string, fields ...zapcore.Field) { l.logger.Error(msg, fields...) }
func (l *ZapLogger) Fatal(msg string, fields ...zapcore.Field) { l.logger.Fatal(msg, fields...) }

func (l *ZapLogger) With(fields ...zapcore.Field) Logger {
	return &ZapLogger{logger: l.logger.With(fields...)}
}

// Sugar returns a zap.SugaredLogger over the underlying zap.Logger, for
// call sites that want zap's loosely typed key-value API rather than the
// trimmed Logger interface.
func (l *ZapLogger) Sugar() *zap.SugaredLogger { return l.logger.Sugar() }

// Zap returns the underlying *zap.Logger directly, for call sites (backend
// adapters, the translation engine) that take a concrete *zap.Logger rather
// than this package's Logger interface.
func (l *ZapLogger) Zap() *zap.Logger { return l.logger }

var _ Logger = (*ZapLogger)(nil)
