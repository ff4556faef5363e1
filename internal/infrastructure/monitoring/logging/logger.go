// Package logging is the structured logger every plexnet component receives
// by injection.  Only this package imports go.uber.org/zap.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/plexnet/pkg/errors"
)

// Logger is the logging contract of the engine.  Fatal exits the process and
// is reserved for startup; engine code reports failures with Error and
// returns them.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	// With returns a child carrying fields on every entry.
	With(fields ...Field) Logger
	// Named appends name to the logger name, dot separated.
	Named(name string) Logger
}

// Levels and formats understood by NewLogger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// LogConfig selects level, encoding and outputs.  Empty fields mean info,
// json, stdout and stderr.
type LogConfig struct {
	Level            string   `mapstructure:"level" json:"level"`
	Format           string   `mapstructure:"format" json:"format"`
	OutputPaths      []string `mapstructure:"output_paths" json:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" json:"error_output_paths"`
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

func newEncoder(format string) zapcore.Encoder {
	if format == FormatConsole {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewConsoleEncoder(enc)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(enc)
}

// NewLogger builds a zap-backed Logger.  It fails when an output path cannot
// be opened.
func NewLogger(cfg LogConfig) (Logger, error) {
	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}
	errOutputs := cfg.ErrorOutputPaths
	if len(errOutputs) == 0 {
		errOutputs = []string{"stderr"}
	}

	sink, closeSink, err := zap.Open(outputs...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "failed to open log output").
			WithDetail(strings.Join(outputs, ","))
	}
	errSink, _, err := zap.Open(errOutputs...)
	if err != nil {
		closeSink()
		return nil, errors.Wrap(err, errors.ErrCodeConfig, "failed to open log error output").
			WithDetail(strings.Join(errOutputs, ","))
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, zap.NewAtomicLevelAt(parseLevel(cfg.Level)))
	opts := []zap.Option{zap.ErrorOutput(errSink), zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Format == FormatConsole {
		opts = append(opts, zap.Development())
	}
	return &zapLogger{z: zap.New(core, opts...)}, nil
}

// NewLoggerFromCore wraps an existing core, typically an observer in tests.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapLogger{z: zap.New(core, zap.AddCallerSkip(1))}
}

type zapLogger struct {
	z *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, toZapFields(fields)...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, toZapFields(fields)...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, toZapFields(fields)...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, toZapFields(fields)...) }
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.z.Fatal(msg, toZapFields(fields)...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(toZapFields(fields)...)}
}

func (l *zapLogger) Named(name string) Logger { return &zapLogger{z: l.z.Named(name)} }

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (nopLogger) Fatal(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }
func (n nopLogger) Named(string) Logger  { return n }

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }
