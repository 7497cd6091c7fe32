// Package log provides structured logging with build context.
//
// Two logger variants are available:
//   - Logger: non-sugared zap.Logger for the detector and reload paths
//   - SugaredLogger: printf-style logging for CLI surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging with build identity context.
// Every entry carries the app name and the running build identifier so
// interleaved sessions can be told apart in aggregated logs.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger carrying app and build context.
// Output defaults to os.Stderr.
func NewLogger(app, buildID string) *Logger {
	return newLoggerWithWriter(app, buildID, os.Stderr)
}

// NewNop returns a logger that discards everything. Useful default for
// library callers that pass no logger.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithOutput returns a new logger writing to w instead.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := newJSONCore(w)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

func newJSONCore(w io.Writer) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
}

func newLoggerWithWriter(app, buildID string, w io.Writer) *Logger {
	contextFields := []zap.Field{
		zap.String("app", app),
	}
	if buildID != "" {
		contextFields = append(contextFields, zap.String("build_id", buildID))
	}

	zapLogger := zap.New(newJSONCore(w)).With(contextFields...)
	return &Logger{zap: zapLogger}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}
