// Package monitoring holds the process-wide diagnostic logger used by the
// analysis packages. Library code logs through Logf; binaries decide where the
// output goes by calling SetLogger or UseZap at startup.
package monitoring

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var console = newConsoleLogger()

// Logf is the package-level diagnostic logger. It defaults to a zap console
// logger writing to stderr but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = NewZapLogf(console)

// Warnf reports conditions the caller should know about but that do not
// fail the operation, such as an input trace being skipped.
var Warnf func(format string, v ...interface{}) = NewZapWarnf(console)

// SetLogger replaces the package loggers. Warnf is routed through f with a
// "warning: " prefix. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		Warnf = Logf
		return
	}
	Logf = f
	Warnf = func(format string, v ...interface{}) {
		f("warning: "+format, v...)
	}
}

// UseZap routes Logf and Warnf through the given zap logger. A nil logger
// mutes output.
func UseZap(l *zap.Logger) {
	if l == nil {
		SetLogger(nil)
		return
	}
	Logf = NewZapLogf(l)
	Warnf = NewZapWarnf(l)
}

// NewZapLogf adapts a zap logger to the Logf signature at info level.
func NewZapLogf(l *zap.Logger) func(format string, v ...interface{}) {
	s := l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return func(format string, v ...interface{}) {
		s.Infof(format, v...)
	}
}

// NewZapWarnf adapts a zap logger to the Warnf signature at warn level.
func NewZapWarnf(l *zap.Logger) func(format string, v ...interface{}) {
	s := l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	return func(format string, v ...interface{}) {
		s.Warnf(format, v...)
	}
}

func newConsoleLogger() *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		Encoding:         "console",
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
