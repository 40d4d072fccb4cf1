package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

// BuildLogger replaces the global logger with one that writes to stderr, leaving stdout free for the
// generated files when -console is used. Unknown levels fall back to info.
func BuildLogger(level string) {
	zap.ReplaceGlobals(NewLogger(level, zapcore.Lock(os.Stderr)))
}

// NewLogger writes console encoded entries at or above level to output.
func NewLogger(level string, output zapcore.WriteSyncer) *zap.Logger {
	minimumLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		minimumLevel = zapcore.InfoLevel
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})

	return zap.New(zapcore.NewCore(encoder, output, minimumLevel))
}
