package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where log lines go.
type Options struct {
	// Level is a zap level name ("debug", "info", "warn", "error"). Empty means info.
	Level string
	// Console additionally writes human-readable lines to stderr at ConsoleLevel.
	// The terminal UI leaves this off since stderr shares the screen.
	Console      bool
	ConsoleLevel string
}

// New creates a zap logger that appends JSON to logPath and optionally
// mirrors to stderr. Session name and PID are included as initial fields.
func New(logPath, sessionName string, opts Options) (*zap.Logger, error) {
	level, err := parseLevel(opts.Level, zapcore.InfoLevel)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level),
	}
	if opts.Console {
		consoleLevel, err := parseLevel(opts.ConsoleLevel, level)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(os.Stderr), consoleLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.Fields(
			zap.String("session", sessionName),
			zap.Int("pid", os.Getpid()),
		),
	)
	return logger, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func parseLevel(name string, fallback zapcore.Level) (zapcore.Level, error) {
	if name == "" {
		return fallback, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return fallback, fmt.Errorf("log level %q: %w", name, err)
	}
	return lvl, nil
}
