// Package logging builds the zap logger. The TUI owns the terminal, so logs
// go to a size-rotated file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Path       string // log file; empty disables logging
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New returns a JSON logger writing to opts.Path through lumberjack, and a
// function that flushes and closes it.
func New(opts Options) (*zap.Logger, func(), error) {
	if opts.Path == "" {
		return zap.NewNop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotator), level)

	logger := zap.New(core, zap.AddCaller()).With(zap.Int("pid", os.Getpid()))
	closer := func() {
		_ = logger.Sync()
		_ = rotator.Close()
	}
	return logger, closer, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
