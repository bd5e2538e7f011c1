// Package logger owns the process-wide zap logger used by the CLI and handed
// to the download engine.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log discards everything until Init succeeds.
var Log = zap.NewNop().Sugar()

var base *zap.Logger

// Init replaces Log. format is "json" or anything else for console lines;
// output is a zap sink such as "stderr" or a file path.
func Init(level, format, output string) error {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	if output == "" {
		output = "stderr"
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	encoding := "json"
	if format != "json" {
		encoding = "console"
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := zap.Config{
		Level:            lvl,
		Encoding:         encoding,
		EncoderConfig:    enc,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	base = l
	Log = l.Sugar()
	return nil
}

// Sync flushes buffered entries. Safe to call before Init.
func Sync() error {
	if base == nil {
		return nil
	}
	return base.Sync()
}
