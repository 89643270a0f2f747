package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newLogger builds the JSON logger. Records go to console and, when a log
// file is configured, to a rotating file as well. The returned closer
// releases the file.
func newLogger(cfg ApplicationConfig, console io.Writer) (*slog.Logger, io.Closer, error) {
	out := console
	var closer io.Closer = closerFunc(func() error { return nil })

	if cfg.LogFile.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile.Path,
			MaxSize:    cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxAgeDays,
			Compress:   cfg.LogFile.Compress,
		}
		out = io.MultiWriter(console, rotator)
		closer = rotator
	}

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return logger, closer, nil
}
