package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aevon-lab/salespulse/internal/core/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the process logger from cfg and installs it as the slog
// default. When cfg.File is set, output goes to stdout and to a
// size-rotated file. The returned closer releases the file.
func Setup(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	logger, closer, err := New(cfg, os.Stdout)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return logger, closer, nil
}

// New builds a logger writing to out and, if configured, the rotated file.
func New(cfg config.LoggingConfig, out io.Writer) (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var closer io.Closer = nopCloser{}
	w := out
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(out, fileWriter)
		closer = fileWriter
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	return slog.New(handler), closer, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if raw == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(raw))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", raw, err)
	}
	return level, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
