// Package logging builds the structured logger used by the statemigrate CLI.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level and destination of log records.
type Config struct {
	// Level is one of debug, info, warn or error. Anything else reads as info.
	Level string `mapstructure:"level"`
	// Dir, when set, sends records to a rotated file inside it instead of
	// Output.
	Dir        string `mapstructure:"dir"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// FileName is the log file created inside Config.Dir.
const FileName = "statemigrate.log"

// Defaults returns the configuration applied when nothing is set.
func Defaults() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to output, or to a rotated file when
// cfg.Dir is set. The returned closer releases the file and is never nil.
func New(cfg Config, output io.Writer) (*slog.Logger, io.Closer, error) {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if output == nil {
		output = os.Stderr
	}

	var closer io.Closer = nopCloser{}
	writer := output
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, FileName),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writer = file
		closer = file
	}

	return slog.New(slog.NewJSONHandler(writer, handlerOpts)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
