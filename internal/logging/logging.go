// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
)

// Init replaces log.Logger with one writing to the sinks described by cfg.
func Init(cfg config.LogConfig) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	// stdout is reserved for command output
	writers := []io.Writer{consoleWriter(cfg.Format, os.Stderr)}
	if cfg.File != "" {
		writers = append(writers, FileWriter(cfg))
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().Timestamp().Logger().
		Level(level)
	return nil
}

// ParseLevel maps a config level name to a zerolog level; empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, fmt.Errorf("unknown log level %q", name)
}

func consoleWriter(format string, out io.Writer) io.Writer {
	if format == "json" {
		return out
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
}

// FileWriter returns a size-rotated file sink
func FileWriter(cfg config.LogConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
}
