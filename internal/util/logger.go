// internal/util/logger.go
package util

import (
	"io"
	"log/slog"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures the application logger.
type LogOptions struct {
	Level      string // debug, info, warn or error
	JSON       bool
	File       string // when set, logs are also written to this rotated file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Output     io.Writer // console output, os.Stdout when nil
}

var (
	mu         sync.Mutex
	logger     *slog.Logger
	fileWriter *lumberjack.Logger
)

// InitLogger initializes the global structured logger.
// Records go through a charmbracelet/log handler: colored text for humans or JSON for
// collectors. The logger is also installed as the slog default.
func InitLogger(opts LogOptions) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if fileWriter != nil {
		_ = fileWriter.Close()
		fileWriter = nil
	}
	if opts.File != "" {
		fileWriter = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(out, fileWriter)
	}

	handler := charmlog.NewWithOptions(out, charmlog.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           parseLevel(opts.Level),
	})
	if opts.JSON {
		handler.SetFormatter(charmlog.JSONFormatter)
	} else {
		handler.SetFormatter(charmlog.TextFormatter)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger) // Set as default logger for convenience
	return logger
}

// GetLogger returns the initialized global logger.
func GetLogger() *slog.Logger {
	mu.Lock()
	initialized := logger != nil
	mu.Unlock()
	if !initialized {
		return InitLogger(LogOptions{Level: "info"})
	}
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// CloseLogger releases the log file, if one is open.
func CloseLogger() error {
	mu.Lock()
	defer mu.Unlock()
	if fileWriter == nil {
		return nil
	}
	err := fileWriter.Close()
	fileWriter = nil
	return err
}

func parseLevel(level string) charmlog.Level {
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		return charmlog.InfoLevel
	}
	return parsed
}
