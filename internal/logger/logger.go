// Package logger sets up zerolog with optional file rotation.
//
// The server logs to stdout plus a rotating file. The TUI client must keep
// stdout clean, so it logs only to a file under the user's home directory.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config logging options
type Config struct {
	Level      string // debug, info, warn, error
	Console    bool   // also write human-readable output to stdout
	FilePath   string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ServerDefaults returns the server logging config.
func ServerDefaults() Config {
	return Config{
		Level:      "info",
		Console:    true,
		FilePath:   "server.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// ClientDefaults returns the client logging config. Output goes to
// ~/.ultimate-tictactoe/client.log so the terminal UI stays clean.
func ClientDefaults() Config {
	path := "client.log"
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".ultimate-tictactoe")
		if err := os.MkdirAll(dir, 0o755); err == nil {
			path = filepath.Join(dir, "client.log")
		}
	}
	return Config{
		Level:      "info",
		Console:    false,
		FilePath:   path,
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

// Init configures the global zerolog logger.
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	}
	if cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	log.Logger = zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
}

// New returns a component-scoped logger.
func New(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
