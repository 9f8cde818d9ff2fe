// Package logger configures the process-wide zerolog output: console,
// rotated file, or both, with optional redaction of credentials that
// show up in tool arguments.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	File       string // log file path, empty disables file output
	Console    bool   // enable console output
	Pretty     bool   // human-readable console format
	Redaction  bool   // mask credentials in output
	MaxSizeMB  int    // rotate the file once it grows past this
	MaxAgeDays int    // prune rotated files older than this
	Compress   bool   // gzip rotated files
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Console:    true,
		Pretty:     true,
		Redaction:  true,
		MaxSizeMB:  100,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Setup builds the root logger and installs it as the zerolog global.
// The returned close function flushes and closes the file writer, if any.
func Setup(cfg Config) (zerolog.Logger, func() error, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	closeFn := func() error { return nil }

	if cfg.Console {
		var console io.Writer = os.Stdout
		if cfg.Pretty {
			console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		}
		writers = append(writers, console)
	}

	if cfg.File != "" {
		rw, err := NewRotatingWriter(cfg.File, cfg.MaxSizeMB, cfg.MaxAgeDays, cfg.Compress)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, rw)
		closeFn = rw.Close
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = os.Stdout
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	if cfg.Redaction {
		out = NewRedactor().Wrap(out)
	}

	root := zerolog.New(out).Level(level).With().Timestamp().Logger()
	log.Logger = root

	return root, closeFn, nil
}
