// Package logging hands out per-component logrus loggers. Logs go to a
// date-stamped file under the data directory and, only when it cannot
// disturb the terminal UI, to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Config controls every logger created after Configure is called.
type Config struct {
	// Dir receives <component>-<date>.log files. Empty disables the file sink.
	Dir     string
	Verbose bool
	JSON    bool
	// Stderr overrides the auto-detection of the stderr sink when non-nil.
	Stderr *bool
}

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	cfg       Config
	files     []*os.File
)

// Configure sets the sink configuration and drops cached loggers so they are
// rebuilt with it.
func Configure(c Config) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	cfg = c
	loggers = make(map[string]*logrus.Entry)
	closeFilesLocked()
}

// Close releases open log files.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	closeFilesLocked()
}

func closeFilesLocked() {
	for _, f := range files {
		f.Close()
	}
	files = nil
}

// NewLogger returns the cached logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, ok := loggers[component]; ok {
		return logger
	}

	logger := logrus.New()
	logger.SetLevel(levelFor(cfg))
	if cfg.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	var writers []io.Writer
	if cfg.Dir != "" {
		path := filepath.Join(cfg.Dir, fmt.Sprintf("%s-%s.log", component, time.Now().Format("2006-01-02")))
		if err := os.MkdirAll(cfg.Dir, 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				files = append(files, f)
				writers = append(writers, f)
			}
		}
	}
	if logToStderr(cfg, logger.GetLevel()) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

func levelFor(c Config) logrus.Level {
	if c.Verbose {
		return logrus.DebugLevel
	}
	levelStr := os.Getenv("TASKONAUT_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// logToStderr writes to stderr when debugging or when stderr is not a
// terminal (piped CLI output, CI).
func logToStderr(c Config, level logrus.Level) bool {
	if c.Stderr != nil {
		return *c.Stderr
	}
	if level >= logrus.DebugLevel {
		return true
	}
	fd := os.Stderr.Fd()
	return !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}
