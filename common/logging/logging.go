// Package logging provides the structured logger used throughout the
// coordinator. It is a thin wrapper around hclog that gives every component
// its own named sub-logger, mirroring the way the teacher codebase hangs a
// "component" name off a shared root logger.
package logging

import (
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Logger is the logger type used by every component in this repository: a
// thin struct wrapper around an hclog.Logger.
type Logger struct {
	impl hclog.Logger
}

var (
	rootOnce sync.Once
	root     hclog.Logger
)

func rootLogger() hclog.Logger {
	rootOnce.Do(func() {
		root = hclog.New(&hclog.LoggerOptions{
			Name:   "coordinator",
			Level:  hclog.Info,
			Output: os.Stderr,
		})
	})
	return root
}

// SetLevel adjusts the verbosity of the root logger. Intended to be called
// once at process startup from the CLI layer.
func SetLevel(level string) {
	rootLogger().SetLevel(hclog.LevelFromString(level))
}

// GetLogger returns a named sub-logger for the given component, e.g.
// GetLogger("coordinator/round") or GetLogger("storage/badger").
func GetLogger(name string) *Logger {
	return &Logger{impl: rootLogger().Named(name)}
}

// With returns a logger with the given key/value pairs attached to every
// subsequent message, the same pattern the teacher uses for per-runtime
// loggers (commonNode.Runtime.ID()).
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{impl: l.impl.With(args...)}
}

// Debug logs at debug level with structured key/value pairs.
func (l *Logger) Debug(msg string, args ...interface{}) { l.impl.Debug(msg, args...) }

// Info logs at info level with structured key/value pairs.
func (l *Logger) Info(msg string, args ...interface{}) { l.impl.Info(msg, args...) }

// Warn logs at warn level with structured key/value pairs.
func (l *Logger) Warn(msg string, args ...interface{}) { l.impl.Warn(msg, args...) }

// Error logs at error level with structured key/value pairs.
func (l *Logger) Error(msg string, args ...interface{}) { l.impl.Error(msg, args...) }
