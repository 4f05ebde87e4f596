// Package logger provides the leveled logger used across the relay.
// Levels: off (silent), normal (info/warn/error) and verbose (adds debug).
// Safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level controls verbosity.
type Level int

const (
	// LevelOff disables all output.
	LevelOff Level = iota
	// LevelNormal enables info, warn and error.
	LevelNormal
	// LevelVerbose additionally enables debug.
	LevelVerbose
)

// Logger is a leveled printf-style logger.
type Logger struct {
	mu    sync.RWMutex
	level Level
	out   *log.Logger
}

// New creates a logger writing to out at the given level. A nil out falls
// back to stderr.
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level: level,
		out:   log.New(out, "", log.Ldate|log.Ltime),
	}
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *Logger) print(min Level, tag, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level < min {
		return
	}
	l.out.Output(3, tag+" "+fmt.Sprintf(format, args...))
}

// Debug logs at debug level; only visible in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	l.print(LevelVerbose, "DBG", format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	l.print(LevelNormal, "INF", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.print(LevelNormal, "WRN", format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.print(LevelNormal, "ERR", format, args...)
}
