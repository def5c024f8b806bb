// Package logger is the assistant's leveled logger. Off prints nothing,
// Normal prints info, warnings and errors, Verbose adds debug lines.
// A Logger is safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level controls how much the logger prints.
type Level int

const (
	// LevelOff disables all log output.
	LevelOff Level = iota
	// LevelNormal enables info, warn, and error output.
	LevelNormal
	// LevelVerbose enables all output including debug.
	LevelVerbose
)

// String returns the config-file spelling of the level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelVerbose:
		return "debug"
	default:
		return "info"
	}
}

// ParseLevel maps a config value ("off", "info", "debug", ...) to a Level.
// Unknown values fall back to LevelNormal.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none", "quiet", "silent":
		return LevelOff
	case "debug", "verbose", "trace":
		return LevelVerbose
	default:
		return LevelNormal
	}
}

// Line tags.
const (
	tagDebug = "[DBG] "
	tagInfo  = "[INF] "
	tagWarn  = "[WRN] "
	tagError = "[ERR] "
)

// Logger writes tagged, timestamped lines to one writer.
type Logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
	std   *log.Logger
}

// New creates a logger at level writing to out (os.Stderr when nil).
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{
		level: level,
		out:   out,
		std:   log.New(out, "", log.Ltime),
	}
}

// GetLevel returns the current log level.
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Std points the standard library's default logger at the same output so
// third-party packages that use package log (the whisper transcriber, for
// one) don't write over the terminal UI.
func (l *Logger) Std() {
	log.SetOutput(l.out)
	log.SetFlags(log.Ltime)
}

// Debug logs at debug level (verbose mode only).
func (l *Logger) Debug(format string, args ...any) {
	l.logf(LevelVerbose, tagDebug, format, args)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	l.logf(LevelNormal, tagInfo, format, args)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.logf(LevelNormal, tagWarn, format, args)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.logf(LevelNormal, tagError, format, args)
}

func (l *Logger) logf(min Level, tag, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level < min {
		return
	}
	l.std.SetPrefix(tag)
	l.std.Output(3, fmt.Sprintf(format, args...))
}
