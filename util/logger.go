// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls diagnostic verbosity.
type LogLevel int

const (
	LogNone  LogLevel = 0
	LogError LogLevel = 1
	LogWarn  LogLevel = 2
	LogInfo  LogLevel = 3
	LogDebug LogLevel = 4
)

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.  It is the adapter's diagnostic side-channel:
// precondition violations and missing transport capabilities are
// reported here rather than surfaced as errors on the byte-oriented
// API.  A nil *Logger is a valid no-op receiver.
type Logger struct {
	level      LogLevel
	output     io.Writer
	mu         sync.Mutex
	timestamps bool // if true, prepend wall-clock timestamps
}

// NewLogger returns a Logger that prints messages at or below the given
// level (0 = none, 1 = error, 2 = warn, 3 = info, 4 = debug).
func NewLogger(level LogLevel) *Logger {
	return &Logger{
		level:      level,
		output:     os.Stderr,
		timestamps: level >= LogDebug, // auto-enable timestamps in debug mode
	}
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) { l.timestamps = on }

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) { l.output = w }

// Level returns the current log level.  Nil-safe.
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LogNone
	}
	return l.level
}

// Error prints when level ≥ 1.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	if l != nil && l.level >= LogError {
		l.write("ERR", format, args...)
	}
}

// Warn prints when level ≥ 2.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l != nil && l.level >= LogWarn {
		l.write("WRN", format, args...)
	}
}

// Info prints when level ≥ 3.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l != nil && l.level >= LogInfo {
		l.write("INF", format, args...)
	}
}

// Debug prints when level ≥ 4.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l != nil && l.level >= LogDebug {
		l.write("DBG", format, args...)
	}
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.timestamps {
		ts := time.Now().Format("15:04:05.000")
		fmt.Fprintf(l.output, "%s [%s] %s\n", ts, level, msg)
	} else {
		fmt.Fprintf(l.output, "[%s] %s\n", level, msg)
	}
}
