// Package trace is a thin wrapper around the standard library's log.Logger,
// gated by the --verbose CLI option: a single cli.Option to gate diagnostic
// output on, rather than an ad hoc environment variable per concern.
package trace

import (
	"io"
	"log"
	"os"
)

// Logger emits diagnostic lines when enabled, and silently discards them
// otherwise; either way callers pay only the cost of a single method call.
type Logger struct {
	enabled bool
	out     *log.Logger
}

// New builds a Logger writing to os.Stderr when enabled is true, and
// discarding everything otherwise.
func New(enabled bool) *Logger {
	dest := io.Writer(io.Discard)
	if enabled {
		dest = os.Stderr
	}
	return &Logger{enabled: enabled, out: log.New(dest, "rvcc: ", 0)}
}

// Enabled reports whether this Logger actually writes anything.
func (l *Logger) Enabled() bool { return l.enabled }

// Printf logs a formatted diagnostic line.
func (l *Logger) Printf(format string, args ...any) { l.out.Printf(format, args...) }
