package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleLogger writes log messages to stderr, or to the writer it was given.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer
	prefix  string
	mu      *sync.Mutex
}

// NewConsoleLogger creates a new ConsoleLogger writing to stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewWriterLogger(os.Stderr, verbose)
}

// NewWriterLogger creates a ConsoleLogger writing to w.
func NewWriterLogger(w io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		verbose: verbose,
		out:     w,
		mu:      &sync.Mutex{},
	}
}

// WithRunID returns a logger that tags verbose and error lines with the run ID.
// The returned logger shares the writer and lock of its parent.
func (l *ConsoleLogger) WithRunID(runID string) *ConsoleLogger {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return &ConsoleLogger{
		verbose: l.verbose,
		out:     l.out,
		prefix:  "[" + short + "] ",
		mu:      l.mu,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] "+l.prefix, format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] "+l.prefix, format, args)
}

func (l *ConsoleLogger) write(tag, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(args) > 0 {
		fmt.Fprintf(l.out, tag+format+"\n", args...)
	} else {
		fmt.Fprint(l.out, tag+format+"\n")
	}
}
