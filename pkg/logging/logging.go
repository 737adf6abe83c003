// Package logging mirrors session traffic to an append-only file.
//
// The logger's lifecycle is independent of the serial connection: logging
// can be active while the port is closed and vice versa. Every error is
// recovered locally: a failing log write deactivates logging and is
// reported through the status callback, but never fails the send or
// receive operation that triggered it.
package logging

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

var (
	// ErrAlreadyLogging is returned by Start when a log file is already
	// open. The active file is left untouched; starting is never a
	// truncate-and-reopen.
	ErrAlreadyLogging = errors.New("log file already open")

	// ErrNotLogging is returned by Stop when no log file is open.
	ErrNotLogging = errors.New("log file already closed")

	// ErrWriteFailed wraps a failed log write. Logging has been
	// deactivated; the user must start it again explicitly.
	ErrWriteFailed = errors.New("could not write to log file")
)

// Logger appends session traffic to a file. The zero value is unusable;
// construct with New.
type Logger struct {
	// onError observes the forced transition to inactive after a write
	// failure. Write itself never propagates the error to its caller.
	onError func(error)

	mu   sync.Mutex
	file *os.File
	path string
}

// New creates an inactive Logger. onError, which may be nil, is called
// when a write failure deactivates logging.
func New(onError func(error)) *Logger {
	return &Logger{onError: onError}
}

// Start opens path for appending and activates logging. An existing file
// is never truncated. Returns ErrAlreadyLogging when a log is already
// active; on an open failure, logging stays inactive.
func (l *Logger) Start(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return ErrAlreadyLogging
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	l.file = f
	l.path = path
	return nil
}

// Stop closes the log file best-effort and deactivates logging regardless
// of the close outcome. Returns ErrNotLogging when already inactive.
func (l *Logger) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return ErrNotLogging
	}

	err := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

// Write appends line verbatim to the log file. It is a no-op when
// logging is inactive. On a write failure the file is closed best-effort,
// logging is deactivated and the error is reported through the onError
// callback; the caller's operation is never failed.
func (l *Logger) Write(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}

	if _, err := l.file.WriteString(line); err != nil {
		l.file.Close()
		l.file = nil
		if l.onError != nil {
			l.onError(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// Active reports whether a log file is currently open.
func (l *Logger) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file != nil
}

// Path returns the path of the most recently opened log file.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}
