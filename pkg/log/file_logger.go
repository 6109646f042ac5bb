package log

import (
	"bufio"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a file as a CBOR stream readable by Reader
// and by trellis-decode's log command. Writes are buffered; Close flushes.
// Safe for concurrent use.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	buf     *bufio.Writer
	encoder *cbor.Encoder
	err     error
	closed  bool
}

// NewFileLogger opens path for appending, creating it when absent.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileLogger{
		file:    f,
		buf:     buf,
		encoder: NewEncoder(buf),
	}, nil
}

// Log appends one event. A write failure does not disturb the caller; the
// first failure is retained and surfaced by Close.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil && l.err == nil {
		l.err = err
	}
}

// Close flushes and closes the file. It reports the first write error of
// the logger's lifetime, and is safe to call more than once; events logged
// after Close are dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.err
	if flushErr := l.buf.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := l.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

var _ Logger = (*FileLogger)(nil)
