package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a file as a CBOR sequence. Events dropped by
// a failed write are counted, not retried; the logger never blocks the
// engine on disk errors.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File
	enc     *cbor.Encoder
	dropped int
	closed  bool
}

// NewFileLogger opens (or creates) the event file for appending.
func NewFileLogger(path string) (*FileLogger, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	return &FileLogger{
		file: file,
		enc:  cbor.NewEncoder(file),
	}, nil
}

// Log appends the event to the file.
func (f *FileLogger) Log(event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		f.dropped++
		return
	}
	if err := f.enc.Encode(event); err != nil {
		f.dropped++
	}
}

// Dropped returns the number of events lost to write failures.
func (f *FileLogger) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Close flushes and closes the event file.
func (f *FileLogger) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}

// ReadEvents decodes a CBOR event sequence, e.g. a file written by
// FileLogger.
func ReadEvents(r io.Reader) ([]Event, error) {
	dec := cbor.NewDecoder(r)

	var events []Event
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, ev)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
