// Package stream provides the asynchronous write primitives used by the
// configuration engine: a single-outstanding-write async writer, adapters
// for synchronous writers, a size-only counting sink for dry-run encoding
// passes, and a bounded scratch buffer.
package stream

import (
	"errors"
	"io"
)

// Stream errors.
var (
	// ErrWriterClosed indicates a write against a closed writer.
	ErrWriterClosed = errors.New("writer is closed")
)

// AsyncWriter writes one chunk asynchronously. done is invoked exactly once,
// after the chunk has been fully accepted or the write has failed. At most
// one write may be outstanding per writer; callers must wait for done before
// issuing the next write. Implementations may invoke done synchronously.
type AsyncWriter interface {
	AsyncWrite(data []byte, done func(error))
}

// SyncWriter adapts a synchronous io.Writer to AsyncWriter. The done
// callback fires synchronously once the underlying write returns.
type SyncWriter struct {
	w io.Writer
}

// NewSyncWriter creates an AsyncWriter backed by the given io.Writer.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

// AsyncWrite writes data to the underlying writer and completes synchronously.
func (s *SyncWriter) AsyncWrite(data []byte, done func(error)) {
	_, err := s.w.Write(data)
	done(err)
}

// SizeCounter is an io.Writer that retains no bytes, only a running count.
// It is used for the dry-run encoding pass that determines a record's data
// length before anything is written to a sequential medium.
type SizeCounter struct {
	n int
}

// Write discards data and advances the count.
func (s *SizeCounter) Write(p []byte) (int, error) {
	s.n += len(p)
	return len(p), nil
}

// Size returns the number of bytes written so far.
func (s *SizeCounter) Size() int {
	return s.n
}

// Reset clears the count.
func (s *SizeCounter) Reset() {
	s.n = 0
}

// BoundedBuffer is a fixed-capacity write buffer. Writes past capacity are
// silently truncated; the used prefix is available via Bytes. It never
// allocates beyond its initial backing array.
type BoundedBuffer struct {
	buf []byte
	n   int
}

// NewBoundedBuffer creates a buffer with the given capacity.
func NewBoundedBuffer(capacity int) *BoundedBuffer {
	return &BoundedBuffer{buf: make([]byte, capacity)}
}

// Write copies p into the remaining space, truncating if necessary.
func (b *BoundedBuffer) Write(p []byte) (int, error) {
	copied := copy(b.buf[b.n:], p)
	b.n += copied
	// Report full success so encoders keep going; the truncation bound is
	// part of the buffer's contract, not a stream failure.
	return len(p), nil
}

// Bytes returns the written prefix.
func (b *BoundedBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Len returns the number of bytes written (capped at capacity).
func (b *BoundedBuffer) Len() int {
	return b.n
}

// Reset discards the contents.
func (b *BoundedBuffer) Reset() {
	b.n = 0
}

// Compile-time interface satisfaction checks.
var (
	_ AsyncWriter = (*SyncWriter)(nil)
	_ io.Writer   = (*SizeCounter)(nil)
	_ io.Writer   = (*BoundedBuffer)(nil)
)
