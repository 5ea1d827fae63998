package stream

import (
	"io"
	"sync"
)

// Pipe creates an in-process connection between an AsyncWriter and an
// io.Reader. Writes complete only after the reader side has accepted the
// chunk, so the pipe models a backpressured transport: a slow reader delays
// the writer's completion callbacks.
func Pipe() (*PipeReader, *PipeWriter) {
	shared := &pipe{
		ch:     make(chan []byte),
		closed: make(chan struct{}),
	}
	return &PipeReader{p: shared}, &PipeWriter{p: shared}
}

type pipe struct {
	ch chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func (p *pipe) close() {
	p.closeOnce.Do(func() { close(p.closed) })
}

// PipeWriter is the write end of an in-process pipe.
type PipeWriter struct {
	p *pipe
}

// AsyncWrite hands a copy of data to the reader side. done fires once the
// reader has taken the chunk, or with ErrWriterClosed if either end closed.
func (w *PipeWriter) AsyncWrite(data []byte, done func(error)) {
	chunk := make([]byte, len(data))
	copy(chunk, data)
	go func() {
		select {
		case w.p.ch <- chunk:
			done(nil)
		case <-w.p.closed:
			done(ErrWriterClosed)
		}
	}()
}

// Close closes the pipe. Pending and future writes fail with ErrWriterClosed.
func (w *PipeWriter) Close() error {
	w.p.close()
	return nil
}

// PipeReader is the read end of an in-process pipe.
type PipeReader struct {
	p   *pipe
	buf []byte
}

// Read returns bytes written to the pipe, blocking until a chunk is
// available. Returns io.EOF after the pipe is closed and drained.
func (r *PipeReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		select {
		case chunk := <-r.p.ch:
			r.buf = chunk
		case <-r.p.closed:
			// Drain anything raced in before close.
			select {
			case chunk := <-r.p.ch:
				r.buf = chunk
			default:
				return 0, io.EOF
			}
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Close closes the pipe from the read side.
func (r *PipeReader) Close() error {
	r.p.close()
	return nil
}

// Compile-time interface satisfaction checks.
var (
	_ AsyncWriter = (*PipeWriter)(nil)
	_ io.Reader   = (*PipeReader)(nil)
)
