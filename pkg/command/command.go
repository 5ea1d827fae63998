// Package command routes raw text lines to registered command words and
// carries the per-command response channel (an async output stream plus a
// completion callback) through to the handler that serves the line.
package command

import (
	"fmt"

	"github.com/permaconf/permaconf-go/pkg/stream"
)

// Response is the per-command reply channel supplied by the transport. The
// handler writes its reply (and any streamed payload) to Stream and invokes
// Done exactly once, after the final reply write has completed.
type Response struct {
	// Stream receives all reply bytes for the command.
	Stream stream.AsyncWriter

	// Done signals command completion to the transport. A non-nil error
	// means the command was aborted by a stream failure.
	Done func(error)
}

// HandlerFunc serves one command line. args is the line with the command
// word and following whitespace removed.
type HandlerFunc func(args string, resp Response)

// Registry is the registration sink handlers attach to.
type Registry interface {
	// Register binds a command word to a handler. Registering a duplicate
	// word is a programming error and panics.
	Register(word string, fn HandlerFunc)
}

// Manager dispatches raw lines to registered command words. It enforces the
// handlers' single-flight contract across all callers: Dispatch blocks until
// no other command is in flight, and the slot is released when the command's
// Done fires. Registration is not synchronized and must finish before the
// first dispatch.
type Manager struct {
	words    []string
	handlers map[string]HandlerFunc

	// inflight is the single command slot shared by Dispatch and Exclusive.
	inflight chan struct{}
}

// NewManager creates an empty command manager.
func NewManager() *Manager {
	return &Manager{
		handlers: make(map[string]HandlerFunc),
		inflight: make(chan struct{}, 1),
	}
}

// Register binds a command word to a handler.
func (m *Manager) Register(word string, fn HandlerFunc) {
	if _, dup := m.handlers[word]; dup {
		panic(fmt.Sprintf("command: duplicate command word %q", word))
	}
	m.words = append(m.words, word)
	m.handlers[word] = fn
}

// Words returns the registered command words in registration order.
func (m *Manager) Words() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// Dispatch routes one line to its handler. Unknown words reply
// "ERR unknown command\r\n" through the response stream. Dispatch blocks
// until the previous command's Done has fired, so concurrent callers are
// serialized and handlers never see two commands in flight.
func (m *Manager) Dispatch(line string, resp Response) {
	m.inflight <- struct{}{}
	done := resp.Done
	resp.Done = func(err error) {
		<-m.inflight
		done(err)
	}

	tokenizer := NewTokenizer(line, " ")
	word := tokenizer.Next()

	fn, ok := m.handlers[word]
	if !ok {
		resp.Stream.AsyncWrite([]byte("ERR unknown command\r\n"), resp.Done)
		return
	}
	fn(tokenizer.Remaining(), resp)
}

// Exclusive runs fn while the command slot is held, so background work that
// touches handler state (periodic persistence, shutdown flushes) cannot
// overlap an in-flight command.
func (m *Manager) Exclusive(fn func()) {
	m.inflight <- struct{}{}
	defer func() { <-m.inflight }()
	fn()
}

// Compile-time interface satisfaction check.
var _ Registry = (*Manager)(nil)
