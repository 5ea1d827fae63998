package group

import (
	"errors"
	"io"

	"github.com/permaconf/permaconf-go/pkg/stream"
)

// Handler errors.
var (
	// ErrUnknownField indicates a field name the group does not declare.
	ErrUnknownField = errors.New("unknown field")

	// ErrPayloadMismatch indicates a binary payload whose shape does not
	// match the group's field list.
	ErrPayloadMismatch = errors.New("payload does not match field list")
)

// Handler is the capability set a configuration group supplies to the
// persistence engine. Implementations own their field iteration order and
// their binary payload format; the engine treats both as opaque.
//
// Enumerate and Read stream through an AsyncWriter with at most one write
// outstanding; buf is a shared scratch buffer that is reused between calls
// and must not be retained.
type Handler interface {
	// Enumerate streams every field as "<name>.<field> <value>\r\n" lines
	// in declaration order, then invokes done exactly once.
	Enumerate(buf []byte, name string, w stream.AsyncWriter, done func(error))

	// Read streams the named field's textual value (no trailing newline).
	// A non-nil return means nothing was written and done will not fire.
	Read(field string, buf []byte, w stream.AsyncWriter, done func(error)) error

	// Set parses value and assigns it to the named field.
	Set(field, value string) error

	// WriteBinary encodes the group's current values. The same bytes must
	// be produced when called twice without intervening mutation, since the
	// engine performs a size-counting dry run before the real write.
	WriteBinary(w io.Writer) error

	// ReadBinary decodes a payload previously produced by WriteBinary and
	// applies it to the group's values.
	ReadBinary(r io.Reader) error

	// WriteSchema writes the group's self-description. The engine computes
	// the schema CRC over these bytes; they must be identical between the
	// load and write paths of a build.
	WriteSchema(w io.Writer) error

	// SetDefault restores every field to its default value.
	SetDefault()
}
