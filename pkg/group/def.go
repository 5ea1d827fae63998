package group

import (
	"fmt"
	"io"

	"github.com/permaconf/permaconf-go/pkg/stream"
)

// Def is the stock Handler implementation: an ordered, explicitly declared
// field list. The binary payload is a deterministic-CBOR array of the field
// values in declaration order; the schema is a CBOR self-description of the
// group kind and field list.
type Def struct {
	kind   string
	fields []Field
	index  map[string]int
}

// fieldSchema is one field's entry in the schema self-description.
type fieldSchema struct {
	Name string `cbor:"1,keyasint"`
	Type uint8  `cbor:"2,keyasint"`
}

// defSchema is the schema self-description the CRC is computed over.
type defSchema struct {
	Kind   string        `cbor:"1,keyasint"`
	Fields []fieldSchema `cbor:"2,keyasint"`
}

// NewDef creates a handler for the given group kind and field list.
// Duplicate field names are a programming error and panic.
func NewDef(kind string, fields ...Field) *Def {
	d := &Def{
		kind:   kind,
		fields: fields,
		index:  make(map[string]int, len(fields)),
	}
	for i := range fields {
		name := fields[i].name
		if _, dup := d.index[name]; dup {
			panic(fmt.Sprintf("group: duplicate field %q in %q", name, kind))
		}
		d.index[name] = i
	}
	return d
}

// Kind returns the group kind used in the schema self-description.
func (d *Def) Kind() string {
	return d.kind
}

// FieldNames returns the field names in declaration order.
func (d *Def) FieldNames() []string {
	names := make([]string, len(d.fields))
	for i := range d.fields {
		names[i] = d.fields[i].name
	}
	return names
}

// Enumerate streams every field as "<name>.<field> <value>\r\n" lines in
// declaration order, one outstanding write at a time.
func (d *Def) Enumerate(buf []byte, name string, w stream.AsyncWriter, done func(error)) {
	d.enumerateFrom(0, buf, name, w, done)
}

func (d *Def) enumerateFrom(i int, buf []byte, name string, w stream.AsyncWriter, done func(error)) {
	if i == len(d.fields) {
		done(nil)
		return
	}

	f := &d.fields[i]
	line := append(buf[:0], name...)
	line = append(line, '.')
	line = append(line, f.name...)
	line = append(line, ' ')
	line = append(line, f.format()...)
	line = append(line, '\r', '\n')

	w.AsyncWrite(line, func(err error) {
		if err != nil {
			done(err)
			return
		}
		d.enumerateFrom(i+1, buf, name, w, done)
	})
}

// Read streams the named field's textual value.
func (d *Def) Read(field string, buf []byte, w stream.AsyncWriter, done func(error)) error {
	i, ok := d.index[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	out := append(buf[:0], d.fields[i].format()...)
	w.AsyncWrite(out, done)
	return nil
}

// Set parses value and assigns it to the named field.
func (d *Def) Set(field, value string) error {
	i, ok := d.index[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return d.fields[i].parse(value)
}

// WriteBinary encodes the field values as a CBOR array in declaration order.
func (d *Def) WriteBinary(w io.Writer) error {
	values := make([]any, len(d.fields))
	for i := range d.fields {
		values[i] = d.fields[i].load()
	}
	if err := encMode.NewEncoder(w).Encode(values); err != nil {
		return fmt.Errorf("failed to encode %q payload: %w", d.kind, err)
	}
	return nil
}

// ReadBinary decodes a payload produced by WriteBinary and applies it.
func (d *Def) ReadBinary(r io.Reader) error {
	var values []any
	if err := decMode.NewDecoder(r).Decode(&values); err != nil {
		return fmt.Errorf("failed to decode %q payload: %w", d.kind, err)
	}
	if len(values) != len(d.fields) {
		return fmt.Errorf("%w: %q has %d fields, payload has %d",
			ErrPayloadMismatch, d.kind, len(d.fields), len(values))
	}
	for i, v := range values {
		if err := d.fields[i].store(v); err != nil {
			return err
		}
	}
	return nil
}

// WriteSchema writes the CBOR self-description the schema CRC covers.
func (d *Def) WriteSchema(w io.Writer) error {
	schema := defSchema{
		Kind:   d.kind,
		Fields: make([]fieldSchema, len(d.fields)),
	}
	for i := range d.fields {
		schema.Fields[i] = fieldSchema{
			Name: d.fields[i].name,
			Type: uint8(d.fields[i].kind),
		}
	}
	if err := encMode.NewEncoder(w).Encode(schema); err != nil {
		return fmt.Errorf("failed to encode %q schema: %w", d.kind, err)
	}
	return nil
}

// SetDefault restores every field to its default value.
func (d *Def) SetDefault() {
	for i := range d.fields {
		d.fields[i].reset()
	}
}

// Compile-time interface satisfaction check.
var _ Handler = (*Def)(nil)
