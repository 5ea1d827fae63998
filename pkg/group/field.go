package group

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies a field's value type in the schema self-description.
type Kind uint8

const (
	// KindBool is a boolean field.
	KindBool Kind = iota + 1
	// KindInt64 is a signed integer field.
	KindInt64
	// KindUint32 is an unsigned 32-bit field.
	KindUint32
	// KindFloat64 is a floating point field.
	KindFloat64
	// KindString is a text field.
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Field is one declared field of a group: a name, a kind, and typed
// accessors closing over the owning struct's member. Build fields with the
// typed constructors below.
type Field struct {
	name string
	kind Kind

	load   func() any         // current value for binary encoding
	store  func(any) error    // apply a decoded binary value
	parse  func(string) error // apply a textual value
	format func() string      // textual value for get/enumerate
	reset  func()             // restore the default
}

// Name returns the field name.
func (f *Field) Name() string { return f.name }

// Kind returns the field kind.
func (f *Field) Kind() Kind { return f.kind }

// Bool declares a boolean field backed by p with the given default.
func Bool(name string, p *bool, def bool) Field {
	return Field{
		name: name,
		kind: KindBool,
		load: func() any { return *p },
		store: func(v any) error {
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("%w: field %q expects bool, got %T", ErrPayloadMismatch, name, v)
			}
			*p = b
			return nil
		},
		parse: func(s string) error {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			*p = b
			return nil
		},
		format: func() string { return strconv.FormatBool(*p) },
		reset:  func() { *p = def },
	}
}

// Int64 declares a signed integer field backed by p with the given default.
func Int64(name string, p *int64, def int64) Field {
	return Field{
		name: name,
		kind: KindInt64,
		load: func() any { return *p },
		store: func(v any) error {
			n, ok := asInt64(v)
			if !ok {
				return fmt.Errorf("%w: field %q expects int64, got %T", ErrPayloadMismatch, name, v)
			}
			*p = n
			return nil
		},
		parse: func(s string) error {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			*p = n
			return nil
		},
		format: func() string { return strconv.FormatInt(*p, 10) },
		reset:  func() { *p = def },
	}
}

// Uint32 declares an unsigned 32-bit field backed by p with the given default.
func Uint32(name string, p *uint32, def uint32) Field {
	return Field{
		name: name,
		kind: KindUint32,
		load: func() any { return *p },
		store: func(v any) error {
			n, ok := asUint64(v)
			if !ok || n > math.MaxUint32 {
				return fmt.Errorf("%w: field %q expects uint32, got %T", ErrPayloadMismatch, name, v)
			}
			*p = uint32(n)
			return nil
		},
		parse: func(s string) error {
			n, err := strconv.ParseUint(s, 10, 32)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			*p = uint32(n)
			return nil
		},
		format: func() string { return strconv.FormatUint(uint64(*p), 10) },
		reset:  func() { *p = def },
	}
}

// Float64 declares a floating point field backed by p with the given default.
func Float64(name string, p *float64, def float64) Field {
	return Field{
		name: name,
		kind: KindFloat64,
		load: func() any { return *p },
		store: func(v any) error {
			f, ok := asFloat64(v)
			if !ok {
				return fmt.Errorf("%w: field %q expects float64, got %T", ErrPayloadMismatch, name, v)
			}
			*p = f
			return nil
		},
		parse: func(s string) error {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
			*p = f
			return nil
		},
		format: func() string { return strconv.FormatFloat(*p, 'g', -1, 64) },
		reset:  func() { *p = def },
	}
}

// String declares a text field backed by p with the given default.
func String(name string, p *string, def string) Field {
	return Field{
		name: name,
		kind: KindString,
		load: func() any { return *p },
		store: func(v any) error {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("%w: field %q expects string, got %T", ErrPayloadMismatch, name, v)
			}
			*p = s
			return nil
		},
		parse: func(s string) error {
			*p = s
			return nil
		},
		format: func() string { return *p },
		reset:  func() { *p = def },
	}
}

// asInt64 coerces the integer representations CBOR decoding may produce.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	default:
		return 0, false
	}
}
