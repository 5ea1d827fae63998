package log

import "time"

// Event represents one engine log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"2,keyasint"`

	// ConnectionID identifies the transport connection, when there is one.
	ConnectionID string `cbor:"3,keyasint,omitempty"`

	// Verb is the protocol verb being served (get, set, load, ...).
	Verb string `cbor:"4,keyasint,omitempty"`

	// Group is the configuration group involved, if any.
	Group string `cbor:"5,keyasint,omitempty"`

	// Field is the field involved, if any.
	Field string `cbor:"6,keyasint,omitempty"`

	// Message is free-form detail.
	Message string `cbor:"7,keyasint,omitempty"`

	// Error is the error text for failure events.
	Error string `cbor:"8,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryCommand indicates a protocol command dispatch.
	CategoryCommand Category = 0
	// CategoryFlash indicates a flash load or write pass.
	CategoryFlash Category = 1
	// CategorySkip indicates a record silently skipped during a load scan.
	CategorySkip Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryCommand:
		return "COMMAND"
	case CategoryFlash:
		return "FLASH"
	case CategorySkip:
		return "SKIP"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
