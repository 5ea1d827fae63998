// Package log provides structured event logging for the configuration
// engine: command dispatch, flash passes, and the silent skips the load scan
// performs (unknown groups, schema drift). Applications implement Logger or
// use one of the provided sinks.
package log

// Logger is the interface applications implement to receive engine events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records an engine event. Implementations must be safe for
	// concurrent use and should return quickly.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
