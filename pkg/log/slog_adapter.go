package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes engine events to an slog.Logger. Useful for development
// when you want engine activity in the console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level, or Warn for error events.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.ConnectionID != "" {
		attrs = append(attrs, slog.String("conn_id", event.ConnectionID))
	}
	if event.Verb != "" {
		attrs = append(attrs, slog.String("verb", event.Verb))
	}
	if event.Group != "" {
		attrs = append(attrs, slog.String("group", event.Group))
	}
	if event.Field != "" {
		attrs = append(attrs, slog.String("field", event.Field))
	}
	if event.Message != "" {
		attrs = append(attrs, slog.String("message", event.Message))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	level := slog.LevelDebug
	if event.Category == CategoryError {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, "conf", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
