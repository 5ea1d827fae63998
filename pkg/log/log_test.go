package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger records events for assertions.
type captureLogger struct {
	events []Event
}

func (c *captureLogger) Log(event Event) {
	c.events = append(c.events, event)
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "COMMAND", CategoryCommand.String())
	assert.Equal(t, "FLASH", CategoryFlash.String())
	assert.Equal(t, "SKIP", CategorySkip.String())
	assert.Equal(t, "ERROR", CategoryError.String())
	assert.Equal(t, "UNKNOWN", Category(99).String())
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{Category: CategorySkip, Group: "motor"})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, "motor", a.events[0].Group)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewSlogAdapter(logger).Log(Event{
		Category: CategoryCommand,
		Verb:     "get",
		Group:    "network",
		Field:    "hostname",
	})

	out := buf.String()
	assert.Contains(t, out, "category=COMMAND")
	assert.Contains(t, out, "verb=get")
	assert.Contains(t, out, "group=network")
	assert.Contains(t, out, "field=hostname")
}

func TestFileLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")

	fl, err := NewFileLogger(path)
	require.NoError(t, err)

	fl.Log(Event{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		Category:  CategorySkip,
		Group:     "ghost",
		Message:   "unknown group",
	})
	fl.Log(Event{Category: CategoryFlash, Verb: "write"})
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	events, err := ReadEvents(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ghost", events[0].Group)
	assert.Equal(t, CategorySkip, events[0].Category)
	assert.Equal(t, "write", events[1].Verb)

	assert.Equal(t, 0, fl.Dropped())
}

func TestFileLoggerDropsAfterClose(t *testing.T) {
	fl, err := NewFileLogger(filepath.Join(t.TempDir(), "events.cbor"))
	require.NoError(t, err)
	require.NoError(t, fl.Close())

	fl.Log(Event{Category: CategoryError})
	assert.Equal(t, 1, fl.Dropped())
}
