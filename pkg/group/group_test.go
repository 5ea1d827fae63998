package group

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permaconf/permaconf-go/pkg/stream"
)

// testGroup is a concrete config struct declaring its own field list.
type testGroup struct {
	Enabled bool
	Level   int64
	Port    uint32
	Scale   float64
	Label   string

	def *Def
}

func newTestGroup() *testGroup {
	g := &testGroup{}
	g.def = NewDef("test",
		Bool("enabled", &g.Enabled, true),
		Int64("level", &g.Level, -3),
		Uint32("port", &g.Port, 8080),
		Float64("scale", &g.Scale, 1.5),
		String("label", &g.Label, "default"),
	)
	g.def.SetDefault()
	return g
}

func TestDefDefaults(t *testing.T) {
	g := newTestGroup()

	assert.True(t, g.Enabled)
	assert.EqualValues(t, -3, g.Level)
	assert.EqualValues(t, 8080, g.Port)
	assert.Equal(t, 1.5, g.Scale)
	assert.Equal(t, "default", g.Label)
}

func TestDefSetAndRead(t *testing.T) {
	g := newTestGroup()

	require.NoError(t, g.def.Set("port", "9000"))
	assert.EqualValues(t, 9000, g.Port)

	var out bytes.Buffer
	buf := make([]byte, 256)
	err := g.def.Read("port", buf, stream.NewSyncWriter(&out), func(err error) {
		require.NoError(t, err)
	})
	require.NoError(t, err)
	assert.Equal(t, "9000", out.String())
}

func TestDefSetParseErrors(t *testing.T) {
	g := newTestGroup()

	assert.Error(t, g.def.Set("port", "not-a-number"))
	assert.Error(t, g.def.Set("enabled", "maybe"))
	assert.ErrorIs(t, g.def.Set("bogus", "1"), ErrUnknownField)
}

func TestDefReadUnknownField(t *testing.T) {
	g := newTestGroup()

	err := g.def.Read("bogus", nil, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDefEnumerateOrderAndFormat(t *testing.T) {
	g := newTestGroup()

	var out bytes.Buffer
	done := false
	g.def.Enumerate(make([]byte, 256), "test", stream.NewSyncWriter(&out), func(err error) {
		require.NoError(t, err)
		done = true
	})

	require.True(t, done)
	assert.Equal(t,
		"test.enabled true\r\n"+
			"test.level -3\r\n"+
			"test.port 8080\r\n"+
			"test.scale 1.5\r\n"+
			"test.label default\r\n",
		out.String())
}

// abortWriter fails every write after the first n.
type abortWriter struct {
	out   bytes.Buffer
	n     int
	count int
}

func (a *abortWriter) AsyncWrite(data []byte, done func(error)) {
	a.count++
	if a.count > a.n {
		done(errors.New("transport failed"))
		return
	}
	a.out.Write(data)
	done(nil)
}

func TestDefEnumerateAbortsOnWriteError(t *testing.T) {
	g := newTestGroup()

	w := &abortWriter{n: 2}
	var got error
	g.def.Enumerate(make([]byte, 256), "test", w, func(err error) { got = err })

	assert.EqualError(t, got, "transport failed")
	assert.Equal(t, "test.enabled true\r\ntest.level -3\r\n", w.out.String())
	assert.Equal(t, 3, w.count, "enumeration stops at the failed write")
}

func TestDefBinaryRoundTrip(t *testing.T) {
	src := newTestGroup()
	require.NoError(t, src.def.Set("enabled", "false"))
	require.NoError(t, src.def.Set("level", "42"))
	require.NoError(t, src.def.Set("scale", "-0.25"))
	require.NoError(t, src.def.Set("label", "unit seven"))

	var payload bytes.Buffer
	require.NoError(t, src.def.WriteBinary(&payload))

	dst := newTestGroup()
	require.NoError(t, dst.def.ReadBinary(bytes.NewReader(payload.Bytes())))

	assert.Equal(t, src.Enabled, dst.Enabled)
	assert.Equal(t, src.Level, dst.Level)
	assert.Equal(t, src.Port, dst.Port)
	assert.Equal(t, src.Scale, dst.Scale)
	assert.Equal(t, src.Label, dst.Label)
}

func TestDefWriteBinaryDeterministic(t *testing.T) {
	g := newTestGroup()

	var a, b bytes.Buffer
	require.NoError(t, g.def.WriteBinary(&a))
	require.NoError(t, g.def.WriteBinary(&b))
	assert.Equal(t, a.Bytes(), b.Bytes(), "dry-run and real write must produce identical bytes")
}

func TestDefReadBinaryFieldCountMismatch(t *testing.T) {
	g := newTestGroup()

	short := NewDef("test", Bool("enabled", new(bool), false))
	var payload bytes.Buffer
	require.NoError(t, short.WriteBinary(&payload))

	err := g.def.ReadBinary(bytes.NewReader(payload.Bytes()))
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestDefSchemaStability(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, newTestGroup().def.WriteSchema(&a))
	require.NoError(t, newTestGroup().def.WriteSchema(&b))
	assert.Equal(t, a.Bytes(), b.Bytes())

	// Structural change alters the schema bytes.
	var other bytes.Buffer
	changed := NewDef("test",
		Bool("enabled", new(bool), true),
		Int64("level", new(int64), -3),
	)
	require.NoError(t, changed.WriteSchema(&other))
	assert.NotEqual(t, a.Bytes(), other.Bytes())
}

func TestNewDefDuplicateFieldPanics(t *testing.T) {
	var x, y bool
	require.Panics(t, func() {
		NewDef("test", Bool("dup", &x, false), Bool("dup", &y, false))
	})
}
