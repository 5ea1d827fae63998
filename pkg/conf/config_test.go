package conf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permaconf/permaconf-go/pkg/command"
	"github.com/permaconf/permaconf-go/pkg/flash"
	"github.com/permaconf/permaconf-go/pkg/group"
	"github.com/permaconf/permaconf-go/pkg/stream"
)

// netGroup and motGroup are the concrete config structs the tests register.

type netGroup struct {
	Hostname string
	Port     uint32
	def      *group.Def
}

func newNetGroup() *netGroup {
	g := &netGroup{}
	g.def = group.NewDef("net",
		group.String("hostname", &g.Hostname, "node"),
		group.Uint32("port", &g.Port, 7000),
	)
	g.def.SetDefault()
	return g
}

type motGroup struct {
	Poles int64
	Scale float64
	def   *group.Def
}

func newMotGroup() *motGroup {
	g := &motGroup{}
	g.def = group.NewDef("motor",
		group.Int64("poles", &g.Poles, 14),
		group.Float64("scale", &g.Scale, 0.5),
	)
	g.def.SetDefault()
	return g
}

type fixture struct {
	man *command.Manager
	fl  *flash.Mem
	cfg *Config

	net *netGroup
	mot *motGroup

	netUpdates int
	motUpdates int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		man: command.NewManager(),
		fl:  flash.NewMem(1024),
		net: newNetGroup(),
		mot: newMotGroup(),
	}
	f.cfg = New(f.man, f.fl)
	f.cfg.Register("net", f.net.def, func() { f.netUpdates++ })
	f.cfg.Register("motor", f.mot.def, func() { f.motUpdates++ })
	return f
}

// run dispatches one line and returns the full reply text. Every stream in
// the fixture completes synchronously, so the command is done on return.
func (f *fixture) run(t *testing.T, line string) string {
	t.Helper()

	var buf bytes.Buffer
	completed := false
	f.man.Dispatch(line, command.Response{
		Stream: stream.NewSyncWriter(&buf),
		Done: func(err error) {
			completed = true
			assert.NoError(t, err)
		},
	})
	require.True(t, completed, "command must complete synchronously in tests")
	return buf.String()
}

func TestProtocolLiterals(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		line  string
		reply string
	}{
		{"get unknown group", "conf get bogus.x", "ERR unknown group\r\n"},
		{"set unknown group", "conf set bogus.x 1", "ERR unknown group\r\n"},
		{"unknown subcommand", "conf frobnicate", "ERR unknown subcommand\r\n"},
		{"empty subcommand", "conf", "ERR unknown subcommand\r\n"},
		{"get unknown field", "conf get net.bogus", "ERR error reading\r\n"},
		{"set unparsable value", "conf set net.port banana", "ERR error setting\r\n"},
		{"get value", "conf get net.hostname", "node\r\n"},
		{"set value", "conf set net.port 8080", "OK\r\n"},
		{"load", "conf load", "OK\r\n"},
		{"write", "conf write", "OK\r\n"},
		{"default", "conf default", "OK\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reply, f.run(t, tt.line))
		})
	}
}

func TestGetHasNoOKLine(t *testing.T) {
	f := newFixture(t)

	reply := f.run(t, "conf get motor.poles")
	assert.Equal(t, "14\r\n", reply, "the value plus CRLF is the whole reply")
}

func TestSetAppliesValueAndFiresUpdated(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "OK\r\n", f.run(t, "conf set net.hostname gimbal"))
	assert.Equal(t, "gimbal", f.net.Hostname)
	assert.Equal(t, 1, f.netUpdates, "Updated fires synchronously on set")
	assert.Equal(t, 0, f.motUpdates)
}

func TestSetValueMayContainSpaces(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, "OK\r\n", f.run(t, "conf set net.hostname left gimbal"))
	assert.Equal(t, "left gimbal", f.net.Hostname)
}

func TestSetFailureDoesNotFireUpdated(t *testing.T) {
	f := newFixture(t)

	f.run(t, "conf set motor.poles x")
	assert.Equal(t, 0, f.motUpdates)
}

func TestUpdateHookFiresAfterSet(t *testing.T) {
	f := newFixture(t)

	hooked := 0
	f.cfg.SetUpdateHook(func() { hooked++ })

	f.run(t, "conf set motor.poles 28")
	assert.Equal(t, 1, hooked)

	f.run(t, "conf set motor.poles x")
	assert.Equal(t, 1, hooked, "hook only fires on success")
}

func TestEnumerateOrdering(t *testing.T) {
	f := newFixture(t)

	reply := f.run(t, "conf enumerate")
	assert.Equal(t,
		"net.hostname node\r\n"+
			"net.port 7000\r\n"+
			"motor.poles 14\r\n"+
			"motor.scale 0.5\r\n"+
			"OK\r\n",
		reply)
}

// abortStream fails every write after the first n.
type abortStream struct {
	out   bytes.Buffer
	n     int
	count int
}

func (a *abortStream) AsyncWrite(data []byte, done func(error)) {
	a.count++
	if a.count > a.n {
		done(errors.New("transport failed"))
		return
	}
	a.out.Write(data)
	done(nil)
}

func TestEnumerateAbortsOnStreamError(t *testing.T) {
	f := newFixture(t)

	w := &abortStream{n: 3}
	var doneErr error
	completed := false
	f.man.Dispatch("conf enumerate", command.Response{
		Stream: w,
		Done: func(err error) {
			completed = true
			doneErr = err
		},
	})

	require.True(t, completed)
	assert.EqualError(t, doneErr, "transport failed")
	assert.Equal(t,
		"net.hostname node\r\nnet.port 7000\r\nmotor.poles 14\r\n",
		w.out.String())
	assert.NotContains(t, w.out.String(), "OK", "no OK after an aborted enumerate")
}

func TestDefaultRestoresValuesWithoutUpdated(t *testing.T) {
	f := newFixture(t)

	f.run(t, "conf set net.port 9999")
	updatesAfterSet := f.netUpdates

	assert.Equal(t, "OK\r\n", f.run(t, "conf default"))
	assert.EqualValues(t, 7000, f.net.Port)
	assert.Equal(t, updatesAfterSet, f.netUpdates, "default fires no Updated callbacks")

	assert.Equal(t, "7000\r\n", f.run(t, "conf get net.port"))
}

func TestWriteThenLoadRoundTrip(t *testing.T) {
	f := newFixture(t)

	f.run(t, "conf set net.hostname unit7")
	f.run(t, "conf set net.port 8443")
	f.run(t, "conf set motor.poles 28")
	f.run(t, "conf set motor.scale -2.25")

	assert.Equal(t, "OK\r\n", f.run(t, "conf write"))
	assert.Equal(t, "OK\r\n", f.run(t, "conf default"))
	assert.Equal(t, "node", f.net.Hostname)

	assert.Equal(t, "OK\r\n", f.run(t, "conf load"))
	assert.Equal(t, "unit7", f.net.Hostname)
	assert.EqualValues(t, 8443, f.net.Port)
	assert.EqualValues(t, 28, f.mot.Poles)
	assert.Equal(t, -2.25, f.mot.Scale)
}

func TestWriteLeavesFlashLocked(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.cfg.Write())
	_, err := f.fl.Writer().Write([]byte{1})
	assert.ErrorIs(t, err, flash.ErrLocked)
}

func TestLoadIdempotent(t *testing.T) {
	f := newFixture(t)

	f.run(t, "conf set net.port 8001")
	require.NoError(t, f.cfg.Write())

	f.cfg.Load()
	first := f.net.Port
	firstNetUpdates := f.netUpdates

	f.cfg.Load()
	assert.Equal(t, first, f.net.Port)
	assert.Equal(t, firstNetUpdates+1, f.netUpdates,
		"every load fires every group's Updated once")
}

func TestLoadFiresUpdatedForEveryGroupEvenOnEmptyImage(t *testing.T) {
	f := newFixture(t)

	f.cfg.Load()
	assert.Equal(t, 1, f.netUpdates)
	assert.Equal(t, 1, f.motUpdates)
}

func TestSchemaMismatchIsolation(t *testing.T) {
	f := newFixture(t)
	f.run(t, "conf set net.hostname stale")
	f.run(t, "conf set motor.poles 28")
	require.NoError(t, f.cfg.Write())

	// Same flash, but the "net" group's structure changed between builds.
	var renamed string
	changedNet := group.NewDef("net",
		group.String("nodename", &renamed, "fresh"),
	)
	changedNet.SetDefault()
	mot := newMotGroup()

	engine := New(command.NewManager(), f.fl)
	engine.Register("net", changedNet, nil)
	engine.Register("motor", mot.def, nil)
	engine.Load()

	assert.Equal(t, "fresh", renamed, "mismatched record leaves state untouched")
	assert.EqualValues(t, 28, mot.Poles, "scan continues past the mismatch")
}

func TestUnknownGroupIsolation(t *testing.T) {
	f := newFixture(t)
	f.run(t, "conf set motor.poles 42")
	require.NoError(t, f.cfg.Write())

	// A later firmware build no longer registers "net".
	mot := newMotGroup()
	engine := New(command.NewManager(), f.fl)
	engine.Register("motor", mot.def, nil)
	engine.Load()

	assert.EqualValues(t, 42, mot.Poles, "unknown record skipped by its length")
}

func TestLoadOnCorruptImageIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.run(t, "conf set net.port 8001")
	require.NoError(t, f.cfg.Write())

	// Corrupt the image tail: rewrite only the first record's bytes, then
	// garbage. The scan applies what it can and stops.
	img := f.fl.Read()
	require.NoError(t, f.fl.Unlock())
	require.NoError(t, f.fl.Erase())
	w := f.fl.Writer()
	_, err := w.Write(img[:20])
	require.NoError(t, err)
	require.NoError(t, f.fl.Lock())

	engine := New(command.NewManager(), f.fl)
	net := newNetGroup()
	engine.Register("net", net.def, nil)

	assert.NotPanics(t, func() { engine.Load() })
}
