package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nativekeymap/internal/ipc"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/wsserver"
)

type fakeLayouts struct {
	mu     sync.Mutex
	keys   []keymap.Mapping
	layout *keymap.Layout
	iso    keymap.ISOState
	err    error
	gotExt bool
}

func (f *fakeLayouts) KeyMap(extended bool) ([]keymap.Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotExt = extended
	return f.keys, f.err
}

func (f *fakeLayouts) Layout() (*keymap.Layout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layout, f.err
}

func (f *fakeLayouts) ISO() keymap.ISOState { return f.iso }

func (f *fakeLayouts) set(layout *keymap.Layout, keys []keymap.Mapping) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layout, f.keys = layout, keys
}

type fakeWatcher struct {
	mu       sync.Mutex
	callback func()
	startErr error
	stopped  int
}

func (w *fakeWatcher) Start(cb func()) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.startErr != nil {
		return w.startErr
	}
	w.callback = cb
	return nil
}

func (w *fakeWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped++
	return nil
}

func (w *fakeWatcher) fire() {
	w.mu.Lock()
	cb := w.callback
	w.mu.Unlock()
	cb()
}

func usLayouts() *fakeLayouts {
	return &fakeLayouts{
		layout: &keymap.Layout{Platform: "x11", Layout: "us"},
		keys:   []keymap.Mapping{{KeyCode: "KeyA", Value: "a", WithShift: "A"}},
		iso:    keymap.ANSI,
	}
}

func startDaemon(t *testing.T, layouts Layouts, watcher ChangeWatcher) *Daemon {
	t.Helper()
	d := New(Options{Addr: "127.0.0.1:0", Endpoint: endpointForTest(t), LockName: lockNameForTest(t)}, layouts, watcher)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { assert.NoError(t, d.Stop()) })
	return d
}

func readSnapshot(t *testing.T, conn *websocket.Conn) wsserver.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	s, err := wsserver.DecodeSnapshot(frame)
	require.NoError(t, err)
	return s
}

func TestExecute(t *testing.T) {
	layouts := usLayouts()
	d := New(Options{Endpoint: "unused"}, layouts, &fakeWatcher{})

	var pong string
	require.NoError(t, d.Execute(ipc.Request{Command: ipc.CmdPing}).Decode(&pong))
	assert.Equal(t, "pong", pong)

	var keys []keymap.Mapping
	require.NoError(t, d.Execute(ipc.Request{Command: ipc.CmdGetKeyMap, ExtendedLevels: true}).Decode(&keys))
	assert.Equal(t, layouts.keys, keys)
	assert.True(t, layouts.gotExt)

	var layout keymap.Layout
	require.NoError(t, d.Execute(ipc.Request{Command: ipc.CmdCurrentLayout}).Decode(&layout))
	assert.Equal(t, "us", layout.Layout)

	var iso keymap.ISOState
	require.NoError(t, d.Execute(ipc.Request{Command: ipc.CmdIsISO}).Decode(&iso))
	assert.Equal(t, keymap.ANSI, iso)

	resp := d.Execute(ipc.Request{Command: "reboot"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown command")
}

func TestExecuteReportsUnavailable(t *testing.T) {
	d := New(Options{Endpoint: "unused"}, &fakeLayouts{err: errors.New("no display")}, &fakeWatcher{})

	for _, cmd := range []string{ipc.CmdGetKeyMap, ipc.CmdCurrentLayout} {
		resp := d.Execute(ipc.Request{Command: cmd})
		assert.False(t, resp.OK, cmd)
		assert.Contains(t, resp.Error, "no display", cmd)
	}
}

func TestExecuteEmptyKeyMapIsArray(t *testing.T) {
	d := New(Options{Endpoint: "unused"}, &fakeLayouts{}, &fakeWatcher{})
	resp := d.Execute(ipc.Request{Command: ipc.CmdGetKeyMap})
	require.True(t, resp.OK)
	assert.JSONEq(t, `[]`, string(resp.Result))
}

func TestDaemonBroadcastsOnLayoutChange(t *testing.T) {
	layouts := usLayouts()
	watcher := &fakeWatcher{}
	d := startDaemon(t, layouts, watcher)

	conn, _, err := websocket.DefaultDialer.Dial(d.URL(), nil)
	require.NoError(t, err)
	defer conn.Close()

	initial := readSnapshot(t, conn)
	require.NotNil(t, initial.Layout)
	assert.Equal(t, "us", initial.Layout.Layout)

	layouts.set(&keymap.Layout{Platform: "x11", Layout: "fr"}, []keymap.Mapping{{KeyCode: "Digit1", Value: "&", WithShift: "1"}})
	watcher.fire()

	changed := readSnapshot(t, conn)
	require.NotNil(t, changed.Layout)
	assert.Equal(t, "fr", changed.Layout.Layout)
	assert.Equal(t, "&", changed.KeyMap[0].Value)
}

func TestDaemonAnswersQueries(t *testing.T) {
	d := startDaemon(t, usLayouts(), &fakeWatcher{})

	resp, err := ipc.Send(d.Endpoint(), ipc.Request{Command: ipc.CmdCurrentLayout})
	require.NoError(t, err)
	var layout keymap.Layout
	require.NoError(t, resp.Decode(&layout))
	assert.Equal(t, "us", layout.Layout)
}

func TestDaemonRunsWithoutWatcher(t *testing.T) {
	d := startDaemon(t, usLayouts(), &fakeWatcher{startErr: errors.New("no XKB")})

	resp, err := ipc.Send(d.Endpoint(), ipc.Request{Command: ipc.CmdPing})
	require.NoError(t, err)
	assert.True(t, resp.OK)
}

func TestDaemonSingleInstance(t *testing.T) {
	lock := lockNameForTest(t)
	first := New(Options{Addr: "127.0.0.1:0", Endpoint: endpointForTest(t), LockName: lock}, usLayouts(), &fakeWatcher{})
	require.NoError(t, first.Start(context.Background()))
	defer first.Stop()

	second := New(Options{Addr: "127.0.0.1:0", Endpoint: endpointForTest(t), LockName: lock}, usLayouts(), &fakeWatcher{})
	err := second.Start(context.Background())
	assert.Error(t, err)
	assert.NoError(t, second.Stop(), "stop after failed start")
}

func TestDaemonStopIdempotent(t *testing.T) {
	watcher := &fakeWatcher{}
	d := New(Options{Addr: "127.0.0.1:0", Endpoint: endpointForTest(t)}, usLayouts(), watcher)
	require.NoError(t, d.Stop(), "stop before start")
	require.NoError(t, d.Start(context.Background()))
	require.Error(t, d.Start(context.Background()))
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())
	assert.Equal(t, 1, watcher.stopped)
}

func TestSnapshotToleratesErrors(t *testing.T) {
	d := New(Options{Endpoint: "unused"}, &fakeLayouts{err: errors.New("gone")}, &fakeWatcher{})
	s := d.Snapshot()
	assert.Nil(t, s.Layout)
	assert.Empty(t, s.KeyMap)
}
