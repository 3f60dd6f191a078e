// Package daemon serves the active keyboard layout to local clients: a
// WebSocket stream of snapshots and a pipe/socket query endpoint, both
// refreshed by the layout change watcher.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"nativekeymap"
	"nativekeymap/internal/ipc"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/singleinstance"
	"nativekeymap/internal/wsserver"
)

// Layouts reads the current layout on demand.
type Layouts interface {
	KeyMap(extended bool) ([]keymap.Mapping, error)
	Layout() (*keymap.Layout, error)
	ISO() keymap.ISOState
}

// ChangeWatcher reports layout changes. *nativekeymap.Watcher implements it.
type ChangeWatcher interface {
	Start(callback func()) error
	Stop() error
}

// Native reads layouts through the nativekeymap package.
type Native struct {
	Display string
}

func (n Native) KeyMap(extended bool) ([]keymap.Mapping, error) {
	return nativekeymap.LoadKeyMap(nativekeymap.Options{Display: n.Display, ExtendedLevels: extended})
}

func (n Native) Layout() (*keymap.Layout, error) {
	return nativekeymap.LoadLayout(nativekeymap.Options{Display: n.Display})
}

func (n Native) ISO() keymap.ISOState {
	return nativekeymap.DetectISO(nativekeymap.Options{Display: n.Display})
}

// Options configures a Daemon.
type Options struct {
	// Addr is the WebSocket listen address.
	Addr string
	// Endpoint is the query pipe or socket; "" uses ipc.DefaultEndpoint.
	Endpoint string
	// ExtendedLevels is applied to broadcast snapshots.
	ExtendedLevels bool
	// LockName enables the single-instance lock when non-empty.
	LockName string
}

// Daemon owns the hub, the query server and the watcher.
type Daemon struct {
	opts    Options
	layouts Layouts
	watcher ChangeWatcher

	hub *wsserver.Hub
	ipc *ipc.Server

	mu      sync.Mutex
	lock    *singleinstance.Lock
	running bool
}

// New wires a Daemon. Nothing listens until Start.
func New(opts Options, layouts Layouts, watcher ChangeWatcher) *Daemon {
	d := &Daemon{opts: opts, layouts: layouts, watcher: watcher}
	d.hub = wsserver.NewHub(wsserver.HubOptions{Addr: opts.Addr, Snapshot: d.Snapshot})
	d.ipc = ipc.NewServer(opts.Endpoint, d)
	return d
}

// Start takes the instance lock and brings every surface up. On failure
// whatever was started is torn down again.
func (d *Daemon) Start(ctx context.Context) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	if d.opts.LockName != "" {
		lock, lockErr := singleinstance.TryLock(d.opts.LockName)
		if lockErr != nil {
			return fmt.Errorf("daemon lock: %w", lockErr)
		}
		d.lock = lock
	}

	var started []func() error
	defer func() {
		if err == nil {
			return
		}
		for i := len(started) - 1; i >= 0; i-- {
			err = errors.Join(err, started[i]())
		}
		err = errors.Join(err, d.releaseLock())
	}()

	if err = d.hub.Start(ctx); err != nil {
		return err
	}
	started = append(started, d.hub.Stop)

	if err = d.ipc.Start(); err != nil {
		return err
	}
	started = append(started, d.ipc.Stop)

	if err = d.watcher.Start(d.onLayoutChange); err != nil {
		// The daemon still answers queries without change notifications.
		slog.Warn("[DEBUG-DAEMON] layout watch unavailable", "error", err)
		err = nil
	}

	d.running = true
	slog.Info("[DEBUG-DAEMON] started", "ws", d.hub.URL(), "endpoint", d.ipc.Endpoint())
	return nil
}

// Stop tears everything down. Safe to call when not running.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false

	err := errors.Join(
		d.watcher.Stop(),
		d.ipc.Stop(),
		d.hub.Stop(),
		d.releaseLock(),
	)
	slog.Info("[DEBUG-DAEMON] stopped", "error", err)
	return err
}

func (d *Daemon) releaseLock() error {
	if d.lock == nil {
		return nil
	}
	err := d.lock.Release()
	d.lock = nil
	return err
}

// URL is the WebSocket URL once started.
func (d *Daemon) URL() string { return d.hub.URL() }

// Endpoint is the query pipe or socket.
func (d *Daemon) Endpoint() string { return d.ipc.Endpoint() }

// Snapshot reads the current state for a broadcast. Read failures leave the
// corresponding part empty.
func (d *Daemon) Snapshot() wsserver.Snapshot {
	var s wsserver.Snapshot
	layout, err := d.layouts.Layout()
	if err != nil {
		slog.Debug("[DEBUG-DAEMON] layout unavailable", "error", err)
	}
	s.Layout = layout

	km, err := d.layouts.KeyMap(d.opts.ExtendedLevels)
	if err != nil {
		slog.Warn("[DEBUG-DAEMON] key map unavailable", "error", err)
	}
	s.KeyMap = km
	return s
}

func (d *Daemon) onLayoutChange() {
	slog.Debug("[DEBUG-DAEMON] layout changed")
	d.hub.Broadcast(d.Snapshot())
}

// Execute answers one query.
func (d *Daemon) Execute(req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CmdPing:
		return ipc.Success("pong")
	case ipc.CmdGetKeyMap:
		km, err := d.layouts.KeyMap(req.ExtendedLevels)
		if err != nil {
			return ipc.Failure(err)
		}
		if km == nil {
			km = []keymap.Mapping{}
		}
		return ipc.Success(km)
	case ipc.CmdCurrentLayout:
		layout, err := d.layouts.Layout()
		if err != nil {
			return ipc.Failure(err)
		}
		return ipc.Success(layout)
	case ipc.CmdIsISO:
		return ipc.Success(d.layouts.ISO())
	default:
		return ipc.Failure(fmt.Errorf("unknown command %q", req.Command))
	}
}
