package x11layout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jezek/xgb/xproto"
)

var errConnectionLost = errors.New("X connection closed while watching")

// PollInterval bounds how long the watch loop waits before re-reading the
// layout state without an event.
const PollInterval = time.Second

// WatchSource is what Watch needs from the display.
type WatchSource interface {
	// Shadow reads the current {group, layout, variant}.
	Shadow() (Shadow, error)
	// Changes is signalled, coalesced, whenever the server reports a keyboard
	// or rules change. It is closed when the connection goes away.
	Changes() <-chan struct{}
}

// Watch calls notify each time the shadow value differs from the previous
// one. It returns nil when ctx is cancelled and an error when the source's
// connection is lost.
func Watch(ctx context.Context, src WatchSource, notify func(), interval time.Duration) error {
	if interval <= 0 {
		interval = PollInterval
	}
	prev, err := src.Shadow()
	have := err == nil
	if err != nil {
		slog.Debug("[DEBUG-X11] initial layout state read failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	changes := src.Changes()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errConnectionLost
			}
		case <-ticker.C:
		}

		cur, err := src.Shadow()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("[DEBUG-X11] layout state read failed", "error", err)
			continue
		}
		if !have {
			prev, have = cur, true
			continue
		}
		if cur == prev {
			continue
		}
		slog.Debug("[DEBUG-X11] layout changed", "from", prev, "to", cur)
		prev = cur
		notify()
	}
}

// LiveSource is a WatchSource backed by its own X connection.
type LiveSource struct {
	sess      *Session
	rulesAtom xproto.Atom
	changes   chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
}

// OpenLiveSource opens a dedicated connection and subscribes to XKB state,
// map and keyboard notifications plus property changes on the root window.
func OpenLiveSource(display string) (*LiveSource, error) {
	sess, err := Open(display)
	if err != nil {
		return nil, err
	}
	if err := sess.xkb.SelectEvents(sess.conn); err != nil {
		sess.Close()
		return nil, err
	}
	err = xproto.ChangeWindowAttributesChecked(sess.conn, sess.root,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("select root property events: %w", err)
	}
	atom, err := sess.internAtom(rulesNamesProperty, false)
	if err != nil {
		sess.Close()
		return nil, err
	}

	src := &LiveSource{
		sess:      sess,
		rulesAtom: atom,
		changes:   make(chan struct{}, 1),
		readDone:  make(chan struct{}),
	}
	go src.readEvents()
	return src, nil
}

func (s *LiveSource) readEvents() {
	defer close(s.readDone)
	defer close(s.changes)
	conn := s.sess.conn
	for {
		ev, xerr := conn.WaitForEvent()
		if ev == nil && xerr == nil {
			return
		}
		if xerr != nil {
			slog.Debug("[DEBUG-X11] X error on watch connection", "error", xerr)
			continue
		}
		switch e := ev.(type) {
		case XKBEvent:
			s.signal()
		case xproto.PropertyNotifyEvent:
			if e.Atom == s.rulesAtom {
				s.signal()
			}
		}
	}
}

func (s *LiveSource) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Shadow implements WatchSource.
func (s *LiveSource) Shadow() (Shadow, error) { return s.sess.Shadow() }

// Changes implements WatchSource.
func (s *LiveSource) Changes() <-chan struct{} { return s.changes }

// Close shuts the connection down and waits for the event reader to exit.
func (s *LiveSource) Close() {
	s.closeOnce.Do(func() {
		s.sess.conn.Close()
		<-s.readDone
	})
}
