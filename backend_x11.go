//go:build linux || freebsd || netbsd || openbsd || dragonfly

package nativekeymap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"nativekeymap/internal/keycodes"
	"nativekeymap/internal/workerutil"
	"nativekeymap/internal/x11layout"
)

type x11Backend struct{}

func newPlatformBackend() backend { return x11Backend{} }

func openSession(display string) (*x11layout.Session, error) {
	s, err := x11layout.Open(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return s, nil
}

func (x11Backend) keyMap(opts Options) ([]KeyMapping, error) {
	sess, err := openSession(opts.Display)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	return x11layout.Enumerate(snap.KeyMap, snap.Mods, snap.Group, keycodes.Table(), opts.ExtendedLevels), nil
}

func (x11Backend) currentLayout(opts Options) (*LayoutInfo, error) {
	sess, err := openSession(opts.Display)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	names, ok, err := sess.RulesNames()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: _XKB_RULES_NAMES is not set", ErrUnavailable)
	}
	st, err := sess.State()
	if err != nil {
		return nil, err
	}
	return x11layout.DescribeLayout(names, int(st.Group)), nil
}

func (x11Backend) isISO(opts Options) ISOState {
	sess, err := openSession(opts.Display)
	if err != nil {
		slog.Debug("[DEBUG-X11] ISO probe skipped", "error", err)
		return ISOUnknown
	}
	defer sess.Close()

	names, ok, err := sess.RulesNames()
	if err != nil || !ok {
		return ISOUnknown
	}
	return x11layout.ISOFromModel(names.Model)
}

func (x11Backend) watch(opts Options, signal func()) (func() error, error) {
	src, err := x11layout.OpenLiveSource(opts.Display)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	workerutil.RunWithPanicRecovery(ctx, "x11-layout-watch", &wg, func(ctx context.Context) {
		if err := x11layout.Watch(ctx, src, signal, x11layout.PollInterval); err != nil {
			slog.Warn("[DEBUG-X11] layout watch ended", "error", err)
		}
	}, workerutil.RecoveryOptions{})

	var once sync.Once
	return func() error {
		once.Do(func() {
			cancel()
			wg.Wait()
			src.Close()
		})
		return nil
	}, nil
}
