//go:build windows

package nativekeymap

import (
	"fmt"

	"nativekeymap/internal/keycodes"
	"nativekeymap/internal/winlayout"
)

type windowsBackend struct {
	user32 winlayout.User32
}

func newPlatformBackend() backend { return windowsBackend{} }

func (b windowsBackend) load() error {
	if err := b.user32.Load(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (b windowsBackend) keyMap(Options) ([]KeyMapping, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	return winlayout.Enumerate(b.user32, keycodes.Table()), nil
}

func (b windowsBackend) currentLayout(Options) (*LayoutInfo, error) {
	if err := b.load(); err != nil {
		return nil, err
	}
	l, err := winlayout.CurrentLayout(b.user32)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return l, nil
}

// Windows exposes no reliable physical-geometry query.
func (windowsBackend) isISO(Options) ISOState { return ISOUnknown }

func (windowsBackend) watch(_ Options, signal func()) (func() error, error) {
	w := winlayout.NewActivationWatcher()
	if err := w.Start(signal); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return w.Stop, nil
}
