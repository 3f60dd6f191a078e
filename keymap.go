// Package nativekeymap reports what every physical key of the active keyboard
// layout types under each modifier combination, which layout is active, and
// when it changes.
//
// Windows and X11 are supported. On other platforms every call reports the
// subsystem as unavailable.
package nativekeymap

import (
	"errors"
	"fmt"
	"log/slog"

	"nativekeymap/internal/keymap"
)

// KeyMapping is the text one physical key produces under the probed modifier
// combinations. WithLevel5 and WithLevel3Level5 are filled only when
// Options.ExtendedLevels is set on X11.
type KeyMapping = keymap.Mapping

// LayoutInfo identifies the active layout.
type LayoutInfo = keymap.Layout

// ISOState says whether the keyboard has the ISO extra key left of Z.
type ISOState = keymap.ISOState

const (
	ISOUnknown = keymap.ISOUnknown
	ISO        = keymap.ISO
	ANSI       = keymap.ANSI
)

// ErrUnavailable is wrapped by every error caused by a missing display,
// missing XKB extension, missing user32 entry point or unsupported platform.
var ErrUnavailable = errors.New("keyboard layout subsystem unavailable")

// Options tunes how the layout is read.
type Options struct {
	// ExtendedLevels adds the Level5 and Level3+Level5 probes (X11 only).
	ExtendedLevels bool
	// Display names the X display; "" uses $DISPLAY. Ignored on Windows.
	Display string
}

// backend is implemented once per platform.
type backend interface {
	keyMap(opts Options) ([]KeyMapping, error)
	currentLayout(opts Options) (*LayoutInfo, error)
	isISO(opts Options) ISOState
	// watch starts delivering signal on layout changes; stop releases every
	// native resource and returns once no further signal can be sent.
	watch(opts Options, signal func()) (stop func() error, err error)
}

// platform is replaced in tests.
var platform backend = newPlatformBackend()

// GetKeyMap returns one KeyMapping per physical key of the active layout, in
// the stable keycode table order. It never fails: when the layout cannot be
// read the problem is logged and an empty slice is returned.
func GetKeyMap() []KeyMapping {
	m, err := LoadKeyMap(Options{})
	if err != nil {
		slog.Warn("[DEBUG-KEYMAP] key map unavailable", "error", err)
		return []KeyMapping{}
	}
	return m
}

// LoadKeyMap is GetKeyMap with options and an explicit error.
func LoadKeyMap(opts Options) ([]KeyMapping, error) {
	m, err := platform.keyMap(opts)
	if err != nil {
		return nil, fmt.Errorf("load key map: %w", err)
	}
	return m, nil
}

// CurrentLayout returns the active layout, or nil when it cannot be read.
func CurrentLayout() *LayoutInfo {
	l, err := LoadLayout(Options{})
	if err != nil {
		slog.Debug("[DEBUG-KEYMAP] current layout unavailable", "error", err)
		return nil
	}
	return l
}

// LoadLayout is CurrentLayout with options and an explicit error.
func LoadLayout(opts Options) (*LayoutInfo, error) {
	l, err := platform.currentLayout(opts)
	if err != nil {
		return nil, fmt.Errorf("read current layout: %w", err)
	}
	return l, nil
}

// IsISOKeyboard reports the physical arrangement when the platform exposes
// it, and ISOUnknown otherwise.
func IsISOKeyboard() ISOState {
	return DetectISO(Options{})
}

// DetectISO is IsISOKeyboard with options.
func DetectISO(opts Options) ISOState {
	return platform.isISO(opts)
}
