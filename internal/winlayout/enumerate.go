package winlayout

import (
	"log/slog"
	"runtime"

	"nativekeymap/internal/keycodes"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/modmask"
)

// LayoutActivator switches the input layout of the calling OS thread.
type LayoutActivator interface {
	// ForegroundLayout returns the HKL used by the foreground window's thread.
	ForegroundLayout() (uintptr, error)
	// ActivateLayout makes hkl the calling thread's layout and returns the
	// layout that was active before.
	ActivateLayout(hkl uintptr) (uintptr, error)
}

// Platform is everything Enumerate needs from user32.
type Platform interface {
	Translator
	LayoutActivator
}

// Enumerate resolves every table entry that has a virtual-key code, in table
// order, against the foreground window's layout. All-empty mappings are kept.
//
// The foreground layout is activated for the calling thread for the duration
// of the scan; the previous layout is restored before returning.
func Enumerate(p Platform, entries []keycodes.Entry) []keymap.Mapping {
	// ActivateKeyboardLayout and the dead-key accumulator are per thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	restore := activateForeground(p)
	defer restore()

	r := NewResolver(p)
	var state KeyboardState
	out := make([]keymap.Mapping, 0, len(entries))
	for _, e := range entries {
		if e.Windows == 0 {
			continue
		}
		m := keymap.Mapping{KeyCode: e.Code}
		for _, q := range modmask.StandardQueries {
			m.Set(q.Slot, r.Resolve(e.Windows, q.Mask, &state))
		}
		out = append(out, m)
	}
	return out
}

// activateForeground switches to the foreground layout and returns the
// function that puts the original one back. Failures degrade to scanning the
// thread's current layout.
func activateForeground(p LayoutActivator) func() {
	noop := func() {}
	hkl, err := p.ForegroundLayout()
	if err != nil || hkl == 0 {
		slog.Debug("[DEBUG-KEYMAP] foreground layout unavailable, using thread layout", "error", err)
		return noop
	}
	previous, err := p.ActivateLayout(hkl)
	if err != nil {
		slog.Warn("[DEBUG-KEYMAP] failed to activate foreground layout", "hkl", hkl, "error", err)
		return noop
	}
	if previous == 0 || previous == hkl {
		return noop
	}
	return func() {
		if _, err := p.ActivateLayout(previous); err != nil {
			slog.Warn("[DEBUG-KEYMAP] failed to restore thread layout", "hkl", previous, "error", err)
		}
	}
}
