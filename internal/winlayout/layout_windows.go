//go:build windows

package winlayout

import (
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sys/windows/registry"

	"nativekeymap/internal/keymap"
)

const keyboardLayoutsKey = `SYSTEM\CurrentControlSet\Control\Keyboard Layouts\`

// registryValueFn is a test seam for the registry lookups.
var registryValueFn = readLayoutRegistryValue

// CurrentLayout reads the foreground window's layout identity. It returns an
// error only when the layout name itself cannot be read; registry misses
// leave Text or ID empty.
func CurrentLayout(u User32) (*keymap.Layout, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	restore := activateForeground(u)
	defer restore()

	name, err := u.LayoutName()
	if err != nil {
		return nil, fmt.Errorf("read keyboard layout name: %w", err)
	}
	return describeLayout(name), nil
}

func describeLayout(name string) *keymap.Layout {
	l := &keymap.Layout{Platform: "windows", Name: name}
	if text, err := registryValueFn(name, "Layout Text"); err == nil {
		l.Text = text
	} else {
		slog.Debug("[DEBUG-KEYMAP] layout text lookup failed", "layout", name, "error", err)
	}
	if id, err := registryValueFn(name, "Layout Id"); err == nil {
		l.ID = id
	} else {
		slog.Debug("[DEBUG-KEYMAP] layout id lookup failed", "layout", name, "error", err)
	}
	return l
}

func readLayoutRegistryValue(layoutName, value string) (string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, keyboardLayoutsKey+layoutName, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	s, _, err := k.GetStringValue(value)
	if err != nil {
		return "", err
	}
	return s, nil
}
