package x11layout

import (
	"github.com/jezek/xgb/xproto"

	"nativekeymap/internal/keycodes"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/modmask"
)

// Resolve returns the text a synthesized key press produces, or "".
func Resolve(km *KeyMap, ev xproto.KeyPressEvent) string {
	return KeysymToString(km.Lookup(byte(ev.Detail), ev.State))
}

// Enumerate resolves every table entry with an X11 keycode inside the server's
// range, in table order, for the given group. extended adds the two
// fifth-level probes. A level shift the key's type does not use yields "",
// where Xlib's XLookupString would fall back to the lower level's symbol.
func Enumerate(km *KeyMap, mods ModifierTranslator, group int, entries []keycodes.Entry, extended bool) []keymap.Mapping {
	queries := modmask.Queries(extended)
	out := make([]keymap.Mapping, 0, len(entries))
	for _, e := range entries {
		if e.X11 == 0 || !km.InRange(e.X11) {
			continue
		}
		m := keymap.Mapping{KeyCode: e.Code}
		for _, q := range queries {
			if !mods.Supports(q.Mask) {
				continue
			}
			ev := xproto.KeyPressEvent{
				Detail: xproto.Keycode(e.X11),
				State:  mods.ToNativeState(q.Mask, group),
			}
			if lv := uint8(mods.LevelBits(q.Mask)); lv != 0 && !km.Consumes(uint8(e.X11), ev.State, lv) {
				continue
			}
			m.Set(q.Slot, Resolve(km, ev))
		}
		out = append(out, m)
	}
	return out
}
