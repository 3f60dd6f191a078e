package x11layout

import (
	"testing"

	"github.com/jezek/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nativekeymap/internal/keycodes"
	"nativekeymap/internal/keymap"
	"nativekeymap/internal/modmask"
)

func TestModifierTranslatorSlots(t *testing.T) {
	km := usKeyMap()
	setKey(km, kcLevel5, typeOneLevel, xkISOLevel5Shift)
	tr := translatorFor(km, fixtureModifierMap(kcLevel5))

	tests := []struct {
		name  string
		mask  modmask.Mask
		group int
		want  uint16
	}{
		{name: "none", mask: modmask.None, want: 0},
		{name: "shift", mask: modmask.Shift, want: uint16(modShift)},
		{name: "control alone", mask: modmask.Control, want: coreControlMask},
		{name: "alt alone", mask: modmask.Alt, want: uint16(modMod1)},
		{name: "altgr is level3, not ctrl+alt", mask: modmask.AltGr, want: uint16(modMod5)},
		{name: "shift altgr", mask: modmask.Shift | modmask.AltGr, want: uint16(modShift | modMod5)},
		{name: "meta", mask: modmask.Meta, want: uint16(modMod4)},
		{name: "numlock", mask: modmask.NumLock, want: uint16(modMod2)},
		{name: "level5", mask: modmask.Level5, want: uint16(modMod3)},
		{name: "level3 level5", mask: modmask.Level3 | modmask.Level5, want: uint16(modMod5 | modMod3)},
		{name: "group folded in", mask: modmask.None, group: 1, want: 1 << 13},
		{name: "group with altgr", mask: modmask.AltGr, group: 2, want: 2<<13 | uint16(modMod5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.ToNativeState(tt.mask, tt.group))
		})
	}
	assert.True(t, tr.Supports(modmask.Level3|modmask.Level5))
}

func TestModifierTranslatorModeSwitchFallback(t *testing.T) {
	km := usKeyMap()
	setKey(km, kcLevel3, typeOneLevel, xkModeSwitch)
	tr := translatorFor(km, fixtureModifierMap(0))

	assert.Equal(t, uint16(modMod5), tr.ToNativeState(modmask.AltGr, 0))
	assert.True(t, tr.Supports(modmask.AltGr))
	assert.False(t, tr.Supports(modmask.Level5))
}

func TestModifierTranslatorWithoutLevelSlots(t *testing.T) {
	km := usKeyMap()
	modmap := fixtureModifierMap(0)
	modmap[14] = 0 // drop ISO_Level3_Shift from Mod5
	tr := translatorFor(km, modmap)

	assert.Equal(t, uint16(0), tr.ToNativeState(modmask.AltGr, 0), "Ctrl+Alt must never fall back to literal Control and Alt")
	assert.False(t, tr.Supports(modmask.AltGr))
	assert.True(t, tr.Supports(modmask.Shift))
}

func TestModifierTranslatorEmptyMap(t *testing.T) {
	tr := NewModifierTranslator(nil, 0, func(uint8) uint32 { return 0 })
	assert.Equal(t, ModifierTranslator{}, tr)
	assert.Equal(t, coreControlMask, tr.ToNativeState(modmask.Control, 0))
}

func TestResolveSynthesizedEvent(t *testing.T) {
	km := usKeyMap()
	ev := xproto.KeyPressEvent{Detail: xproto.Keycode(kcKeyA), State: uint16(modShift)}
	assert.Equal(t, "A", Resolve(km, ev))

	first := Resolve(km, ev)
	assert.Equal(t, first, Resolve(km, ev), "resolution is deterministic")
}

func TestEnumerateUS(t *testing.T) {
	km := usKeyMap()
	tr := translatorFor(km, fixtureModifierMap(0))
	entries := []keycodes.Entry{
		{Code: "KeyA", X11: uint32(kcKeyA)},
		{Code: "IntlHash", X11: 0},
		{Code: "KeyE", X11: uint32(kcKeyE)},
		{Code: "Digit1", X11: uint32(kcDigit1)},
	}

	got := Enumerate(km, tr, 0, entries, false)

	want := []keymap.Mapping{
		{KeyCode: "KeyA", Value: "a", WithShift: "A"},
		{KeyCode: "KeyE", Value: "e", WithShift: "E", WithAltGr: "€"},
		{KeyCode: "Digit1", Value: "1", WithShift: "!"},
	}
	assert.Equal(t, want, got)
}

func TestEnumerateFrench(t *testing.T) {
	km := frenchKeyMap()
	tr := translatorFor(km, fixtureModifierMap(0))
	entries := []keycodes.Entry{
		{Code: "Digit1", X11: uint32(kcDigit1)},
		{Code: "KeyA", X11: uint32(kcKeyA)},
		{Code: "BracketLeft", X11: uint32(kcBracketLeft)},
	}

	got := Enumerate(km, tr, 0, entries, false)

	require.Len(t, got, 3)
	assert.Equal(t, keymap.Mapping{KeyCode: "Digit1", Value: "&", WithShift: "1"}, got[0])
	assert.Equal(t, "q", got[1].Value)
	assert.Equal(t, keymap.Mapping{KeyCode: "BracketLeft", WithAltGr: "["}, got[2], "dead keys produce no text")
}

func TestEnumerateUsesGroup(t *testing.T) {
	km := usKeyMap()
	setGroups(km, kcKeyA, 0, typeAlphabetic, [][]uint32{{'a', 'A'}, {0x6c6, 0x6e6}})
	tr := translatorFor(km, fixtureModifierMap(0))
	entries := []keycodes.Entry{{Code: "KeyA", X11: uint32(kcKeyA)}}

	assert.Equal(t, "a", Enumerate(km, tr, 0, entries, false)[0].Value)

	ru := Enumerate(km, tr, 1, entries, false)[0]
	assert.Equal(t, "ф", ru.Value)
	assert.Equal(t, "Ф", ru.WithShift)
}

func TestEnumerateExtendedLevels(t *testing.T) {
	km := usKeyMap()
	setKey(km, kcLevel5, typeOneLevel, xkISOLevel5Shift)
	setKey(km, kcKeyX, typeEightLevel,
		'x', 'X', 0x1002026, 0, 0x10003be, 0x100039e, 0, 0)
	entries := []keycodes.Entry{{Code: "KeyX", X11: uint32(kcKeyX)}}

	tr := translatorFor(km, fixtureModifierMap(kcLevel5))
	got := Enumerate(km, tr, 0, entries, true)
	require.Len(t, got, 1)
	assert.Equal(t, keymap.Mapping{
		KeyCode:    "KeyX",
		Value:      "x",
		WithShift:  "X",
		WithAltGr:  "…",
		WithLevel5: "ξ",
	}, got[0])

	standard := Enumerate(km, tr, 0, entries, false)[0]
	assert.Empty(t, standard.WithLevel5, "standard design never fills level 5")

	noLevel5 := Enumerate(km, translatorFor(km, fixtureModifierMap(0)), 0, entries, true)[0]
	assert.Empty(t, noLevel5.WithLevel5, "no fifth-level slot means no fifth-level probe")
}

func TestEnumerateSkipsOutOfRangeKeycodes(t *testing.T) {
	km := usKeyMap()
	km.MaxKeycode = 100
	tr := translatorFor(km, fixtureModifierMap(0))
	entries := []keycodes.Entry{
		{Code: "KeyA", X11: uint32(kcKeyA)},
		{Code: "MetaLeft", X11: uint32(kcSuperL)},
	}

	got := Enumerate(km, tr, 0, entries, false)
	require.Len(t, got, 1)
	assert.Equal(t, "KeyA", got[0].KeyCode)
}

func TestEnumerateRealTableOrder(t *testing.T) {
	km := usKeyMap()
	tr := translatorFor(km, fixtureModifierMap(0))

	got := Enumerate(km, tr, 0, keycodes.Table(), false)

	var want []string
	for _, e := range keycodes.Table() {
		if km.InRange(e.X11) {
			want = append(want, e.Code)
		}
	}
	codes := make([]string, len(got))
	for i, m := range got {
		codes[i] = m.KeyCode
	}
	assert.Equal(t, want, codes)
}
