package x11layout

import (
	"log/slog"

	"nativekeymap/internal/modmask"
)

// Core modifier bits of a KeyPress state.
const (
	coreShiftMask   uint16 = 1 << 0
	coreControlMask uint16 = 1 << 2
	coreSlotCount          = 8
	firstFreeSlot          = 3 // Mod1; Shift, Lock and Control are fixed
)

// Keysyms that identify what a Mod1..Mod5 slot carries.
const (
	xkModeSwitch     = 0xff7e
	xkNumLock        = 0xff7f
	xkMetaL          = 0xffe7
	xkMetaR          = 0xffe8
	xkAltL           = 0xffe9
	xkAltR           = 0xffea
	xkSuperL         = 0xffeb
	xkSuperR         = 0xffec
	xkISOLevel3Shift = 0xfe03
	xkISOLevel5Shift = 0xfe11
)

// ModifierTranslator converts abstract modifier masks into core X11 event
// state for one server modifier mapping. It is immutable; build a new one when
// the mapping changes.
type ModifierTranslator struct {
	alt        uint16
	meta       uint16
	numLock    uint16
	modeSwitch uint16
	level3     uint16
	level5     uint16
}

// NewModifierTranslator inspects the modifier map. keycodes holds
// perModifier keycodes for each of the eight slots, as returned by
// GetModifierMapping; keysym returns the group 1, level 1 keysym of a keycode.
func NewModifierTranslator(keycodes []uint8, perModifier int, keysym func(keycode uint8) uint32) ModifierTranslator {
	var t ModifierTranslator
	if perModifier <= 0 {
		return t
	}
	for slot := firstFreeSlot; slot < coreSlotCount; slot++ {
		bit := uint16(1) << slot
		for i := 0; i < perModifier; i++ {
			idx := slot*perModifier + i
			if idx >= len(keycodes) {
				break
			}
			kc := keycodes[idx]
			if kc == 0 {
				continue
			}
			switch keysym(kc) {
			case xkAltL, xkAltR:
				t.alt = firstBit(t.alt, bit)
			case xkMetaL, xkMetaR, xkSuperL, xkSuperR:
				t.meta = firstBit(t.meta, bit)
			case xkNumLock:
				t.numLock = firstBit(t.numLock, bit)
			case xkModeSwitch:
				t.modeSwitch = firstBit(t.modeSwitch, bit)
			case xkISOLevel3Shift:
				t.level3 = firstBit(t.level3, bit)
			case xkISOLevel5Shift:
				t.level5 = firstBit(t.level5, bit)
			}
		}
	}
	slog.Debug("[DEBUG-X11] modifier slots",
		"alt", t.alt, "meta", t.meta, "numLock", t.numLock,
		"modeSwitch", t.modeSwitch, "level3", t.level3, "level5", t.level5)
	return t
}

// firstBit keeps the lowest slot that carries a role.
func firstBit(current, bit uint16) uint16 {
	if current != 0 {
		return current
	}
	return bit
}

// ToNativeState returns the KeyPress state for mask in group (0-3).
// Control+Alt is AltGr and maps to the third-level slot, never to literal
// Control and Alt.
func (t ModifierTranslator) ToNativeState(mask modmask.Mask, group int) uint16 {
	var s uint16
	switch {
	case mask.Has(modmask.AltGr):
		s |= t.thirdLevel()
	case mask&modmask.Control != 0:
		s |= coreControlMask
	case mask&modmask.Alt != 0:
		s |= t.alt
	}
	if mask&modmask.Shift != 0 {
		s |= coreShiftMask
	}
	if mask&modmask.Meta != 0 {
		s |= t.meta
	}
	if mask&modmask.NumLock != 0 {
		s |= t.numLock
	}
	if mask&modmask.Level3 != 0 {
		s |= t.thirdLevel()
	}
	if mask&modmask.Level5 != 0 {
		s |= t.level5
	}
	return s | uint16(group&stateGroupMask)<<stateGroupShift
}

func (t ModifierTranslator) thirdLevel() uint16 {
	if t.level3 != 0 {
		return t.level3
	}
	return t.modeSwitch
}

// LevelBits returns the native slots ToNativeState sets for the third and
// fifth level shifts in mask.
func (t ModifierTranslator) LevelBits(mask modmask.Mask) uint16 {
	var s uint16
	if mask.Has(modmask.AltGr) || mask&modmask.Level3 != 0 {
		s |= t.thirdLevel()
	}
	if mask&modmask.Level5 != 0 {
		s |= t.level5
	}
	return s
}

// Supports reports whether every shift level mask asks for has a slot in the
// mapping. Probing an unsupported level would just repeat a lower one.
func (t ModifierTranslator) Supports(mask modmask.Mask) bool {
	if (mask.Has(modmask.AltGr) || mask&modmask.Level3 != 0) && t.thirdLevel() == 0 {
		return false
	}
	if mask&modmask.Level5 != 0 && t.level5 == 0 {
		return false
	}
	return true
}
