// Package winlayout resolves the characters produced by every key of the
// active Windows keyboard layout.
//
// The resolution logic in this file is platform independent and talks to the
// OS only through Translator, so it can be exercised with a fake layout.
package winlayout

import (
	"log/slog"
	"unicode"
	"unicode/utf16"

	"nativekeymap/internal/modmask"
)

// Virtual-key codes referenced by the resolver.
const (
	vkShift   uint32 = 0x10
	vkControl uint32 = 0x11
	vkMenu    uint32 = 0x12
	vkSpace   uint32 = 0x20
	vkDecimal uint32 = 0x6e
)

// MapVirtualKey translation types.
const (
	mapVKToVSC uint32 = 0
)

const (
	keyDown byte = 0x80

	// toUnicodeBufferLen is the number of UTF-16 units requested per query.
	toUnicodeBufferLen = 4

	// maxDrainAttempts bounds the dead-key drain loop per neutral key.
	// A pending accent is normally flushed by the first call.
	maxDrainAttempts = 4
)

// KeyboardState mirrors the 256-byte array passed to ToUnicode: one byte per
// virtual key, high bit set when the key is held.
type KeyboardState [256]byte

// Reset clears every key, including toggle bits such as CapsLock.
func (s *KeyboardState) Reset() { *s = KeyboardState{} }

// Press marks vk as held.
func (s *KeyboardState) Press(vk uint32) { s[vk&0xff] |= keyDown }

// Translator is the subset of user32 the resolver needs.
type Translator interface {
	// MapVirtualKey wraps MapVirtualKeyW.
	MapVirtualKey(code, mapType uint32) uint32
	// ToUnicode wraps ToUnicode. buf receives up to len(buf) UTF-16 units.
	// The return value follows the Win32 contract: -1 for a dead key, 0 for
	// no translation, otherwise the number of units written.
	ToUnicode(vk, scan uint32, state *KeyboardState, buf []uint16) int32
}

// Resolver turns (virtual key, modifier mask) pairs into text for the layout
// currently active on the calling thread. A Resolver is not safe for
// concurrent use: it shares the thread-global dead-key accumulator with the OS.
type Resolver struct {
	tr Translator

	// neutral is the drain target for pending dead keys, looked up once.
	neutral     uint32
	neutralScan uint32
	fallback    uint32
	fallbackSc  uint32

	drainState KeyboardState
}

// NewResolver builds a Resolver and looks up the neutral drain key.
func NewResolver(tr Translator) *Resolver {
	r := &Resolver{tr: tr, neutral: vkDecimal, fallback: vkSpace}
	r.neutralScan = tr.MapVirtualKey(vkDecimal, mapVKToVSC)
	r.fallbackSc = tr.MapVirtualKey(vkSpace, mapVKToVSC)
	if r.neutralScan == 0 {
		slog.Debug("[DEBUG-KEYMAP] VK_DECIMAL has no scan code on this layout, draining dead keys with VK_SPACE")
	}
	return r
}

// Resolve returns the text produced by vk with mods held, or "" when the key
// produces nothing printable. state is caller-owned scratch space; it is
// reset before use.
func (r *Resolver) Resolve(vk uint32, mods modmask.Mask, state *KeyboardState) string {
	if vk == 0 {
		return ""
	}
	fillState(state, mods)

	scan := r.tr.MapVirtualKey(vk, mapVKToVSC)
	var buf [toUnicodeBufferLen + 1]uint16
	rc := r.tr.ToUnicode(vk, scan, state, buf[:toUnicodeBufferLen])
	state.Reset()

	// The accumulator is thread-global: drain after every probe, whatever
	// the outcome, so the next key starts clean.
	defer r.drain()

	switch {
	case rc == -1:
		// Dead key. The accent alone is not surfaced as key output.
		return ""
	case rc <= 0:
		return ""
	case rc == 1 && isControl(buf[0]):
		return ""
	}
	n := int(rc)
	if n > toUnicodeBufferLen {
		n = toUnicodeBufferLen
	}
	return string(utf16.Decode(buf[:n]))
}

// drain flushes any pending dead key by pressing the neutral key until the OS
// reports a non-negative result.
func (r *Resolver) drain() {
	if r.neutralScan != 0 && r.drainWith(r.neutral, r.neutralScan) {
		return
	}
	if r.fallbackSc != 0 && r.drainWith(r.fallback, r.fallbackSc) {
		return
	}
	slog.Warn("[DEBUG-KEYMAP] dead-key state could not be drained; following results may be combined",
		"neutralScan", r.neutralScan, "fallbackScan", r.fallbackSc)
}

func (r *Resolver) drainWith(vk, scan uint32) bool {
	var buf [toUnicodeBufferLen + 1]uint16
	for range maxDrainAttempts {
		r.drainState.Reset()
		if r.tr.ToUnicode(vk, scan, &r.drainState, buf[:toUnicodeBufferLen]) >= 0 {
			return true
		}
	}
	return false
}

// fillState resets state and presses the virtual keys implied by mods.
// Meta, NumLock and the XKB levels have no ToUnicode meaning and are ignored.
func fillState(state *KeyboardState, mods modmask.Mask) {
	state.Reset()
	if mods&modmask.Shift != 0 {
		state.Press(vkShift)
	}
	if mods&modmask.Control != 0 {
		state.Press(vkControl)
	}
	if mods&modmask.Alt != 0 {
		state.Press(vkMenu)
	}
}

func isControl(unit uint16) bool {
	if utf16.IsSurrogate(rune(unit)) {
		return false
	}
	return unicode.IsControl(rune(unit))
}
