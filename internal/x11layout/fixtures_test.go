package x11layout

import (
	"github.com/jezek/xgb"
)

// Core modifier bits as a typical evdev server assigns them.
const (
	modShift uint8 = 0x01
	modLock  uint8 = 0x02
	modMod1  uint8 = 0x08 // Alt
	modMod2  uint8 = 0x10 // NumLock
	modMod3  uint8 = 0x20 // ISO_Level5_Shift
	modMod4  uint8 = 0x40 // Super
	modMod5  uint8 = 0x80 // ISO_Level3_Shift
)

// Keycodes used by the fixtures (evdev numbering).
const (
	kcDigit1      uint8 = 10
	kcKeyQ        uint8 = 24
	kcKeyE        uint8 = 26
	kcBracketLeft uint8 = 34
	kcKeyA        uint8 = 38
	kcKeyX        uint8 = 53
	kcAltL        uint8 = 64
	kcNumLock     uint8 = 77
	kcLevel3      uint8 = 92
	kcSuperL      uint8 = 133
	kcLevel5      uint8 = 203
)

const (
	typeOneLevel = iota
	typeTwoLevel
	typeAlphabetic
	typeFourLevel
	typeEightLevel
)

func fixtureTypes() []KeyType {
	return []KeyType{
		typeOneLevel: {NumLevels: 1},
		typeTwoLevel: {ModsMask: modShift, NumLevels: 2, Entries: []MapEntry{
			{Active: true, ModsMask: modShift, Level: 1},
		}},
		typeAlphabetic: {ModsMask: modShift | modLock, NumLevels: 2, Entries: []MapEntry{
			{Active: true, ModsMask: modShift, Level: 1},
			{Active: true, ModsMask: modLock, Level: 1},
		}},
		typeFourLevel: {ModsMask: modShift | modMod5, NumLevels: 4, Entries: []MapEntry{
			{Active: true, ModsMask: modShift, Level: 1},
			{Active: true, ModsMask: modMod5, Level: 2},
			{Active: true, ModsMask: modShift | modMod5, Level: 3},
		}},
		typeEightLevel: {ModsMask: modShift | modMod5 | modMod3, NumLevels: 8, Entries: []MapEntry{
			{Active: true, ModsMask: modShift, Level: 1},
			{Active: true, ModsMask: modMod5, Level: 2},
			{Active: true, ModsMask: modShift | modMod5, Level: 3},
			{Active: true, ModsMask: modMod3, Level: 4},
			{Active: true, ModsMask: modShift | modMod3, Level: 5},
			{Active: true, ModsMask: modMod5 | modMod3, Level: 6},
			{Active: true, ModsMask: modShift | modMod5 | modMod3, Level: 7},
		}},
	}
}

// newFixtureKeyMap returns a key map for keycodes 8..255 with no symbols.
func newFixtureKeyMap() *KeyMap {
	return &KeyMap{
		MinKeycode:   8,
		MaxKeycode:   255,
		FirstKeycode: 8,
		Types:        fixtureTypes(),
		Keys:         make([]KeySyms, 248),
	}
}

// setKey installs a single-group key of the given type.
func setKey(km *KeyMap, kc uint8, kt uint8, syms ...uint32) {
	setGroups(km, kc, 0, kt, [][]uint32{syms})
}

// setGroups installs a key with one row of syms per group, all of type kt.
func setGroups(km *KeyMap, kc uint8, groupFlags uint8, kt uint8, groups [][]uint32) {
	width := 0
	for _, g := range groups {
		width = max(width, len(g))
	}
	ks := KeySyms{
		GroupInfo: uint8(len(groups)) | groupFlags,
		Width:     uint8(width),
		Syms:      make([]uint32, width*len(groups)),
	}
	for i, g := range groups {
		ks.TypeIndex[i] = kt
		copy(ks.Syms[i*width:], g)
	}
	km.Keys[kc-km.FirstKeycode] = ks
}

func usKeyMap() *KeyMap {
	km := newFixtureKeyMap()
	setKey(km, kcKeyA, typeAlphabetic, 'a', 'A')
	setKey(km, kcKeyQ, typeAlphabetic, 'q', 'Q')
	setKey(km, kcKeyE, typeFourLevel, 'e', 'E', 0x20ac, 0)
	setKey(km, kcDigit1, typeTwoLevel, '1', '!')
	setKey(km, kcAltL, typeOneLevel, xkAltL)
	setKey(km, kcNumLock, typeOneLevel, xkNumLock)
	setKey(km, kcLevel3, typeOneLevel, xkISOLevel3Shift)
	setKey(km, kcSuperL, typeOneLevel, xkSuperL)
	return km
}

func frenchKeyMap() *KeyMap {
	km := usKeyMap()
	setKey(km, kcDigit1, typeFourLevel, '&', '1', 0, 0)
	setKey(km, kcKeyA, typeAlphabetic, 'q', 'Q')
	setKey(km, kcKeyQ, typeAlphabetic, 'a', 'A')
	setKey(km, kcBracketLeft, typeFourLevel, 0xfe52, 0xfe57, '[', 0) // dead_circumflex, dead_diaeresis
	return km
}

// fixtureModifierMap is a two-keycodes-per-slot core modifier map:
// Shift, Lock, Control, Mod1..Mod5.
func fixtureModifierMap(mod3 uint8) []uint8 {
	return []uint8{
		50, 62,
		66, 0,
		37, 105,
		kcAltL, 0,
		kcNumLock, 0,
		mod3, 0,
		kcSuperL, 0,
		kcLevel3, 0,
	}
}

func translatorFor(km *KeyMap, modmap []uint8) ModifierTranslator {
	return NewModifierTranslator(modmap, 2, func(kc uint8) uint32 { return km.Lookup(kc, 0) })
}

// encodeGetMapReply serializes km the way the server sends an XkbGetMap
// reply carrying only key types and key syms.
func encodeGetMapReply(km *KeyMap) []byte {
	body := []byte{}
	for _, kt := range km.Types {
		hdr := make([]byte, 8)
		hdr[0] = kt.ModsMask
		hdr[1] = kt.ModsMask
		hdr[4] = kt.NumLevels
		hdr[5] = uint8(len(kt.Entries))
		body = append(body, hdr...)
		for _, e := range kt.Entries {
			entry := make([]byte, 8)
			if e.Active {
				entry[0] = 1
			}
			entry[1] = e.ModsMask
			entry[2] = e.Level
			entry[3] = e.ModsMask
			body = append(body, entry...)
		}
	}
	totalSyms := 0
	for _, ks := range km.Keys {
		hdr := make([]byte, 8)
		copy(hdr[0:4], ks.TypeIndex[:])
		hdr[4] = ks.GroupInfo
		hdr[5] = ks.Width
		xgb.Put16(hdr[6:], uint16(len(ks.Syms)))
		body = append(body, hdr...)
		for _, sym := range ks.Syms {
			b := make([]byte, 4)
			xgb.Put32(b, sym)
			body = append(body, b...)
		}
		totalSyms += len(ks.Syms)
	}

	hdr := make([]byte, xkbGetMapReplyHeader)
	hdr[0] = 1
	xgb.Put32(hdr[4:], uint32((len(hdr)+len(body)-32)/4))
	hdr[10] = km.MinKeycode
	hdr[11] = km.MaxKeycode
	xgb.Put16(hdr[12:], xkbMapPartKeyTypes|xkbMapPartKeySyms)
	hdr[15] = uint8(len(km.Types))
	hdr[16] = uint8(len(km.Types))
	hdr[17] = km.FirstKeycode
	xgb.Put16(hdr[18:], uint16(totalSyms))
	hdr[20] = uint8(len(km.Keys))
	return append(hdr, body...)
}
