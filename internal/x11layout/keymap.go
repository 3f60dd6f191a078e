// Package x11layout resolves the characters produced by every key of the
// active X11 keyboard layout using the XKEYBOARD extension.
package x11layout

// Group-info flags from XkbGetMap: the low nibble is the number of groups,
// the high bits say what happens to an out-of-range group.
const (
	groupClampIntoRange    = 0x40
	groupRedirectIntoRange = 0x80
	groupRangeMask         = 0xc0
	groupCountMask         = 0x0f
)

// core event state layout: eight modifier bits, the effective group in 13-14.
const (
	stateModsMask   = 0x00ff
	stateGroupShift = 13
	stateGroupMask  = 0x3
)

// MapEntry maps a modifier combination to a shift level within a key type.
type MapEntry struct {
	Active   bool
	ModsMask uint8
	Level    uint8
}

// KeyType is one XKB key type such as ONE_LEVEL, ALPHABETIC or
// FOUR_LEVEL. ModsMask selects the modifiers the type cares about.
type KeyType struct {
	ModsMask  uint8
	NumLevels uint8
	Entries   []MapEntry
}

// KeySyms is the symbol table of one keycode.
type KeySyms struct {
	TypeIndex [4]uint8
	GroupInfo uint8
	Width     uint8
	Syms      []uint32
}

// Groups returns the number of groups the key defines.
func (k KeySyms) Groups() int { return int(k.GroupInfo & groupCountMask) }

// KeyMap is the server's keyboard description: key types plus one KeySyms per
// keycode starting at FirstKeycode.
type KeyMap struct {
	MinKeycode   uint8
	MaxKeycode   uint8
	FirstKeycode uint8
	Types        []KeyType
	Keys         []KeySyms
}

// InRange reports whether keycode lies within the server's keycode range.
func (m *KeyMap) InRange(keycode uint32) bool {
	return keycode >= uint32(m.MinKeycode) && keycode <= uint32(m.MaxKeycode) && keycode != 0
}

func (m *KeyMap) key(keycode uint8) (KeySyms, bool) {
	if keycode < m.FirstKeycode {
		return KeySyms{}, false
	}
	i := int(keycode - m.FirstKeycode)
	if i >= len(m.Keys) {
		return KeySyms{}, false
	}
	return m.Keys[i], true
}

// Lookup returns the keysym keycode produces for a core event state, or 0
// (NoSymbol). Group and level selection follow XkbTranslateKeyCode.
func (m *KeyMap) Lookup(keycode uint8, state uint16) uint32 {
	ks, group, kt, ok := m.resolveType(keycode, state)
	if !ok {
		return 0
	}
	level := kt.level(uint8(state & stateModsMask))

	i := group*int(ks.Width) + level
	if level >= int(ks.Width) || i >= len(ks.Syms) {
		return 0
	}
	return ks.Syms[i]
}

// Consumes reports whether the key type that state selects for keycode
// takes every bit of mods into account. A type that ignores a level shift
// modifier has no symbol for that level.
func (m *KeyMap) Consumes(keycode uint8, state uint16, mods uint8) bool {
	_, _, kt, ok := m.resolveType(keycode, state)
	return ok && kt.ModsMask&mods == mods
}

func (m *KeyMap) resolveType(keycode uint8, state uint16) (KeySyms, int, KeyType, bool) {
	ks, ok := m.key(keycode)
	if !ok {
		return KeySyms{}, 0, KeyType{}, false
	}
	nGroups := ks.Groups()
	if nGroups == 0 || ks.Width == 0 {
		return KeySyms{}, 0, KeyType{}, false
	}
	group := effectiveGroup(int(state>>stateGroupShift)&stateGroupMask, nGroups, ks.GroupInfo)
	typeIndex := int(ks.TypeIndex[group])
	if typeIndex >= len(m.Types) {
		return KeySyms{}, 0, KeyType{}, false
	}
	return ks, group, m.Types[typeIndex], true
}

// level returns the shift level for mods: the first active entry whose
// masked mods match exactly, else level 0.
func (t KeyType) level(mods uint8) int {
	masked := mods & t.ModsMask
	for _, e := range t.Entries {
		if e.Active && masked == e.ModsMask {
			return int(e.Level)
		}
	}
	return 0
}

func effectiveGroup(group, nGroups int, groupInfo uint8) int {
	if group < nGroups {
		return group
	}
	switch groupInfo & groupRangeMask {
	case groupRedirectIntoRange:
		g := int(groupInfo>>4) & 0x3
		if g >= nGroups {
			return 0
		}
		return g
	case groupClampIntoRange:
		return nGroups - 1
	default:
		return group % nGroups
	}
}
