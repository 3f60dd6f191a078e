// Package modmask defines the platform-independent modifier vocabulary used
// when probing a keyboard layout.
package modmask

import "strings"

// Mask is a set of abstract modifier flags combined with bitwise OR.
type Mask uint32

const (
	Shift Mask = 1 << iota
	Control
	Alt
	Meta
	NumLock
	Level3
	Level5
)

// None is the empty modifier set.
const None Mask = 0

// AltGr is the third-level shift as most platforms model it: Control and Alt
// held together. Backends translate this pair to their native AltGr state.
const AltGr = Control | Alt

// Has reports whether every flag in other is set in m.
func (m Mask) Has(other Mask) bool { return m&other == other }

// String returns a "+"-joined modifier list such as "Shift+Ctrl+Alt",
// or "None" for the empty set.
func (m Mask) String() string {
	if m == None {
		return "None"
	}
	var parts []string
	for _, flag := range allFlags {
		if m&flag != 0 {
			parts = append(parts, flagName(flag))
		}
	}
	return strings.Join(parts, "+")
}

var allFlags = []Mask{Shift, Control, Alt, Meta, NumLock, Level3, Level5}

func flagName(flag Mask) string {
	switch flag {
	case Shift:
		return "Shift"
	case Control:
		return "Ctrl"
	case Alt:
		return "Alt"
	case Meta:
		return "Meta"
	case NumLock:
		return "NumLock"
	case Level3:
		return "Level3"
	case Level5:
		return "Level5"
	default:
		return "Mod"
	}
}

// Query names one slot of a KeyMapping and the modifiers probed to fill it.
type Query struct {
	Slot Slot
	Mask Mask
}

// Slot identifies a field of a key mapping.
type Slot int

const (
	SlotValue Slot = iota
	SlotShift
	SlotAltGr
	SlotShiftAltGr
	SlotLevel5
	SlotLevel3Level5
)

// StandardQueries are the four probes every backend issues per key.
var StandardQueries = []Query{
	{Slot: SlotValue, Mask: None},
	{Slot: SlotShift, Mask: Shift},
	{Slot: SlotAltGr, Mask: AltGr},
	{Slot: SlotShiftAltGr, Mask: Shift | AltGr},
}

// ExtendedQueries adds the XKB fifth-level probes used by layouts such as Neo.
var ExtendedQueries = append(append([]Query(nil), StandardQueries...),
	Query{Slot: SlotLevel5, Mask: Level5},
	Query{Slot: SlotLevel3Level5, Mask: Level3 | Level5},
)

// Queries returns the probe set for the requested design.
func Queries(extended bool) []Query {
	if extended {
		return ExtendedQueries
	}
	return StandardQueries
}
