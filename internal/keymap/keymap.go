// Package keymap defines the result types shared by the layout backends.
package keymap

import (
	"fmt"

	"nativekeymap/internal/modmask"
)

// Mapping holds the text one physical key produces under each probed
// modifier combination. Empty strings mean "produces nothing printable".
type Mapping struct {
	KeyCode          string `json:"keyCode" yaml:"key_code"`
	Value            string `json:"value" yaml:"value"`
	WithShift        string `json:"withShift" yaml:"with_shift"`
	WithAltGr        string `json:"withAltGr" yaml:"with_alt_gr"`
	WithShiftAltGr   string `json:"withShiftAltGr" yaml:"with_shift_alt_gr"`
	WithLevel5       string `json:"withLevel5,omitempty" yaml:"with_level5,omitempty"`
	WithLevel3Level5 string `json:"withLevel3Level5,omitempty" yaml:"with_level3_level5,omitempty"`
}

// Set stores value in the field named by slot.
func (m *Mapping) Set(slot modmask.Slot, value string) {
	switch slot {
	case modmask.SlotValue:
		m.Value = value
	case modmask.SlotShift:
		m.WithShift = value
	case modmask.SlotAltGr:
		m.WithAltGr = value
	case modmask.SlotShiftAltGr:
		m.WithShiftAltGr = value
	case modmask.SlotLevel5:
		m.WithLevel5 = value
	case modmask.SlotLevel3Level5:
		m.WithLevel3Level5 = value
	}
}

// IsEmpty reports whether the key produced no text under any modifier.
func (m Mapping) IsEmpty() bool {
	return m.Value == "" && m.WithShift == "" && m.WithAltGr == "" &&
		m.WithShiftAltGr == "" && m.WithLevel5 == "" && m.WithLevel3Level5 == ""
}

// Layout identifies the active keyboard layout. Windows fills Name, ID and
// Text; X11 fills Rules, Model, Layout, Variant, Options and Group.
type Layout struct {
	Platform string `json:"platform" yaml:"platform"`

	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	Rules   string `json:"rules,omitempty" yaml:"rules,omitempty"`
	Model   string `json:"model,omitempty" yaml:"model,omitempty"`
	Layout  string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
	Options string `json:"options,omitempty" yaml:"options,omitempty"`
	Group   int    `json:"group" yaml:"group"`
}

// ISOState is the answer to "is the physical keyboard ISO shaped".
type ISOState int

const (
	ISOUnknown ISOState = iota
	ISO
	ANSI
)

func (s ISOState) String() string {
	switch s {
	case ISO:
		return "iso"
	case ANSI:
		return "ansi"
	default:
		return "unknown"
	}
}

// MarshalText renders the state as its lowercase name.
func (s ISOState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (s *ISOState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "iso":
		*s = ISO
	case "ansi":
		*s = ANSI
	case "unknown", "":
		*s = ISOUnknown
	default:
		return fmt.Errorf("unknown ISO state %q", text)
	}
	return nil
}
