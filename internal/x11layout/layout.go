package x11layout

import (
	"bytes"
	"slices"
	"strings"

	"nativekeymap/internal/keymap"
)

// rulesNamesProperty is the root window property set by setxkbmap and the
// server describing how the keymap was compiled.
const rulesNamesProperty = "_XKB_RULES_NAMES"

// RulesNames is the decoded _XKB_RULES_NAMES property. Layout, Variant and
// Options keep their comma-separated per-group form.
type RulesNames struct {
	Rules   string
	Model   string
	Layout  string
	Variant string
	Options string
}

// parseRulesNames splits the NUL-separated property value. Missing trailing
// fields are left empty.
func parseRulesNames(value []byte) RulesNames {
	fields := bytes.Split(bytes.TrimRight(value, "\x00"), []byte{0})
	get := func(i int) string {
		if i < len(fields) {
			return string(fields[i])
		}
		return ""
	}
	return RulesNames{
		Rules:   get(0),
		Model:   get(1),
		Layout:  get(2),
		Variant: get(3),
		Options: get(4),
	}
}

// DescribeLayout combines the rules names with the effective group.
func DescribeLayout(names RulesNames, group int) *keymap.Layout {
	return &keymap.Layout{
		Platform: "x11",
		Rules:    names.Rules,
		Model:    names.Model,
		Layout:   names.Layout,
		Variant:  names.Variant,
		Options:  names.Options,
		Group:    group,
	}
}

// Shadow is the part of the layout state whose change is reported to
// watchers.
type Shadow struct {
	Group   int
	Layout  string
	Variant string
}

func shadowOf(names RulesNames, group int) Shadow {
	return Shadow{Group: group, Layout: names.Layout, Variant: names.Variant}
}

var (
	isoModels  = []string{"pc102", "pc105", "pc105-kp"}
	ansiModels = []string{"pc101", "pc104", "pc104alt", "pc86"}
)

// ISOFromModel guesses the physical key arrangement from an XKB model name.
// Many laptop and vendor models say nothing about the layout; those report
// ISOUnknown, as do the JIS, ABNT and NEC shapes (jp106, abnt2, pc98).
func ISOFromModel(model string) keymap.ISOState {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case m == "":
		return keymap.ISOUnknown
	case slices.Contains(isoModels, m), strings.HasSuffix(m, "iso"):
		return keymap.ISO
	case slices.Contains(ansiModels, m), strings.HasSuffix(m, "ansi"):
		return keymap.ANSI
	default:
		return keymap.ISOUnknown
	}
}
