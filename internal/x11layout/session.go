package x11layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// maxRulesNamesLength bounds the property read, in 32-bit units.
const maxRulesNamesLength = 1024

// Session is one X connection with XKEYBOARD negotiated.
type Session struct {
	conn *xgb.Conn
	xkb  xkbExt
	root xproto.Window
}

// Open connects to display ("" means $DISPLAY) and initializes XKB.
func Open(display string) (*Session, error) {
	c, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("open X display %q: %w", display, err)
	}
	ext, err := initXKB(c)
	if err != nil {
		c.Close()
		return nil, err
	}
	screen := xproto.Setup(c).DefaultScreen(c)
	if screen == nil {
		c.Close()
		return nil, errors.New("X display has no default screen")
	}
	slog.Debug("[DEBUG-X11] session opened", "display", display, "xkbMajor", ext.major, "xkbFirstEvent", ext.firstEvent)
	return &Session{conn: c, xkb: ext, root: screen.Root}, nil
}

// Close releases the connection. Safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
	s.conn = nil
}

// KeyMap fetches the core keyboard's key types and symbols.
func (s *Session) KeyMap() (*KeyMap, error) {
	return s.xkb.GetMap(s.conn)
}

// State fetches the core keyboard's XKB state.
func (s *Session) State() (State, error) {
	return s.xkb.GetState(s.conn)
}

// ModifierTranslator reads the core modifier map and classifies its slots
// with the keysyms of km.
func (s *Session) ModifierTranslator(km *KeyMap) (ModifierTranslator, error) {
	reply, err := xproto.GetModifierMapping(s.conn).Reply()
	if err != nil {
		return ModifierTranslator{}, fmt.Errorf("GetModifierMapping: %w", err)
	}
	keycodes := make([]uint8, len(reply.Keycodes))
	for i, kc := range reply.Keycodes {
		keycodes[i] = uint8(kc)
	}
	return NewModifierTranslator(keycodes, int(reply.KeycodesPerModifier), func(kc uint8) uint32 {
		return km.Lookup(kc, 0)
	}), nil
}

// RulesNames reads the _XKB_RULES_NAMES root property. ok is false when the
// property is not set.
func (s *Session) RulesNames() (names RulesNames, ok bool, err error) {
	atom, err := s.internAtom(rulesNamesProperty, true)
	if err != nil {
		return RulesNames{}, false, err
	}
	if atom == xproto.AtomNone {
		return RulesNames{}, false, nil
	}
	reply, err := xproto.GetProperty(s.conn, false, s.root, atom, xproto.AtomString, 0, maxRulesNamesLength).Reply()
	if err != nil {
		return RulesNames{}, false, fmt.Errorf("read %s: %w", rulesNamesProperty, err)
	}
	if reply.Format != 8 || reply.ValueLen == 0 {
		return RulesNames{}, false, nil
	}
	return parseRulesNames(reply.Value), true, nil
}

func (s *Session) internAtom(name string, onlyIfExists bool) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(s.conn, onlyIfExists, uint16(len(name)), name).Reply()
	if err != nil {
		return xproto.AtomNone, fmt.Errorf("intern atom %s: %w", name, err)
	}
	return reply.Atom, nil
}

// Snapshot is everything one enumeration needs, read in a single session.
type Snapshot struct {
	KeyMap *KeyMap
	Mods   ModifierTranslator
	Group  int
}

// Snapshot reads the key map, the modifier map and the effective group.
func (s *Session) Snapshot() (*Snapshot, error) {
	km, err := s.KeyMap()
	if err != nil {
		return nil, err
	}
	mods, err := s.ModifierTranslator(km)
	if err != nil {
		return nil, err
	}
	st, err := s.State()
	if err != nil {
		return nil, err
	}
	return &Snapshot{KeyMap: km, Mods: mods, Group: int(st.Group)}, nil
}

// Shadow reads the watched part of the layout state.
func (s *Session) Shadow() (Shadow, error) {
	st, err := s.State()
	if err != nil {
		return Shadow{}, err
	}
	names, _, err := s.RulesNames()
	if err != nil {
		return Shadow{}, err
	}
	return shadowOf(names, int(st.Group)), nil
}
