package x11layout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// The jezek/xgb module ships no XKB bindings. This file encodes the handful of
// XKEYBOARD requests the backend needs on top of xgb's raw request API.

const xkbExtensionName = "XKEYBOARD"

// XKB request minor opcodes.
const (
	xkbUseExtension = 0
	xkbSelectEvents = 1
	xkbGetState     = 4
	xkbGetMap       = 8
)

const (
	xkbMajorVersion = 1
	xkbMinorVersion = 0

	// xkbUseCoreKbd is XkbUseCoreKbd, the device id that names the core keyboard.
	xkbUseCoreKbd = 0x0100
)

// XKB event subtypes, carried in byte 1 of every XKB event.
const (
	xkbNewKeyboardNotify = 0
	xkbMapNotify         = 1
	xkbStateNotify       = 2
)

// Event selection bits.
const (
	xkbEventNewKeyboardNotify = 1 << xkbNewKeyboardNotify
	xkbEventMapNotify         = 1 << xkbMapNotify
	xkbEventStateNotify       = 1 << xkbStateNotify
)

// Map parts.
const (
	xkbMapPartKeyTypes     = 1 << 0
	xkbMapPartKeySyms      = 1 << 1
	xkbMapPartModifierMap  = 1 << 2
	xkbGetMapRequestLength = 28
	xkbGetMapReplyHeader   = 40
)

// ErrNoXKB is returned when the X server lacks a usable XKEYBOARD extension.
var ErrNoXKB = errors.New("XKEYBOARD extension is not available")

// xkbExt records the opcodes the server assigned to XKEYBOARD.
type xkbExt struct {
	major      byte
	firstEvent byte
}

// xgb reads NewEventFuncs without locking from every connection's reader
// goroutine, so each event base is written at most once per process.
var (
	eventFuncsMu     sync.Mutex
	registeredEvents = map[byte]bool{}
	setEventFunc     = func(code int, fn xgb.NewEventFun) { xgb.NewEventFuncs[code] = fn }
)

// registerXKBEvents installs the XKB event decoder for firstEvent and reports
// whether this call did the write.
func registerXKBEvents(firstEvent byte) bool {
	eventFuncsMu.Lock()
	defer eventFuncsMu.Unlock()
	if registeredEvents[firstEvent] {
		return false
	}
	registeredEvents[firstEvent] = true
	setEventFunc(int(firstEvent), newXKBEvent)
	return true
}

// initXKB negotiates XKB 1.0 on c and registers the event decoder.
func initXKB(c *xgb.Conn) (xkbExt, error) {
	qr, err := xproto.QueryExtension(c, uint16(len(xkbExtensionName)), xkbExtensionName).Reply()
	if err != nil {
		return xkbExt{}, fmt.Errorf("query %s: %w", xkbExtensionName, err)
	}
	if !qr.Present {
		return xkbExt{}, ErrNoXKB
	}
	ext := xkbExt{major: qr.MajorOpcode, firstEvent: qr.FirstEvent}

	c.ExtLock.Lock()
	c.Extensions[xkbExtensionName] = ext.major
	c.ExtLock.Unlock()

	registerXKBEvents(ext.firstEvent)

	reply, err := ext.roundTrip(c, encodeUseExtension(ext.major))
	if err != nil {
		return xkbExt{}, fmt.Errorf("XkbUseExtension: %w", err)
	}
	if len(reply) < 2 || reply[1] == 0 {
		return xkbExt{}, fmt.Errorf("XkbUseExtension %d.%d refused: %w", xkbMajorVersion, xkbMinorVersion, ErrNoXKB)
	}
	return ext, nil
}

func (e xkbExt) roundTrip(c *xgb.Conn, req []byte) ([]byte, error) {
	cookie := c.NewCookie(true, true)
	c.NewRequest(req, cookie)
	return cookie.Reply()
}

func (e xkbExt) send(c *xgb.Conn, req []byte) error {
	cookie := c.NewCookie(true, false)
	c.NewRequest(req, cookie)
	return cookie.Check()
}

// GetMap fetches key types and key symbol maps for every keycode.
func (e xkbExt) GetMap(c *xgb.Conn) (*KeyMap, error) {
	reply, err := e.roundTrip(c, encodeGetMap(e.major))
	if err != nil {
		return nil, fmt.Errorf("XkbGetMap: %w", err)
	}
	return parseGetMapReply(reply)
}

// GetState returns the core keyboard's effective group.
func (e xkbExt) GetState(c *xgb.Conn) (State, error) {
	reply, err := e.roundTrip(c, encodeGetState(e.major))
	if err != nil {
		return State{}, fmt.Errorf("XkbGetState: %w", err)
	}
	return parseGetStateReply(reply)
}

// SelectEvents subscribes c to keyboard, map and state changes.
func (e xkbExt) SelectEvents(c *xgb.Conn) error {
	if err := e.send(c, encodeSelectEvents(e.major)); err != nil {
		return fmt.Errorf("XkbSelectEvents: %w", err)
	}
	return nil
}

func requestHeader(buf []byte, major, minor byte) {
	buf[0] = major
	buf[1] = minor
	xgb.Put16(buf[2:], uint16(len(buf)/4))
}

func encodeUseExtension(major byte) []byte {
	buf := make([]byte, 8)
	requestHeader(buf, major, xkbUseExtension)
	xgb.Put16(buf[4:], xkbMajorVersion)
	xgb.Put16(buf[6:], xkbMinorVersion)
	return buf
}

func encodeSelectEvents(major byte) []byte {
	const events = xkbEventNewKeyboardNotify | xkbEventMapNotify | xkbEventStateNotify
	const mapParts = xkbMapPartKeyTypes | xkbMapPartKeySyms | xkbMapPartModifierMap

	buf := make([]byte, 16)
	requestHeader(buf, major, xkbSelectEvents)
	xgb.Put16(buf[4:], xkbUseCoreKbd)
	xgb.Put16(buf[6:], events)    // affectWhich
	xgb.Put16(buf[8:], 0)         // clear
	xgb.Put16(buf[10:], events)   // selectAll
	xgb.Put16(buf[12:], mapParts) // affectMap
	xgb.Put16(buf[14:], mapParts) // map
	return buf
}

func encodeGetState(major byte) []byte {
	buf := make([]byte, 8)
	requestHeader(buf, major, xkbGetState)
	xgb.Put16(buf[4:], xkbUseCoreKbd)
	return buf
}

func encodeGetMap(major byte) []byte {
	buf := make([]byte, xkbGetMapRequestLength)
	requestHeader(buf, major, xkbGetMap)
	xgb.Put16(buf[4:], xkbUseCoreKbd)
	xgb.Put16(buf[6:], xkbMapPartKeyTypes|xkbMapPartKeySyms) // full
	return buf
}

// State is the subset of XkbGetState the backend consumes.
type State struct {
	Mods  uint8
	Group uint8
}

func parseGetStateReply(buf []byte) (State, error) {
	if len(buf) < 32 {
		return State{}, fmt.Errorf("XkbGetState reply too short: %d bytes", len(buf))
	}
	return State{Mods: buf[8], Group: buf[12]}, nil
}

// parseGetMapReply decodes the key types and key symbol maps sections. Other
// sections are not requested and must be absent.
func parseGetMapReply(buf []byte) (*KeyMap, error) {
	if len(buf) < xkbGetMapReplyHeader {
		return nil, fmt.Errorf("XkbGetMap reply too short: %d bytes", len(buf))
	}
	km := &KeyMap{
		MinKeycode: buf[10],
		MaxKeycode: buf[11],
	}
	present := xgb.Get16(buf[12:])
	firstType := buf[14]
	nTypes := int(buf[15])
	firstKeySym := buf[17]
	nKeySyms := int(buf[20])

	r := reader{buf: buf, off: xkbGetMapReplyHeader}
	if present&xkbMapPartKeyTypes != 0 {
		if firstType != 0 {
			return nil, fmt.Errorf("XkbGetMap: partial key types starting at %d", firstType)
		}
		km.Types = make([]KeyType, 0, nTypes)
		for i := 0; i < nTypes; i++ {
			kt, err := r.keyType()
			if err != nil {
				return nil, fmt.Errorf("key type %d: %w", i, err)
			}
			km.Types = append(km.Types, kt)
		}
	}
	if present&xkbMapPartKeySyms != 0 {
		km.FirstKeycode = firstKeySym
		km.Keys = make([]KeySyms, 0, nKeySyms)
		for i := 0; i < nKeySyms; i++ {
			ks, err := r.keySyms()
			if err != nil {
				return nil, fmt.Errorf("key syms for keycode %d: %w", int(firstKeySym)+i, err)
			}
			km.Keys = append(km.Keys, ks)
		}
	}
	return km, nil
}

// reader walks a reply body. Every method checks bounds before reading.
type reader struct {
	buf []byte
	off int
}

var errShortReply = errors.New("reply truncated")

func (r *reader) need(n int) error {
	if r.off+n > len(r.buf) {
		return errShortReply
	}
	return nil
}

func (r *reader) keyType() (KeyType, error) {
	if err := r.need(8); err != nil {
		return KeyType{}, err
	}
	b := r.buf[r.off:]
	kt := KeyType{
		ModsMask:  b[0],
		NumLevels: b[4],
	}
	nEntries := int(b[5])
	hasPreserve := b[6] != 0
	r.off += 8

	if err := r.need(8 * nEntries); err != nil {
		return KeyType{}, err
	}
	kt.Entries = make([]MapEntry, nEntries)
	for i := range kt.Entries {
		e := r.buf[r.off:]
		kt.Entries[i] = MapEntry{Active: e[0] != 0, ModsMask: e[1], Level: e[2]}
		r.off += 8
	}
	if hasPreserve {
		if err := r.need(4 * nEntries); err != nil {
			return KeyType{}, err
		}
		r.off += 4 * nEntries
	}
	return kt, nil
}

func (r *reader) keySyms() (KeySyms, error) {
	if err := r.need(8); err != nil {
		return KeySyms{}, err
	}
	b := r.buf[r.off:]
	ks := KeySyms{GroupInfo: b[4], Width: b[5]}
	copy(ks.TypeIndex[:], b[0:4])
	nSyms := int(xgb.Get16(b[6:]))
	r.off += 8

	if err := r.need(4 * nSyms); err != nil {
		return KeySyms{}, err
	}
	ks.Syms = make([]uint32, nSyms)
	for i := range ks.Syms {
		ks.Syms[i] = xgb.Get32(r.buf[r.off:])
		r.off += 4
	}
	return ks, nil
}

// XKBEvent is any event delivered under the XKEYBOARD base event code.
type XKBEvent struct {
	Subtype byte
	// Group and Changed are only meaningful for StateNotify.
	Group   uint8
	Changed uint16

	raw []byte
}

func newXKBEvent(buf []byte) xgb.Event {
	ev := XKBEvent{raw: append([]byte(nil), buf...)}
	if len(buf) < 32 {
		return ev
	}
	ev.Subtype = buf[1]
	if ev.Subtype == xkbStateNotify {
		ev.Group = buf[13]
		ev.Changed = xgb.Get16(buf[26:])
	}
	return ev
}

// Bytes implements xgb.Event.
func (e XKBEvent) Bytes() []byte { return e.raw }

// String implements xgb.Event.
func (e XKBEvent) String() string {
	switch e.Subtype {
	case xkbNewKeyboardNotify:
		return "XkbNewKeyboardNotify"
	case xkbMapNotify:
		return "XkbMapNotify"
	case xkbStateNotify:
		return fmt.Sprintf("XkbStateNotify {Group: %d, Changed: 0x%x}", e.Group, e.Changed)
	default:
		return fmt.Sprintf("XkbEvent {Subtype: %d}", e.Subtype)
	}
}
