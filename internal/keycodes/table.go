// Package keycodes holds the static physical-key table shared by every
// backend: USB HID usage, Windows virtual-key code, X11 keycode and the
// symbolic DOM code exposed to callers.
//
// Table order is the enumeration order of a layout snapshot and the symbolic
// codes are a stable external vocabulary; entries are only ever appended.
package keycodes

// Entry is one row of the keycode table. A native value of 0 means the key
// has no code on that platform and is skipped when enumerating there.
type Entry struct {
	USB     uint32
	Windows uint32 // virtual-key code
	X11     uint32 // evdev scancode + 8
	Code    string
}

// Table returns the keycode table in its fixed order. The returned slice is
// shared; callers must not modify it.
func Table() []Entry { return table }

var byCode = func() map[string]Entry {
	m := make(map[string]Entry, len(table))
	for _, e := range table {
		m[e.Code] = e
	}
	return m
}()

// Lookup returns the entry with the given symbolic code.
func Lookup(code string) (Entry, bool) {
	e, ok := byCode[code]
	return e, ok
}

var table = []Entry{
	{USB: 0x070004, Windows: 0x41, X11: 38, Code: "KeyA"},
	{USB: 0x070005, Windows: 0x42, X11: 56, Code: "KeyB"},
	{USB: 0x070006, Windows: 0x43, X11: 54, Code: "KeyC"},
	{USB: 0x070007, Windows: 0x44, X11: 40, Code: "KeyD"},
	{USB: 0x070008, Windows: 0x45, X11: 26, Code: "KeyE"},
	{USB: 0x070009, Windows: 0x46, X11: 41, Code: "KeyF"},
	{USB: 0x07000a, Windows: 0x47, X11: 42, Code: "KeyG"},
	{USB: 0x07000b, Windows: 0x48, X11: 43, Code: "KeyH"},
	{USB: 0x07000c, Windows: 0x49, X11: 31, Code: "KeyI"},
	{USB: 0x07000d, Windows: 0x4a, X11: 44, Code: "KeyJ"},
	{USB: 0x07000e, Windows: 0x4b, X11: 45, Code: "KeyK"},
	{USB: 0x07000f, Windows: 0x4c, X11: 46, Code: "KeyL"},
	{USB: 0x070010, Windows: 0x4d, X11: 58, Code: "KeyM"},
	{USB: 0x070011, Windows: 0x4e, X11: 57, Code: "KeyN"},
	{USB: 0x070012, Windows: 0x4f, X11: 32, Code: "KeyO"},
	{USB: 0x070013, Windows: 0x50, X11: 33, Code: "KeyP"},
	{USB: 0x070014, Windows: 0x51, X11: 24, Code: "KeyQ"},
	{USB: 0x070015, Windows: 0x52, X11: 27, Code: "KeyR"},
	{USB: 0x070016, Windows: 0x53, X11: 39, Code: "KeyS"},
	{USB: 0x070017, Windows: 0x54, X11: 28, Code: "KeyT"},
	{USB: 0x070018, Windows: 0x55, X11: 30, Code: "KeyU"},
	{USB: 0x070019, Windows: 0x56, X11: 55, Code: "KeyV"},
	{USB: 0x07001a, Windows: 0x57, X11: 25, Code: "KeyW"},
	{USB: 0x07001b, Windows: 0x58, X11: 53, Code: "KeyX"},
	{USB: 0x07001c, Windows: 0x59, X11: 29, Code: "KeyY"},
	{USB: 0x07001d, Windows: 0x5a, X11: 52, Code: "KeyZ"},
	{USB: 0x07001e, Windows: 0x31, X11: 10, Code: "Digit1"},
	{USB: 0x07001f, Windows: 0x32, X11: 11, Code: "Digit2"},
	{USB: 0x070020, Windows: 0x33, X11: 12, Code: "Digit3"},
	{USB: 0x070021, Windows: 0x34, X11: 13, Code: "Digit4"},
	{USB: 0x070022, Windows: 0x35, X11: 14, Code: "Digit5"},
	{USB: 0x070023, Windows: 0x36, X11: 15, Code: "Digit6"},
	{USB: 0x070024, Windows: 0x37, X11: 16, Code: "Digit7"},
	{USB: 0x070025, Windows: 0x38, X11: 17, Code: "Digit8"},
	{USB: 0x070026, Windows: 0x39, X11: 18, Code: "Digit9"},
	{USB: 0x070027, Windows: 0x30, X11: 19, Code: "Digit0"},
	{USB: 0x070028, Windows: 0x0d, X11: 36, Code: "Enter"},
	{USB: 0x070029, Windows: 0x1b, X11: 9, Code: "Escape"},
	{USB: 0x07002a, Windows: 0x08, X11: 22, Code: "Backspace"},
	{USB: 0x07002b, Windows: 0x09, X11: 23, Code: "Tab"},
	{USB: 0x07002c, Windows: 0x20, X11: 65, Code: "Space"},
	{USB: 0x07002d, Windows: 0xbd, X11: 20, Code: "Minus"},
	{USB: 0x07002e, Windows: 0xbb, X11: 21, Code: "Equal"},
	{USB: 0x07002f, Windows: 0xdb, X11: 34, Code: "BracketLeft"},
	{USB: 0x070030, Windows: 0xdd, X11: 35, Code: "BracketRight"},
	{USB: 0x070031, Windows: 0xdc, X11: 51, Code: "Backslash"},
	// Non-US "#~" shares its evdev code with Backslash and has no distinct
	// virtual key.
	{USB: 0x070032, Windows: 0, X11: 0, Code: "IntlHash"},
	{USB: 0x070033, Windows: 0xba, X11: 47, Code: "Semicolon"},
	{USB: 0x070034, Windows: 0xde, X11: 48, Code: "Quote"},
	{USB: 0x070035, Windows: 0xc0, X11: 49, Code: "Backquote"},
	{USB: 0x070036, Windows: 0xbc, X11: 59, Code: "Comma"},
	{USB: 0x070037, Windows: 0xbe, X11: 60, Code: "Period"},
	{USB: 0x070038, Windows: 0xbf, X11: 61, Code: "Slash"},
	{USB: 0x070039, Windows: 0x14, X11: 66, Code: "CapsLock"},
	{USB: 0x07003a, Windows: 0x70, X11: 67, Code: "F1"},
	{USB: 0x07003b, Windows: 0x71, X11: 68, Code: "F2"},
	{USB: 0x07003c, Windows: 0x72, X11: 69, Code: "F3"},
	{USB: 0x07003d, Windows: 0x73, X11: 70, Code: "F4"},
	{USB: 0x07003e, Windows: 0x74, X11: 71, Code: "F5"},
	{USB: 0x07003f, Windows: 0x75, X11: 72, Code: "F6"},
	{USB: 0x070040, Windows: 0x76, X11: 73, Code: "F7"},
	{USB: 0x070041, Windows: 0x77, X11: 74, Code: "F8"},
	{USB: 0x070042, Windows: 0x78, X11: 75, Code: "F9"},
	{USB: 0x070043, Windows: 0x79, X11: 76, Code: "F10"},
	{USB: 0x070044, Windows: 0x7a, X11: 95, Code: "F11"},
	{USB: 0x070045, Windows: 0x7b, X11: 96, Code: "F12"},
	{USB: 0x070046, Windows: 0x2c, X11: 107, Code: "PrintScreen"},
	{USB: 0x070047, Windows: 0x91, X11: 78, Code: "ScrollLock"},
	{USB: 0x070048, Windows: 0x13, X11: 127, Code: "Pause"},
	{USB: 0x070049, Windows: 0x2d, X11: 118, Code: "Insert"},
	{USB: 0x07004a, Windows: 0x24, X11: 110, Code: "Home"},
	{USB: 0x07004b, Windows: 0x21, X11: 112, Code: "PageUp"},
	{USB: 0x07004c, Windows: 0x2e, X11: 119, Code: "Delete"},
	{USB: 0x07004d, Windows: 0x23, X11: 115, Code: "End"},
	{USB: 0x07004e, Windows: 0x22, X11: 117, Code: "PageDown"},
	{USB: 0x07004f, Windows: 0x27, X11: 114, Code: "ArrowRight"},
	{USB: 0x070050, Windows: 0x25, X11: 113, Code: "ArrowLeft"},
	{USB: 0x070051, Windows: 0x28, X11: 116, Code: "ArrowDown"},
	{USB: 0x070052, Windows: 0x26, X11: 111, Code: "ArrowUp"},
	{USB: 0x070053, Windows: 0x90, X11: 77, Code: "NumLock"},
	{USB: 0x070054, Windows: 0x6f, X11: 106, Code: "NumpadDivide"},
	{USB: 0x070055, Windows: 0x6a, X11: 63, Code: "NumpadMultiply"},
	{USB: 0x070056, Windows: 0x6d, X11: 82, Code: "NumpadSubtract"},
	{USB: 0x070057, Windows: 0x6b, X11: 86, Code: "NumpadAdd"},
	// NumpadEnter reports VK_RETURN with the extended bit; it has no own
	// virtual key.
	{USB: 0x070058, Windows: 0, X11: 104, Code: "NumpadEnter"},
	{USB: 0x070059, Windows: 0x61, X11: 87, Code: "Numpad1"},
	{USB: 0x07005a, Windows: 0x62, X11: 88, Code: "Numpad2"},
	{USB: 0x07005b, Windows: 0x63, X11: 89, Code: "Numpad3"},
	{USB: 0x07005c, Windows: 0x64, X11: 83, Code: "Numpad4"},
	{USB: 0x07005d, Windows: 0x65, X11: 84, Code: "Numpad5"},
	{USB: 0x07005e, Windows: 0x66, X11: 85, Code: "Numpad6"},
	{USB: 0x07005f, Windows: 0x67, X11: 79, Code: "Numpad7"},
	{USB: 0x070060, Windows: 0x68, X11: 80, Code: "Numpad8"},
	{USB: 0x070061, Windows: 0x69, X11: 81, Code: "Numpad9"},
	{USB: 0x070062, Windows: 0x60, X11: 90, Code: "Numpad0"},
	{USB: 0x070063, Windows: 0x6e, X11: 91, Code: "NumpadDecimal"},
	{USB: 0x070064, Windows: 0xe2, X11: 94, Code: "IntlBackslash"},
	{USB: 0x070065, Windows: 0x5d, X11: 135, Code: "ContextMenu"},
	{USB: 0x070066, Windows: 0, X11: 124, Code: "Power"},
	{USB: 0x070067, Windows: 0, X11: 125, Code: "NumpadEqual"},
	{USB: 0x070068, Windows: 0x7c, X11: 191, Code: "F13"},
	{USB: 0x070069, Windows: 0x7d, X11: 192, Code: "F14"},
	{USB: 0x07006a, Windows: 0x7e, X11: 193, Code: "F15"},
	{USB: 0x07006b, Windows: 0x7f, X11: 194, Code: "F16"},
	{USB: 0x07006c, Windows: 0x80, X11: 195, Code: "F17"},
	{USB: 0x07006d, Windows: 0x81, X11: 196, Code: "F18"},
	{USB: 0x07006e, Windows: 0x82, X11: 197, Code: "F19"},
	{USB: 0x07006f, Windows: 0x83, X11: 198, Code: "F20"},
	{USB: 0x070070, Windows: 0x84, X11: 199, Code: "F21"},
	{USB: 0x070071, Windows: 0x85, X11: 200, Code: "F22"},
	{USB: 0x070072, Windows: 0x86, X11: 201, Code: "F23"},
	{USB: 0x070073, Windows: 0x87, X11: 202, Code: "F24"},
	{USB: 0x070075, Windows: 0x2f, X11: 146, Code: "Help"},
	{USB: 0x07007a, Windows: 0, X11: 139, Code: "Undo"},
	{USB: 0x07007b, Windows: 0, X11: 145, Code: "Cut"},
	{USB: 0x07007c, Windows: 0, X11: 141, Code: "Copy"},
	{USB: 0x07007d, Windows: 0, X11: 143, Code: "Paste"},
	{USB: 0x07007f, Windows: 0xad, X11: 121, Code: "AudioVolumeMute"},
	{USB: 0x070080, Windows: 0xaf, X11: 123, Code: "AudioVolumeUp"},
	{USB: 0x070081, Windows: 0xae, X11: 122, Code: "AudioVolumeDown"},
	{USB: 0x070085, Windows: 0xc2, X11: 129, Code: "NumpadComma"},
	{USB: 0x070087, Windows: 0xc1, X11: 97, Code: "IntlRo"},
	{USB: 0x070088, Windows: 0x15, X11: 101, Code: "KanaMode"},
	{USB: 0x070089, Windows: 0, X11: 132, Code: "IntlYen"},
	{USB: 0x07008a, Windows: 0x1c, X11: 100, Code: "Convert"},
	{USB: 0x07008b, Windows: 0x1d, X11: 102, Code: "NonConvert"},
	{USB: 0x070090, Windows: 0, X11: 130, Code: "Lang1"},
	{USB: 0x070091, Windows: 0x19, X11: 131, Code: "Lang2"},
	{USB: 0x0700e0, Windows: 0xa2, X11: 37, Code: "ControlLeft"},
	{USB: 0x0700e1, Windows: 0xa0, X11: 50, Code: "ShiftLeft"},
	{USB: 0x0700e2, Windows: 0xa4, X11: 64, Code: "AltLeft"},
	{USB: 0x0700e3, Windows: 0x5b, X11: 133, Code: "MetaLeft"},
	{USB: 0x0700e4, Windows: 0xa3, X11: 105, Code: "ControlRight"},
	{USB: 0x0700e5, Windows: 0xa1, X11: 62, Code: "ShiftRight"},
	{USB: 0x0700e6, Windows: 0xa5, X11: 108, Code: "AltRight"},
	{USB: 0x0700e7, Windows: 0x5c, X11: 134, Code: "MetaRight"},
	{USB: 0x0c00b5, Windows: 0xb0, X11: 171, Code: "MediaTrackNext"},
	{USB: 0x0c00b6, Windows: 0xb1, X11: 173, Code: "MediaTrackPrevious"},
	{USB: 0x0c00b7, Windows: 0xb2, X11: 174, Code: "MediaStop"},
	{USB: 0x0c00cd, Windows: 0xb3, X11: 172, Code: "MediaPlayPause"},
	{USB: 0x0c0183, Windows: 0xb5, X11: 179, Code: "MediaSelect"},
	{USB: 0x0c018a, Windows: 0xb4, X11: 163, Code: "LaunchMail"},
	{USB: 0x0c0192, Windows: 0xb7, X11: 148, Code: "LaunchApp2"},
	{USB: 0x0c0194, Windows: 0xb6, X11: 152, Code: "LaunchApp1"},
	{USB: 0x0c0221, Windows: 0xaa, X11: 225, Code: "BrowserSearch"},
	{USB: 0x0c0223, Windows: 0xac, X11: 180, Code: "BrowserHome"},
	{USB: 0x0c0224, Windows: 0xa6, X11: 166, Code: "BrowserBack"},
	{USB: 0x0c0225, Windows: 0xa7, X11: 167, Code: "BrowserForward"},
	{USB: 0x0c0226, Windows: 0xa9, X11: 136, Code: "BrowserStop"},
	{USB: 0x0c0227, Windows: 0xa8, X11: 181, Code: "BrowserRefresh"},
	{USB: 0x0c022a, Windows: 0xab, X11: 164, Code: "BrowserFavorites"},
	{USB: 0x010082, Windows: 0x5f, X11: 150, Code: "Sleep"},
	{USB: 0x010083, Windows: 0, X11: 151, Code: "WakeUp"},
}
