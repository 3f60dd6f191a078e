//go:build windows

package winlayout

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procMapVirtualKeyW           = user32DLL.NewProc("MapVirtualKeyW")
	procToUnicode                = user32DLL.NewProc("ToUnicode")
	procGetForegroundWindow      = user32DLL.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessID = user32DLL.NewProc("GetWindowThreadProcessId")
	procGetKeyboardLayout        = user32DLL.NewProc("GetKeyboardLayout")
	procActivateKeyboardLayout   = user32DLL.NewProc("ActivateKeyboardLayout")
	procGetKeyboardLayoutNameW   = user32DLL.NewProc("GetKeyboardLayoutNameW")
)

// klNameLength is KL_NAMELENGTH: eight hex digits plus the terminator.
const klNameLength = 9

// User32 implements Platform with the real user32 entry points.
type User32 struct{}

// Load verifies that user32.dll and the procedures used here resolve, so
// callers get an error instead of a panic from LazyProc.Call.
func (User32) Load() error {
	if err := user32DLL.Load(); err != nil {
		return fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	for _, p := range []*windows.LazyProc{
		procMapVirtualKeyW, procToUnicode, procGetForegroundWindow,
		procGetWindowThreadProcessID, procGetKeyboardLayout,
		procActivateKeyboardLayout, procGetKeyboardLayoutNameW,
	} {
		if err := p.Find(); err != nil {
			return fmt.Errorf("user32 procedure %s: %w", p.Name, err)
		}
	}
	return nil
}

// MapVirtualKey implements Translator.
func (User32) MapVirtualKey(code, mapType uint32) uint32 {
	r, _, _ := procMapVirtualKeyW.Call(uintptr(code), uintptr(mapType))
	return uint32(r)
}

// ToUnicode implements Translator.
func (User32) ToUnicode(vk, scan uint32, state *KeyboardState, buf []uint16) int32 {
	if len(buf) == 0 {
		return 0
	}
	r, _, _ := procToUnicode.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		0,
	)
	return int32(r)
}

// ForegroundLayout implements LayoutActivator.
func (User32) ForegroundLayout() (uintptr, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return 0, errors.New("no foreground window")
	}
	tid, _, err := procGetWindowThreadProcessID.Call(hwnd, 0)
	if tid == 0 {
		return 0, callErr("GetWindowThreadProcessId", err)
	}
	hkl, _, _ := procGetKeyboardLayout.Call(tid)
	return hkl, nil
}

// ActivateLayout implements LayoutActivator.
func (User32) ActivateLayout(hkl uintptr) (uintptr, error) {
	prev, _, err := procActivateKeyboardLayout.Call(hkl, 0)
	if prev == 0 {
		return 0, callErr("ActivateKeyboardLayout", err)
	}
	return prev, nil
}

// LayoutName returns the KLID of the calling thread's active layout, e.g.
// "00000409".
func (User32) LayoutName() (string, error) {
	var buf [klNameLength]uint16
	r, _, err := procGetKeyboardLayoutNameW.Call(uintptr(unsafe.Pointer(&buf[0])))
	if r == 0 {
		return "", callErr("GetKeyboardLayoutNameW", err)
	}
	return windows.UTF16ToString(buf[:]), nil
}

func callErr(name string, err error) error {
	if err == nil || errors.Is(err, syscall.Errno(0)) {
		return fmt.Errorf("%s failed", name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
