//go:build windows

package main

import "golang.org/x/sys/windows"

const cpUTF8 = 65001

// setConsoleUTF8 lets dead-key and AltGr output render in cmd.exe.
func setConsoleUTF8() {
	_ = windows.SetConsoleOutputCP(cpUTF8)
	_ = windows.SetConsoleCP(cpUTF8)
}
