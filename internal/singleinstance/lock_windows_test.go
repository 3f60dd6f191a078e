//go:build windows

package singleinstance

import (
	"fmt"
	"testing"
	"time"
)

func testLockName(t *testing.T) string {
	return fmt.Sprintf(`Global\nativekeymap-test-%d`, time.Now().UnixNano())
}

func assertDefaultName(t *testing.T, name string) {
	t.Helper()
	if name != `Global\nativekeymap-unit_tester` {
		t.Fatalf("DefaultName = %q, want %q", name, `Global\nativekeymap-unit_tester`)
	}
}
