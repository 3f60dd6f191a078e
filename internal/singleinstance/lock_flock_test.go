//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package singleinstance

import (
	"path/filepath"
	"strings"
	"testing"
)

func testLockName(t *testing.T) string {
	return filepath.Join(t.TempDir(), "daemon.lock")
}

func assertDefaultName(t *testing.T, name string) {
	t.Helper()
	if !strings.HasSuffix(name, "nativekeymap-unit_tester.lock") {
		t.Fatalf("DefaultName = %q, want per-user lock file", name)
	}
}
