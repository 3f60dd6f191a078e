//go:build !windows

package daemon

import (
	"os"
	"path/filepath"
	"testing"
)

func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nkd")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func endpointForTest(t *testing.T) string {
	return filepath.Join(shortDir(t), "d.sock")
}

func lockNameForTest(t *testing.T) string {
	return filepath.Join(shortDir(t), "d.lock")
}
