//go:build !windows

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func unreachableEndpoint(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "nkc")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "none.sock")
}
