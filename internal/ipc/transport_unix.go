//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const socketSuffix = ".sock"

// runtimeDirFn is a test seam.
var runtimeDirFn = func() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR")); dir != "" {
		return dir
	}
	return os.TempDir()
}

func defaultEndpointFor(username string) string {
	return filepath.Join(runtimeDirFn(), "nativekeymap-"+username+socketSuffix)
}

func validEndpoint(value string) bool {
	return filepath.IsAbs(value) && strings.HasSuffix(value, socketSuffix)
}

// listen binds a unix socket readable only by the owner. A stale socket file
// left by a crashed daemon is replaced when nothing answers on it.
func listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if conn, dialErr := net.DialTimeout("unix", path, 200*time.Millisecond); dialErr == nil {
			conn.Close()
			return nil, fmt.Errorf("socket %s is in use", path)
		}
		slog.Debug("[ipc] removing stale socket", "path", path)
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

func dial(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}
