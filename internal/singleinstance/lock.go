// Package singleinstance keeps one keymapctl daemon per user.
package singleinstance

import (
	"errors"
	"log/slog"
	"strings"

	"nativekeymap/internal/userutil"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// Lock is a held instance lock. The operating system drops it when the
// process exits.
type Lock struct {
	name    string
	release func() error
}

// TryLock acquires name without blocking. name is a mutex name on Windows and
// a lock file path elsewhere.
func TryLock(name string) (*Lock, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("lock name is required")
	}
	release, err := acquire(name)
	if err != nil {
		return nil, err
	}
	slog.Debug("[DEBUG-DAEMON] instance lock held", "name", name)
	return &Lock{name: name, release: release}, nil
}

// Name is the name the lock was taken under.
func (l *Lock) Name() string {
	if l == nil {
		return ""
	}
	return l.name
}

// Release drops the lock. Safe on a nil receiver and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.release == nil {
		return nil
	}
	release := l.release
	l.release = nil
	return release()
}

// DefaultName is the per-user lock name for this platform.
func DefaultName() string {
	return defaultName(userutil.CurrentUsername())
}
