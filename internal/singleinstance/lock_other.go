//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package singleinstance

// No lock primitive is wired here; every TryLock succeeds.
func acquire(string) (func() error, error) {
	return func() error { return nil }, nil
}

func defaultName(username string) string {
	return "nativekeymap-" + username
}
