package testutil

import (
	"testing"
	"time"
)

// WaitFor polls cond every 10ms and fails the test if it is still false
// after timeout.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if cond() {
			return
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			t.Fatalf("condition not met within %v", timeout)
		}
	}
}
