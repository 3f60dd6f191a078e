//go:build windows

package daemon

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

var testSeq atomic.Int64

func endpointForTest(*testing.T) string {
	return fmt.Sprintf(`\\.\pipe\nativekeymap-daemon-test-%d-%d`, time.Now().UnixNano(), testSeq.Add(1))
}

func lockNameForTest(*testing.T) string {
	return fmt.Sprintf(`Local\nativekeymap-daemon-test-%d-%d`, time.Now().UnixNano(), testSeq.Add(1))
}
