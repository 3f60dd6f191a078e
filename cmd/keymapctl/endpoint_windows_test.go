//go:build windows

package main

import (
	"fmt"
	"testing"
	"time"
)

func unreachableEndpoint(*testing.T) string {
	return fmt.Sprintf(`\\.\pipe\nativekeymap-cli-test-%d`, time.Now().UnixNano())
}
