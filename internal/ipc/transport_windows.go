//go:build windows

package ipc

import (
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/Microsoft/go-winio"
	"golang.org/x/sys/windows"
)

const defaultPipePrefix = `\\.\pipe\nativekeymap-`

var pipeNamePattern = regexp.MustCompile(`(?i)^\\\\\.\\pipe\\nativekeymap-[a-z0-9._-]{1,128}$`)

func defaultEndpointFor(username string) string {
	return defaultPipePrefix + username
}

func validEndpoint(value string) bool {
	return pipeNamePattern.MatchString(value)
}

func listen(pipeName string) (net.Listener, error) {
	securityDescriptor, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(pipeName, &winio.PipeConfig{
		SecurityDescriptor: securityDescriptor,
		InputBufferSize:    int32(maxRequestBytes),
		OutputBufferSize:   int32(64 * 1024),
	})
}

func dial(pipeName string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(pipeName, &timeout)
}

// pipeSecurityDescriptor grants SYSTEM and the token user of this process
// full access and nobody else.
func pipeSecurityDescriptor() (string, error) {
	tokenUser, err := windows.GetCurrentProcessToken().GetTokenUser()
	if err != nil {
		return "", fmt.Errorf("resolve current user SID: %w", err)
	}
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", tokenUser.User.Sid.String()), nil
}
