// Package userutil derives per-user names for pipes, sockets and locks.
package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var invalidUsernameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// lookupUserFn is a test seam.
var lookupUserFn = user.Current

// SanitizeUsername normalizes username-like values used in pipe/socket/lock names.
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidUsernameRune.ReplaceAllString(value, "_")
}

// CurrentUsername returns the sanitized login name, preferring $USERNAME
// (Windows) then $USER, then the account database.
func CurrentUsername() string {
	for _, env := range []string{"USERNAME", "USER"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return SanitizeUsername(v)
		}
	}
	if current, err := lookupUserFn(); err == nil {
		return SanitizeUsername(current.Username)
	}
	return SanitizeUsername("")
}
