// Package ipc answers keyboard layout queries from other local processes.
//
// One newline-terminated JSON Request is read per connection and one
// newline-terminated JSON Response is written back. The transport is a named
// pipe restricted to the current user on Windows and a 0600 unix socket
// elsewhere.
package ipc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"nativekeymap/internal/userutil"
)

// endpointEnv overrides the default endpoint when its value is acceptable.
const endpointEnv = "NATIVEKEYMAP_PIPE"

// Commands understood by the daemon.
const (
	CmdPing          = "ping"
	CmdGetKeyMap     = "get-keymap"
	CmdCurrentLayout = "current-layout"
	CmdIsISO         = "is-iso"
)

// Commands lists every command in help order.
func Commands() []string {
	return []string{CmdGetKeyMap, CmdCurrentLayout, CmdIsISO, CmdPing}
}

// Request is a single query.
type Request struct {
	Command        string `json:"command"`
	ExtendedLevels bool   `json:"extended_levels,omitempty"`
}

// Response carries either a JSON result or an error message.
type Response struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// CommandExecutor answers one request.
type CommandExecutor interface {
	Execute(req Request) Response
}

// ExecutorFunc adapts a function to CommandExecutor.
type ExecutorFunc func(req Request) Response

func (f ExecutorFunc) Execute(req Request) Response { return f(req) }

// Success wraps v as a successful response.
func Success(v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		return Failure(fmt.Errorf("encode result: %w", err))
	}
	return Response{OK: true, Result: raw}
}

// Failure wraps err as a failed response.
func Failure(err error) Response {
	return Response{Error: err.Error()}
}

// Decode unmarshals the result into v, or returns the remote error.
func (r Response) Decode(v any) error {
	if !r.OK {
		return fmt.Errorf("remote: %s", r.Error)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// DefaultEndpoint returns the per-user pipe or socket. A value in
// $NATIVEKEYMAP_PIPE is used when it has the expected shape.
func DefaultEndpoint() string {
	if v, ok := trustedEndpointFromEnv(); ok {
		return v
	}
	return defaultEndpointFor(userutil.CurrentUsername())
}

func trustedEndpointFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv(endpointEnv))
	if value == "" {
		return "", false
	}
	if !validEndpoint(value) {
		slog.Warn("[ipc] "+endpointEnv+" rejected: value does not match allowed pattern", "value", value)
		return "", false
	}
	return value, true
}

func encodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	req.Command = strings.TrimSpace(req.Command)
	return req, nil
}

func encodeResponse(resp Response) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}
