// Package wsserver streams keyboard layout snapshots to WebSocket clients.
//
// # Message protocol
//
// All frames are JSON text messages.
//
// Server to client:
//
//	{"type":"layout","layout":{...},"keymap":[...]}   on connect and on every change
//	{"type":"error","message":"..."}                  malformed client request
//
// Client to server:
//
//	{"type":"refresh"}   ask for a fresh snapshot on this connection only
package wsserver

import (
	"encoding/json"
	"fmt"

	"nativekeymap/internal/keymap"
)

const (
	typeLayout  = "layout"
	typeError   = "error"
	typeRefresh = "refresh"
)

// Snapshot is the state pushed to clients. Layout is nil when the platform
// could not report it; KeyMap is never nil on the wire.
type Snapshot struct {
	Layout *keymap.Layout
	KeyMap []keymap.Mapping
}

type layoutMsg struct {
	Type   string           `json:"type"`
	Layout *keymap.Layout   `json:"layout"`
	KeyMap []keymap.Mapping `json:"keymap"`
}

type errorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type clientMsg struct {
	Type string `json:"type"`
}

// EncodeSnapshot builds a layout frame.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	km := s.KeyMap
	if km == nil {
		km = []keymap.Mapping{}
	}
	payload, err := json.Marshal(layoutMsg{Type: typeLayout, Layout: s.Layout, KeyMap: km})
	if err != nil {
		return nil, fmt.Errorf("wsserver: encode snapshot: %w", err)
	}
	return payload, nil
}

// DecodeSnapshot parses a layout frame produced by EncodeSnapshot.
func DecodeSnapshot(frame []byte) (Snapshot, error) {
	var msg layoutMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Snapshot{}, fmt.Errorf("wsserver: decode snapshot: %w", err)
	}
	if msg.Type != typeLayout {
		return Snapshot{}, fmt.Errorf("wsserver: decode snapshot: unexpected type %q", msg.Type)
	}
	return Snapshot{Layout: msg.Layout, KeyMap: msg.KeyMap}, nil
}

func encodeError(message string) ([]byte, error) {
	return json.Marshal(errorMsg{Type: typeError, Message: message})
}

func decodeClientMessage(frame []byte) (clientMsg, error) {
	var msg clientMsg
	if err := json.Unmarshal(frame, &msg); err != nil {
		return clientMsg{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return msg, nil
}
