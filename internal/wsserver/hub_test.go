package wsserver

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"nativekeymap/internal/keymap"
	"nativekeymap/internal/testutil"
)

const testListenAddr = "127.0.0.1:0"

func startHub(t *testing.T, snap func() Snapshot) *Hub {
	t.Helper()
	hub := NewHub(HubOptions{Addr: testListenAddr, Snapshot: snap})
	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := hub.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return hub
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(hub.URL(), nil)
	if err != nil {
		t.Fatalf("failed to dial hub: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	msgType, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", msgType)
	}
	s, err := DecodeSnapshot(frame)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	return s
}

func frenchSnapshot() Snapshot {
	return Snapshot{
		Layout: &keymap.Layout{Platform: "x11", Layout: "fr"},
		KeyMap: []keymap.Mapping{{KeyCode: "Digit1", Value: "&", WithShift: "1"}},
	}
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	hub := startHub(t, frenchSnapshot)
	conn := dialHub(t, hub)

	got := readSnapshot(t, conn)
	if got.Layout == nil || got.Layout.Layout != "fr" {
		t.Fatalf("initial snapshot layout = %+v", got.Layout)
	}
	if len(got.KeyMap) != 1 || got.KeyMap[0].Value != "&" {
		t.Fatalf("initial snapshot keymap = %+v", got.KeyMap)
	}
}

func TestHubNilSnapshotFunc(t *testing.T) {
	hub := startHub(t, nil)
	conn := dialHub(t, hub)

	got := readSnapshot(t, conn)
	if got.Layout != nil || len(got.KeyMap) != 0 {
		t.Fatalf("snapshot = %+v, want empty", got)
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := startHub(t, nil)
	a := dialHub(t, hub)
	b := dialHub(t, hub)
	readSnapshot(t, a)
	readSnapshot(t, b)
	testutil.WaitFor(t, 2*time.Second, func() bool { return hub.ClientCount() == 2 })

	hub.Broadcast(frenchSnapshot())

	for _, conn := range []*websocket.Conn{a, b} {
		got := readSnapshot(t, conn)
		if got.Layout == nil || got.Layout.Layout != "fr" {
			t.Fatalf("broadcast layout = %+v", got.Layout)
		}
	}
}

func TestHubRefreshRepliesToRequester(t *testing.T) {
	var calls atomic.Int32
	hub := startHub(t, func() Snapshot {
		calls.Add(1)
		return frenchSnapshot()
	})
	conn := dialHub(t, hub)
	readSnapshot(t, conn)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"refresh"}`)); err != nil {
		t.Fatalf("write refresh: %v", err)
	}
	readSnapshot(t, conn)
	if n := calls.Load(); n != 2 {
		t.Fatalf("snapshot calls = %d, want 2", n)
	}
}

func TestHubRejectsUnknownMessage(t *testing.T) {
	hub := startHub(t, nil)
	conn := dialHub(t, hub)
	readSnapshot(t, conn)

	for _, frame := range []string{"{", `{"type":"subscribe"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("SetReadDeadline: %v", err)
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		var msg errorMsg
		if err := json.Unmarshal(payload, &msg); err != nil || msg.Type != "error" {
			t.Fatalf("reply to %q = %s, want error frame", frame, payload)
		}
	}
}

func TestHubDropsDisconnectedClient(t *testing.T) {
	hub := startHub(t, nil)
	conn := dialHub(t, hub)
	readSnapshot(t, conn)
	testutil.WaitFor(t, 2*time.Second, func() bool { return hub.ClientCount() == 1 })

	if err := conn.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	testutil.WaitFor(t, 2*time.Second, func() bool { return hub.ClientCount() == 0 })
	hub.Broadcast(frenchSnapshot())
}

func TestHubStartTwice(t *testing.T) {
	hub := startHub(t, nil)
	if err := hub.Start(context.Background()); err == nil {
		t.Fatal("second Start() expected error")
	}
}

func TestHubStopIdempotent(t *testing.T) {
	hub := NewHub(HubOptions{Addr: testListenAddr})
	if err := hub.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := hub.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := hub.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if hub.URL() == "" {
		t.Fatal("URL() empty after Start")
	}
}
