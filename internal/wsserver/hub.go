package wsserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeDeadline bounds a single WebSocket write.
const writeDeadline = 5 * time.Second

// readDeadline allows ~3 missed pings before the connection is considered dead.
const readDeadline = 90 * time.Second

const pingInterval = 30 * time.Second

// maxReadMessageSize limits client frames; they are tiny refresh requests.
const maxReadMessageSize = 4 * 1024

var wsUpgrader = websocket.Upgrader{
	// The server binds to loopback; any local origin may read the layout.
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 32 * 1024,
}

// HubOptions configures the WebSocket server.
type HubOptions struct {
	// Addr is the listen address. Use "127.0.0.1:0" for an OS-assigned port.
	Addr string
	// Snapshot produces the state sent on connect and on refresh requests.
	// nil sends an empty snapshot.
	Snapshot func() Snapshot
}

// Hub fans layout snapshots out to every connected client.
//
// Lock ordering (never acquire in reverse):
//
//	client.writeMu -> Hub.mu
//
// Write failure policy: a failed write, deadline or ping drops that client
// only. The client must reconnect.
type Hub struct {
	opts HubOptions

	mu      sync.RWMutex
	clients map[string]*client

	listener net.Listener
	server   *http.Server
	url      string

	closeOnce sync.Once
}

type client struct {
	id   string
	conn *websocket.Conn
	// gorilla/websocket does not support concurrent writers.
	writeMu sync.Mutex
}

// NewHub creates a Hub. It does not listen until Start.
func NewHub(opts HubOptions) *Hub {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Hub{
		opts:    opts,
		clients: make(map[string]*client),
	}
}

// Start listens on the configured address and serves /ws. ctx becomes the
// base context of request handlers; the server is stopped with Stop.
func (h *Hub) Start(ctx context.Context) error {
	if h.server != nil {
		return errors.New("wsserver: already started")
	}

	ln, err := net.Listen("tcp", h.opts.Addr)
	if err != nil {
		return fmt.Errorf("wsserver: listen: %w", err)
	}
	h.listener = ln
	h.url = fmt.Sprintf("ws://%s/ws", ln.Addr().String())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)

	h.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := h.server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("[DEBUG-WS] server error", "error", serveErr)
		}
	}()

	slog.Info("[DEBUG-WS] server started", "url", h.url)
	return nil
}

// Stop closes every client and shuts the server down. Idempotent; a stopped
// Hub cannot be restarted.
func (h *Hub) Stop() error {
	var stopErr error
	h.closeOnce.Do(func() {
		h.mu.Lock()
		clients := h.clients
		h.clients = make(map[string]*client)
		h.mu.Unlock()

		for _, c := range clients {
			closeConn(c.conn, "hub stop")
		}

		if h.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("wsserver: shutdown: %w", err)
			}
		}
		slog.Info("[DEBUG-WS] server stopped")
	})
	return stopErr
}

// URL returns the WebSocket URL, or "" before Start.
func (h *Hub) URL() string {
	return h.url
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends s to every client. Clients whose write fails are dropped.
func (h *Hub) Broadcast(s Snapshot) {
	frame, err := EncodeSnapshot(s)
	if err != nil {
		slog.Warn("[DEBUG-WS] failed to encode snapshot", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		slog.Debug("[DEBUG-WS] broadcast skipped: no clients")
		return
	}
	for _, c := range targets {
		h.write(c, websocket.TextMessage, frame, "broadcast")
	}
}

func (h *Hub) snapshot() Snapshot {
	if h.opts.Snapshot == nil {
		return Snapshot{}
	}
	return h.opts.Snapshot()
}

func (h *Hub) sendSnapshot(c *client) bool {
	frame, err := EncodeSnapshot(h.snapshot())
	if err != nil {
		slog.Warn("[DEBUG-WS] failed to encode snapshot", "client", c.id, "error", err)
		return true
	}
	return h.write(c, websocket.TextMessage, frame, "snapshot")
}

// write sends one frame to c under its write lock. On failure c is removed
// and closed; the return value reports success.
func (h *Hub) write(c *client, msgType int, payload []byte, reason string) bool {
	c.writeMu.Lock()
	err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err == nil {
		err = c.conn.WriteMessage(msgType, payload)
		if clearErr := c.conn.SetWriteDeadline(time.Time{}); clearErr != nil {
			slog.Debug("[DEBUG-WS] clear write deadline failed (non-fatal)", "error", clearErr)
		}
	}
	c.writeMu.Unlock()

	if err != nil {
		slog.Warn("[DEBUG-WS] write failed, dropping client", "client", c.id, "reason", reason, "error", err)
		h.remove(c)
		closeConn(c.conn, reason)
		return false
	}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
}

// Double-close is harmless on gorilla connections.
func closeConn(conn *websocket.Conn, reason string) {
	if err := conn.Close(); err != nil {
		slog.Debug("[DEBUG-WS] connection close", "reason", reason, "error", err)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[DEBUG-WS] upgrade failed", "error", err)
		return
	}
	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[DEBUG-WS] SetReadDeadline failed on new connection", "error", err)
		closeConn(conn, "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	c := &client{id: uuid.NewString(), conn: conn}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	slog.Info("[DEBUG-WS] client connected", "client", c.id, "remoteAddr", conn.RemoteAddr())

	pingDone := make(chan struct{})
	go h.pingLoop(c, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] wsserver handleWS recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		close(pingDone)
		h.remove(c)
		closeConn(conn, "read pump exit")
		slog.Info("[DEBUG-WS] client disconnected", "client", c.id)
	}()

	if !h.sendSnapshot(c) {
		return
	}

	for {
		msgType, msg, readErr := conn.ReadMessage()
		if readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("[DEBUG-WS] read error", "client", c.id, "error", readErr)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if !h.handleClientMessage(c, msg) {
			return
		}
	}
}

func (h *Hub) handleClientMessage(c *client, frame []byte) bool {
	msg, err := decodeClientMessage(frame)
	if err != nil {
		slog.Debug("[DEBUG-WS] invalid JSON from client", "client", c.id, "error", err)
		return h.sendError(c, err.Error())
	}
	switch msg.Type {
	case typeRefresh:
		return h.sendSnapshot(c)
	default:
		return h.sendError(c, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

func (h *Hub) sendError(c *client, message string) bool {
	payload, err := encodeError(message)
	if err != nil {
		slog.Debug("[DEBUG-WS] failed to marshal error message", "error", err)
		return true
	}
	return h.write(c, websocket.TextMessage, payload, "error reply")
}

func (h *Hub) pingLoop(c *client, done <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] wsserver pingLoop recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			h.remove(c)
			closeConn(c.conn, "pingLoop panic recovery")
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !h.write(c, websocket.PingMessage, nil, "ping") {
				return
			}
		}
	}
}
