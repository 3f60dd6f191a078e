package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	idleTimeout      = 30 * time.Second
	maxRequestBytes  = 4 * 1024
	maxResponseBytes = 1 << 20
	maxConnections   = 16
	maxAcceptBackoff = time.Second
)

var errBusy = errors.New("server busy, try again later")

// Server answers newline-delimited JSON requests on a pipe or socket. A
// connection may carry any number of requests; it is closed after
// idleTimeout without one.
type Server struct {
	endpoint string
	executor CommandExecutor

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	sem      chan struct{}
}

// NewServer constructs a Server. An empty endpoint uses DefaultEndpoint.
func NewServer(endpoint string, executor CommandExecutor) *Server {
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}
	return &Server{
		endpoint: endpoint,
		executor: executor,
		sem:      make(chan struct{}, maxConnections),
	}
}

// Endpoint returns the listen address.
func (s *Server) Endpoint() string {
	return s.endpoint
}

// Start begins listening.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("ipc server already started")
	}
	if s.executor == nil {
		return errors.New("ipc server requires an executor")
	}

	ln, err := listen(s.endpoint)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.endpoint, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.listener = ln
	s.cancel = cancel
	s.wg.Go(func() { s.acceptLoop(ctx, ln) })
	slog.Info("[ipc] server listening", "endpoint", s.endpoint)
	return nil
}

// Stop closes the listener and waits for open connections to finish their
// current request.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	if ln == nil {
		s.mu.Unlock()
		return nil
	}
	s.listener = nil
	s.cancel()
	s.mu.Unlock()

	var err error
	if closeErr := ln.Close(); closeErr != nil && !errors.Is(closeErr, net.ErrClosed) {
		err = fmt.Errorf("close ipc listener: %w", closeErr)
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			backoff = min(max(2*backoff, 10*time.Millisecond), maxAcceptBackoff)
			slog.Debug("[ipc] accept failed", "error", err, "retryIn", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		select {
		case s.sem <- struct{}{}:
		default:
			slog.Warn("[ipc] connection limit reached, rejecting client")
			writeResponse(conn, Failure(errBusy))
			conn.Close()
			continue
		}

		s.wg.Go(func() {
			defer func() { <-s.sem }()
			s.serveConn(ctx, conn)
		})
	}
}

// serveConn answers requests on conn until the client hangs up, a frame is
// malformed, the idle deadline passes or the server stops.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	reader := bufio.NewReaderSize(conn, maxRequestBytes+1)
	for {
		if err := conn.SetDeadline(time.Now().Add(idleTimeout)); err != nil {
			slog.Debug("[ipc] set deadline failed", "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		raw, err := readFrame(reader, maxRequestBytes)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				writeResponse(conn, Failure(fmt.Errorf("invalid request: %w", err)))
			}
			return
		}
		req, err := decodeRequest(raw)
		if err != nil {
			writeResponse(conn, Failure(fmt.Errorf("invalid request: %w", err)))
			return
		}
		slog.Debug("[ipc] request", "command", req.Command, "extendedLevels", req.ExtendedLevels)
		if !writeResponse(conn, s.execute(req)) {
			return
		}
	}
}

// execute shields the accept loop from a panicking executor.
func (s *Server) execute(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DEBUG-PANIC] ipc executor panicked", "command", req.Command, "panic", r)
			resp = Failure(fmt.Errorf("%s failed: internal error", req.Command))
		}
	}()
	return s.executor.Execute(req)
}

func writeResponse(conn net.Conn, resp Response) bool {
	raw, err := encodeResponse(resp)
	if err != nil {
		slog.Warn("[ipc] encode response failed", "error", err)
		raw = []byte(`{"ok":false,"error":"internal encode error"}`)
	}
	if _, err := conn.Write(append(raw, '\n')); err != nil {
		slog.Debug("[ipc] write response failed", "error", err)
		return false
	}
	return true
}

// readFrame reads one newline-terminated frame of at most maxBytes. A final
// frame without delimiter is accepted at EOF.
func readFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	case errors.Is(err, io.EOF) && len(raw) == 0:
		return nil, io.EOF
	case errors.Is(err, io.EOF):
		return raw, nil
	case err != nil:
		return nil, err
	}
	return raw, nil
}
