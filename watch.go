package nativekeymap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"nativekeymap/internal/workerutil"
)

// Watcher invokes a callback whenever the active layout changes.
//
// Native notifications are coalesced: a burst of changes that arrives while
// the callback is still running produces one further call, not one per
// change. The callback runs on a dedicated goroutine and may call Stop.
type Watcher struct {
	opts Options

	mu     sync.Mutex
	active *watchSession
}

type watchSession struct {
	id      string
	pending chan struct{}
	stopped atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stop    func() error
}

// NewWatcher returns a stopped Watcher.
func NewWatcher(opts Options) *Watcher {
	return &Watcher{opts: opts}
}

// Start begins watching. A watch already running is stopped first, so at most
// one native subscription exists per Watcher.
func (w *Watcher) Start(callback func()) error {
	if callback == nil {
		return errors.New("layout watch callback is nil")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.stopLocked(); err != nil {
		slog.Warn("[DEBUG-WATCH] previous watch did not stop cleanly", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &watchSession{
		id:      uuid.NewString(),
		pending: make(chan struct{}, 1),
		cancel:  cancel,
	}
	workerutil.RunWithPanicRecovery(ctx, "layout-watch-dispatch-"+s.id, &s.wg, func(ctx context.Context) {
		s.dispatch(ctx, callback)
	}, workerutil.RecoveryOptions{IsShutdown: s.stopped.Load})

	stop, err := platform.watch(w.opts, s.signal)
	if err != nil {
		s.stopped.Store(true)
		cancel()
		s.wg.Wait()
		return fmt.Errorf("start layout watch: %w", err)
	}
	s.stop = stop
	w.active = s
	slog.Debug("[DEBUG-WATCH] layout watch started", "session", s.id)
	return nil
}

// Stop ends the watch. It is safe to call when not started and to call more
// than once. A notification still queued when Stop is called is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopLocked()
}

// Running reports whether a watch is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != nil
}

func (w *Watcher) stopLocked() error {
	s := w.active
	if s == nil {
		return nil
	}
	w.active = nil
	s.stopped.Store(true)

	err := s.stop()
	// The dispatcher is not joined here: the callback itself may be the caller.
	s.cancel()
	slog.Debug("[DEBUG-WATCH] layout watch stopped", "session", s.id)
	if err != nil {
		return fmt.Errorf("stop layout watch: %w", err)
	}
	return nil
}

// signal is called from native threads and never blocks.
func (s *watchSession) signal() {
	if s.stopped.Load() {
		return
	}
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

func (s *watchSession) dispatch(ctx context.Context, callback func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.pending:
			if s.stopped.Load() {
				return
			}
			callback()
		}
	}
}
