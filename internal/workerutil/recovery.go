// Package workerutil supervises background goroutines: a worker that panics
// is logged and restarted with exponential backoff until a retry budget runs
// out.
package workerutil

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	// 10 attempts at 100ms doubling to 5s span roughly 30s.
	defaultMaxRetries = 10
)

// RecoveryOptions configures RunWithPanicRecovery. Zero numeric fields take
// the defaults (100ms, 5s, 10 attempts); nil callbacks are skipped.
// MaxRetries of 1 runs the worker once with no restart.
type RecoveryOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int

	// OnPanic runs after each recovered panic, before the backoff wait.
	// attempt is 1-based.
	OnPanic func(worker string, attempt int)
	// OnFatal runs once when the retry budget is exhausted.
	OnFatal func(worker string, maxRetries int)
	// IsShutdown stops restarts when it reports true.
	IsShutdown func() bool
}

func (opts RecoveryOptions) withDefaults() RecoveryOptions {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[DEBUG-PANIC] MaxBackoff below InitialBackoff, raising it",
			"initialBackoff", opts.InitialBackoff,
			"maxBackoff", opts.MaxBackoff,
		)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

// RunWithPanicRecovery runs fn on a new goroutine tracked by wg. fn gets ctx
// and should return when it is cancelled. A normal return ends the worker;
// a panic restarts it unless ctx is done, IsShutdown reports true or the
// retry budget is spent.
func RunWithPanicRecovery(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	opts = opts.withDefaults()
	wg.Go(func() {
		supervise(ctx, name, fn, opts)
	})
}

// runOnce reports whether fn panicked.
func runOnce(ctx context.Context, name string, fn func(ctx context.Context)) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DEBUG-PANIC] background goroutine recovered from panic",
				"worker", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			panicked = true
		}
	}()
	fn(ctx)
	return false
}

func supervise(ctx context.Context, name string, fn func(ctx context.Context), opts RecoveryOptions) {
	delay := opts.InitialBackoff

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if !runOnce(ctx, name, fn) || ctx.Err() != nil {
			return
		}
		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[DEBUG-PANIC] worker shutdown detected, stopping restart", "worker", name)
			return
		}

		slog.Warn("[DEBUG-PANIC] restarting worker after panic",
			"worker", name,
			"restartDelay", delay,
			"attempt", attempt,
		)
		if opts.OnPanic != nil {
			opts.OnPanic(name, attempt)
		}
		if attempt == opts.MaxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = nextBackoff(delay, opts.MaxBackoff)
	}

	slog.Error("[DEBUG-PANIC] worker exceeded max retries, giving up",
		"worker", name,
		"maxRetries", opts.MaxRetries,
	)
	if opts.OnFatal != nil {
		opts.OnFatal(name, opts.MaxRetries)
	}
}

// nextBackoff doubles current up to limit, guarding against overflow.
func nextBackoff(current, limit time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	next := current * 2
	if next > limit || next < current {
		return limit
	}
	return next
}
