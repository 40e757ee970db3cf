// Package poller bridges the latency between asynchronous webhook delivery
// and user feedback after checkout: it re-checks the subscription oracle on a
// fixed interval until the subscription turns active or the attempt budget is
// spent. It is a convenience, not an authority; the gate middleware remains
// the source of truth.
package poller

import (
	"context"
	"sync"
	"time"
)

// StatusCheck answers whether the watched organization is active. It is a
// fresh read per call (no caching).
type StatusCheck func(ctx context.Context) bool

// Config bounds the polling loop.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultConfig matches the post-checkout UX budget: one check every three
// seconds for about a minute.
func DefaultConfig() Config {
	return Config{
		Interval:    3 * time.Second,
		MaxAttempts: 20,
	}
}

// Watcher runs a bounded polling loop in a single goroutine. Checks never
// overlap, the activation callback fires at most once, and Stop releases the
// timer even mid-flight.
type Watcher struct {
	cfg      Config
	check    StatusCheck
	onActive func()

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	fired    bool
}

// NewWatcher builds a watcher; onActive runs exactly once when a check
// reports active.
func NewWatcher(cfg Config, check StatusCheck, onActive func()) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Watcher{
		cfg:      cfg,
		check:    check,
		onActive: onActive,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the loop: an immediate check, then one per interval until
// activation, attempt exhaustion, Stop or context cancellation. Exhaustion is
// silent; the caller keeps whatever page it is on.
func (w *Watcher) Start(ctx context.Context) {
	go w.run(ctx)
}

// Stop cancels the loop. Safe to call multiple times and after completion.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Done is closed once the loop has fully exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	attempts := 0
	for {
		if w.runCheck(ctx) {
			return
		}
		attempts++
		if attempts >= w.cfg.MaxAttempts {
			return
		}

		select {
		case <-ticker.C:
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// runCheck performs one oracle read; returns true when the loop should end
// because the subscription went active.
func (w *Watcher) runCheck(ctx context.Context) bool {
	select {
	case <-w.stop:
		return true
	case <-ctx.Done():
		return true
	default:
	}

	if !w.check(ctx) {
		return false
	}
	if !w.fired {
		w.fired = true
		if w.onActive != nil {
			w.onActive()
		}
	}
	return true
}
