package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitDone(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not finish in time")
	}
}

// The metadata flips to active on the 3rd of 20 scheduled checks: the
// watcher must fire exactly once and perform no further checks.
func TestWatcher_ActivatesOnceAndStopsChecking(t *testing.T) {
	var checks int64
	var fired int64

	w := NewWatcher(
		Config{Interval: 5 * time.Millisecond, MaxAttempts: 20},
		func(context.Context) bool {
			return atomic.AddInt64(&checks, 1) >= 3
		},
		func() { atomic.AddInt64(&fired, 1) },
	)
	w.Start(context.Background())
	waitDone(t, w)

	if got := atomic.LoadInt64(&checks); got != 3 {
		t.Fatalf("expected exactly 3 checks, got %d", got)
	}
	if got := atomic.LoadInt64(&fired); got != 1 {
		t.Fatalf("expected exactly one activation, got %d", got)
	}
}

func TestWatcher_StopsSilentlyAfterMaxAttempts(t *testing.T) {
	var checks int64
	var fired int64

	w := NewWatcher(
		Config{Interval: time.Millisecond, MaxAttempts: 5},
		func(context.Context) bool {
			atomic.AddInt64(&checks, 1)
			return false
		},
		func() { atomic.AddInt64(&fired, 1) },
	)
	w.Start(context.Background())
	waitDone(t, w)

	if got := atomic.LoadInt64(&checks); got != 5 {
		t.Fatalf("expected 5 checks, got %d", got)
	}
	if atomic.LoadInt64(&fired) != 0 {
		t.Fatalf("activation must not fire on exhaustion")
	}
}

func TestWatcher_ImmediateActivation(t *testing.T) {
	var fired int64

	w := NewWatcher(
		Config{Interval: time.Hour, MaxAttempts: 20},
		func(context.Context) bool { return true },
		func() { atomic.AddInt64(&fired, 1) },
	)
	w.Start(context.Background())
	waitDone(t, w)

	if atomic.LoadInt64(&fired) != 1 {
		t.Fatalf("expected immediate activation")
	}
}

func TestWatcher_StopCancelsLoop(t *testing.T) {
	var fired int64

	w := NewWatcher(
		Config{Interval: time.Hour, MaxAttempts: 20},
		func(context.Context) bool { return false },
		func() { atomic.AddInt64(&fired, 1) },
	)
	w.Start(context.Background())
	w.Stop()
	waitDone(t, w)

	if atomic.LoadInt64(&fired) != 0 {
		t.Fatalf("stopped watcher must not fire")
	}
	// Stop is idempotent.
	w.Stop()
}

func TestWatcher_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w := NewWatcher(
		Config{Interval: time.Hour, MaxAttempts: 20},
		func(context.Context) bool { return false },
		nil,
	)
	w.Start(ctx)
	cancel()
	waitDone(t, w)
}
