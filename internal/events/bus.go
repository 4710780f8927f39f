// Package events is an in-process publish/subscribe bus for domain events.
// Publish is called after the producing transaction has committed and returns at
// once: every listener runs on its own goroutine under a deadline, and a failing
// or panicking listener is logged and never reaches the publisher.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"
)

// DefaultListenerTimeout bounds a single listener invocation.
const DefaultListenerTimeout = 15 * time.Second

type Handler[E any] func(ctx context.Context, event E) error

type subscription[E any] struct {
	name string
	fn   Handler[E]
}

type Bus[E any] struct {
	mu      sync.RWMutex
	subs    []subscription[E]
	timeout time.Duration

	inflight sync.WaitGroup
	failed   atomic.Int64
}

func NewBus[E any]() *Bus[E] {
	return &Bus[E]{timeout: DefaultListenerTimeout}
}

// SetListenerTimeout changes the deadline given to each listener invocation.
func (b *Bus[E]) SetListenerTimeout(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeout = d
}

// Subscribe registers fn under name.
func (b *Bus[E]) Subscribe(name string, fn Handler[E]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription[E]{name: name, fn: fn})
}

// Publish starts delivery of event to every listener and returns without waiting
// for any of them.
func (b *Bus[E]) Publish(ctx context.Context, event E) {
	b.mu.RLock()
	subs := make([]subscription[E], len(b.subs))
	copy(subs, b.subs)
	timeout := b.timeout
	b.mu.RUnlock()

	// listeners must not be cut short by the caller's request finishing
	ctx = context.WithoutCancel(ctx)

	for _, s := range subs {
		b.inflight.Add(1)
		go func() {
			defer b.inflight.Done()
			lctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := deliver(lctx, s, event); err != nil {
				b.failed.Add(1)
				slog.Error("event listener failed", slog.String(logkey.TraceID, traceIdOf(ctx)),
					slog.String(logkey.Listener, s.name), slog.String(logkey.ERROR, err.Error()))
			}
		}()
	}
}

// Wait blocks until every delivery started so far has finished, or ctx is done.
func (b *Bus[E]) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Failures is the number of listener invocations that returned an error or panicked.
func (b *Bus[E]) Failures() int64 {
	return b.failed.Load()
}

func deliver[E any](ctx context.Context, s subscription[E], event E) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return s.fn(ctx, event)
}

func traceIdOf(ctx context.Context) string {
	if id, ok := ctx.Value(ctxmanage.TraceIdKey).(string); ok {
		return id
	}
	return ""
}
