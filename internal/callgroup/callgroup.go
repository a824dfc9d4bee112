// Package callgroup collapses concurrent calls that share a key.
//
// While a call for a key is running, later callers for the same key wait
// for it and receive its value and error instead of running their own.
// Once it returns the key is forgotten; the next call runs again.
package callgroup

import (
	"context"
	"sync"
)

// Group collapses concurrent calls by key. The zero value is ready to use.
type Group[K comparable, V any] struct {
	mu    sync.Mutex
	calls map[K]*call[V]
}

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Do runs fn unless a call for key is already in flight, in which case it
// waits for that call. shared reports whether the result came from another
// caller's run.
//
// If ctx ends first, Do returns ctx.Err(); the running fn is not interrupted
// and still delivers its result to the other waiters.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*call[V])
	}
	c, inflight := g.calls[key]
	if !inflight {
		c = &call[V]{done: make(chan struct{})}
		g.calls[key] = c
	}
	g.mu.Unlock()

	if !inflight {
		go func() {
			c.val, c.err = fn()
			close(c.done)

			g.mu.Lock()
			delete(g.calls, key)
			g.mu.Unlock()
		}()
	}

	select {
	case <-c.done:
		return c.val, inflight, c.err
	case <-ctx.Done():
		var zero V
		return zero, inflight, ctx.Err()
	}
}
