// Package flight provides at-most-one-load-per-key execution. Concurrent
// callers asking for the same key while a load is in progress wait for that
// load and share its result instead of starting their own.
package flight

import "sync"

// call is the promise for one pending key.
type call[V any] struct {
	done  chan struct{}
	value V
	dups  int
}

// Group deduplicates concurrent loads by key. The zero value is ready to use.
type Group[K comparable, V any] struct {
	mutex sync.Mutex
	calls map[K]*call[V]
}

// Do runs fn for key unless a call for key is already in flight, in which
// case it waits for that call and returns its value. shared reports whether
// the value was handed to more than one caller.
func (g *Group[K, V]) Do(key K, fn func() V) (value V, shared bool) {
	g.mutex.Lock()
	if g.calls == nil {
		g.calls = make(map[K]*call[V])
	}

	if c, ok := g.calls[key]; ok {
		c.dups++
		g.mutex.Unlock()
		<-c.done
		return c.value, true
	}

	c := &call[V]{done: make(chan struct{})}
	g.calls[key] = c
	g.mutex.Unlock()

	// The entry is removed and waiters released even if fn panics.
	defer func() {
		g.mutex.Lock()
		delete(g.calls, key)
		shared = c.dups > 0
		g.mutex.Unlock()
		close(c.done)
	}()

	c.value = fn()
	return c.value, false
}

// InFlight reports whether a call for key is currently running.
func (g *Group[K, V]) InFlight(key K) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	_, ok := g.calls[key]
	return ok
}

// Waiters returns the number of callers blocked on the in-flight call for key.
func (g *Group[K, V]) Waiters(key K) int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if c, ok := g.calls[key]; ok {
		return c.dups
	}
	return 0
}
