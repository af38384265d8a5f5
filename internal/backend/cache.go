package backend

import "sync"

// HandleCache maps window ids to resolved platform handles. It is shared
// between the animation driver and the effect executor, which read and
// write concurrently, so it is built on sync.Map rather than a mutex
// around a plain map. Entries are invalidated on window-destroyed
// notifications.
type HandleCache[H any] struct {
	entries sync.Map // WindowID -> H
}

// NewHandleCache creates an empty cache.
func NewHandleCache[H any]() *HandleCache[H] {
	return &HandleCache[H]{}
}

// Get returns the cached handle for a window, if present.
func (c *HandleCache[H]) Get(id WindowID) (H, bool) {
	v, ok := c.entries.Load(id)
	if !ok {
		var zero H
		return zero, false
	}
	return v.(H), true
}

// Put stores a resolved handle for a window.
func (c *HandleCache[H]) Put(id WindowID, handle H) {
	c.entries.Store(id, handle)
}

// Resolve returns the cached handle or resolves and caches a new one.
// Concurrent resolves for the same id may race; the first stored value
// wins, which is fine because handles for the same window are equivalent.
func (c *HandleCache[H]) Resolve(id WindowID, resolve func(WindowID) (H, error)) (H, error) {
	if h, ok := c.Get(id); ok {
		return h, nil
	}
	h, err := resolve(id)
	if err != nil {
		var zero H
		return zero, err
	}
	actual, _ := c.entries.LoadOrStore(id, h)
	return actual.(H), nil
}

// Invalidate drops the cached handle for a destroyed window.
func (c *HandleCache[H]) Invalidate(id WindowID) {
	c.entries.Delete(id)
}

// Len returns the number of cached handles. Intended for tests and
// debug logging only; the count may be stale by the time it returns.
func (c *HandleCache[H]) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
