// Package drag tracks an in-progress manual move or resize. The hot
// path is the event pipeline asking "is this window being dragged right
// now" on every geometry event, so the active flag is a lock-free
// atomic while the detail record sits behind a mutex.
package drag

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// Kind distinguishes a positional drag from an edge resize.
type Kind int

const (
	KindMove Kind = iota
	KindResize
)

// Session describes one in-progress drag.
type Session struct {
	Window  backend.WindowID
	Kind    Kind
	Started time.Time
	Origin  geometry.Rect // frame at drag start
}

// Tracker records at most one drag at a time. A second Begin replaces
// the first; the display server never reports two simultaneous drags.
type Tracker struct {
	active  atomic.Bool
	mu      sync.Mutex
	session Session
}

// Begin records the start of a drag.
func (t *Tracker) Begin(id backend.WindowID, kind Kind, origin geometry.Rect) {
	t.mu.Lock()
	t.session = Session{Window: id, Kind: kind, Started: time.Now(), Origin: origin}
	t.mu.Unlock()
	t.active.Store(true)
}

// End clears the drag and returns the session that just finished. ok is
// false when no drag was in progress.
func (t *Tracker) End() (s Session, ok bool) {
	if !t.active.Swap(false) {
		return Session{}, false
	}
	t.mu.Lock()
	s = t.session
	t.session = Session{}
	t.mu.Unlock()
	return s, true
}

// Active reports whether any drag is in progress. Lock-free.
func (t *Tracker) Active() bool {
	return t.active.Load()
}

// Dragging reports whether the given window is the one being dragged.
func (t *Tracker) Dragging(id backend.WindowID) bool {
	if !t.active.Load() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Window == id
}

// Current returns the in-progress session, if any.
func (t *Tracker) Current() (Session, bool) {
	if !t.active.Load() {
		return Session{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session, true
}
