package animation

import (
	"sync"
	"time"

	"github.com/tidalwm/tidal/internal/backend"
)

// Phase is the per-window animation lifecycle.
type Phase int

const (
	// PhaseIdle means no animation is touching the window.
	PhaseIdle Phase = iota

	// PhaseAnimating means the driver is actively writing frames.
	PhaseAnimating

	// PhaseSettling is a short window after the last frame write during
	// which the display server may still be echoing animated geometry
	// back as move/resize notifications.
	PhaseSettling
)

// DefaultSettleDelay covers the notification latency of the display
// server after the final frame write.
const DefaultSettleDelay = 50 * time.Millisecond

// Registry tracks which windows are animating or settling so the event
// pipeline can tell self-inflicted geometry events from user ones.
type Registry struct {
	mu     sync.Mutex
	phases map[backend.WindowID]Phase
	timers map[backend.WindowID]*time.Timer
	settle time.Duration
}

// NewRegistry creates a registry with the given settle delay; zero uses
// the default.
func NewRegistry(settle time.Duration) *Registry {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Registry{
		phases: make(map[backend.WindowID]Phase),
		timers: make(map[backend.WindowID]*time.Timer),
		settle: settle,
	}
}

// Begin marks a window as actively animating. Any pending settle timer
// is cancelled: a retargeted animation restarts the lifecycle.
func (r *Registry) Begin(id backend.WindowID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	r.phases[id] = PhaseAnimating
}

// Finish moves a window from animating to settling and arms the timer
// back to idle.
func (r *Registry) Finish(id backend.WindowID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phases[id] != PhaseAnimating {
		return
	}
	r.phases[id] = PhaseSettling
	if t, ok := r.timers[id]; ok {
		t.Stop()
	}
	r.timers[id] = time.AfterFunc(r.settle, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.phases[id] == PhaseSettling {
			delete(r.phases, id)
			delete(r.timers, id)
		}
	})
}

// Forget clears all tracking for a destroyed window.
func (r *Registry) Forget(id backend.WindowID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
	delete(r.phases, id)
}

// PhaseOf returns the current phase of a window.
func (r *Registry) PhaseOf(id backend.WindowID) Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phases[id]
}

// Suppress reports whether geometry events for the window should be
// discarded. True while animating or settling.
func (r *Registry) Suppress(id backend.WindowID) bool {
	return r.PhaseOf(id) != PhaseIdle
}
