package backend

import (
	"sync"

	"github.com/tidalwm/tidal/internal/geometry"
)

// Fake is an in-memory backend used by tests. It implements both Backend
// and Observer: tests add and remove windows, and the corresponding
// events appear on the observation stream.
type Fake struct {
	mu         sync.Mutex
	screens    []ScreenInfo
	windows    map[WindowID]WindowInfo
	order      []WindowID
	focused    WindowID
	events     chan Event
	closed     bool
	permission error

	// FrameLog records every SetWindowFrame call in order, for
	// asserting what the effect executor applied.
	FrameLog []FrameChange
}

// FrameChange is one recorded SetWindowFrame call.
type FrameChange struct {
	Window WindowID
	Frame  geometry.Rect
}

// NewFake creates a fake backend with a single 1920x1080 screen whose
// work frame excludes a 30px top panel.
func NewFake() *Fake {
	return &Fake{
		screens: []ScreenInfo{{
			ID:          1,
			Frame:       geometry.Rect{Width: 1920, Height: 1080},
			WorkFrame:   geometry.Rect{Y: 30, Width: 1920, Height: 1050},
			RefreshRate: 60,
		}},
		windows: make(map[WindowID]WindowInfo),
		events:  make(chan Event, 256),
	}
}

// SetScreens replaces the screen list and emits a screens-changed event.
func (f *Fake) SetScreens(screens []ScreenInfo) {
	f.mu.Lock()
	f.screens = append([]ScreenInfo(nil), screens...)
	f.mu.Unlock()
	f.emit(Event{Kind: EventScreensChanged})
}

// SetPermissionError makes CheckPermission fail with the given error.
func (f *Fake) SetPermissionError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.permission = err
}

// AddWindow registers a window and emits a window-created event.
func (f *Fake) AddWindow(info WindowInfo) {
	f.mu.Lock()
	if _, exists := f.windows[info.ID]; !exists {
		f.order = append(f.order, info.ID)
	}
	f.windows[info.ID] = info
	f.mu.Unlock()
	copied := info
	f.emit(Event{Kind: EventWindowCreated, Window: info.ID, Info: &copied})
}

// RemoveWindow deletes a window and emits a window-destroyed event.
func (f *Fake) RemoveWindow(id WindowID) {
	f.mu.Lock()
	delete(f.windows, id)
	for i, wid := range f.order {
		if wid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
	f.emit(Event{Kind: EventWindowDestroyed, Window: id})
}

// MoveWindow updates a window's frame and emits a window-moved event,
// mimicking the display server echoing the change back.
func (f *Fake) MoveWindow(id WindowID, frame geometry.Rect) {
	f.mu.Lock()
	if info, ok := f.windows[id]; ok {
		info.Frame = frame
		f.windows[id] = info
	}
	f.mu.Unlock()
	f.emit(Event{Kind: EventWindowMoved, Window: id, Frame: frame})
}

// EmitDragEnded emits a drag-ended event carrying the final frame.
func (f *Fake) EmitDragEnded(id WindowID, frame geometry.Rect) {
	f.emit(Event{Kind: EventDragEnded, Window: id, Frame: frame})
}

// MinimizeWindow emits a window-minimized event, mimicking an iconify.
func (f *Fake) MinimizeWindow(id WindowID) {
	f.emit(Event{Kind: EventWindowMinimized, Window: id})
}

// RestoreWindow emits a window-restored event, mimicking a deiconify.
func (f *Fake) RestoreWindow(id WindowID) {
	f.emit(Event{Kind: EventWindowRestored, Window: id})
}

func (f *Fake) emit(ev Event) {
	// The closed check and the send share one critical section so Close
	// cannot close the channel between them.
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.events <- ev:
	default:
		// Tests that overflow the buffer are broken; drop rather than block.
	}
}

// CheckPermission implements Backend.
func (f *Fake) CheckPermission() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.permission
}

// Screens implements Backend.
func (f *Fake) Screens() ([]ScreenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ScreenInfo(nil), f.screens...), nil
}

// Windows implements Backend.
func (f *Fake) Windows() ([]WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]WindowInfo, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.windows[id])
	}
	return out, nil
}

// WindowFrame implements Backend.
func (f *Fake) WindowFrame(id WindowID) (geometry.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.windows[id]
	if !ok {
		return geometry.Rect{}, ErrWindowGone
	}
	return info.Frame, nil
}

// SetWindowFrame implements Backend.
func (f *Fake) SetWindowFrame(id WindowID, frame geometry.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.windows[id]
	if !ok {
		return ErrWindowGone
	}
	info.Frame = frame
	f.windows[id] = info
	f.FrameLog = append(f.FrameLog, FrameChange{Window: id, Frame: frame})
	return nil
}

// Frames returns a copy of FrameLog, safe to call while other
// goroutines are still writing frames.
func (f *Fake) Frames() []FrameChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FrameChange(nil), f.FrameLog...)
}

// Focus implements Backend.
func (f *Fake) Focus(id WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[id]; !ok {
		return ErrWindowGone
	}
	f.focused = id
	return nil
}

// Minimize implements Backend.
func (f *Fake) Minimize(id WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[id]; !ok {
		return ErrWindowGone
	}
	return nil
}

// Focused returns the last window passed to Focus.
func (f *Fake) Focused() WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

// Events implements Observer.
func (f *Fake) Events() <-chan Event {
	return f.events
}

// Close implements Observer.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}
