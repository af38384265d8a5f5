// Package backend defines the capability interfaces the tiling core
// consumes to talk to a display server. The core never touches platform
// handles directly; concrete adapters (internal/x11, the test fake)
// implement these interfaces.
package backend

import (
	"errors"

	"github.com/tidalwm/tidal/internal/geometry"
)

// WindowID identifies a window belonging to another process. It is the
// platform window id and is only meaningful to the backend that issued it.
type WindowID uint32

// ScreenID identifies a physical display.
type ScreenID uint32

// WindowInfo is an immutable description of a window as reported by the
// display server.
type WindowInfo struct {
	ID       WindowID
	PID      int32
	AppName  string
	BundleID string
	Title    string
	Frame    geometry.Rect
	MinSize  geometry.Size // zero value means unconstrained
}

// ScreenInfo describes a physical display. WorkFrame is the visible
// region excluding system UI such as panels and docks.
type ScreenInfo struct {
	ID          ScreenID
	Frame       geometry.Rect
	WorkFrame   geometry.Rect
	RefreshRate float64
}

// ErrWindowGone is returned by backend operations when the window
// vanished between enumeration and use. Callers treat it as "resource
// gone": no retry, downstream state updated as destroyed.
var ErrWindowGone = errors.New("backend: window no longer exists")

// ErrPermissionDenied is returned when the backend cannot observe or
// manipulate windows because the required permission was not granted.
// It is fatal to tiling features only, never to the whole process.
var ErrPermissionDenied = errors.New("backend: permission not granted")

// Backend is the window enumeration and manipulation capability.
// Implementations must be safe for concurrent use; the animation driver
// and the effect executor call into the backend from separate goroutines.
type Backend interface {
	// CheckPermission reports whether the backend may observe and move
	// windows. Called once at startup and again on explicit retry.
	CheckPermission() error

	// Screens enumerates the current display configuration.
	Screens() ([]ScreenInfo, error)

	// Windows enumerates all manageable windows.
	Windows() ([]WindowInfo, error)

	// WindowFrame queries the window's current frame live.
	WindowFrame(id WindowID) (geometry.Rect, error)

	// SetWindowFrame moves and resizes a window.
	SetWindowFrame(id WindowID, frame geometry.Rect) error

	// Focus raises and focuses a window.
	Focus(id WindowID) error

	// Minimize iconifies a window.
	Minimize(id WindowID) error
}

// EventKind classifies observation events.
type EventKind int

const (
	// EventWindowCreated fires when a new manageable window appears.
	EventWindowCreated EventKind = iota
	// EventWindowDestroyed fires when a window goes away.
	EventWindowDestroyed
	// EventWindowFocused fires when a window gains input focus.
	EventWindowFocused
	// EventWindowMoved fires when a window's position changes.
	EventWindowMoved
	// EventWindowResized fires when a window's size changes.
	EventWindowResized
	// EventWindowMinimized fires when a window is iconified.
	EventWindowMinimized
	// EventWindowRestored fires when a previously iconified window is
	// shown again.
	EventWindowRestored
	// EventWindowTitleChanged fires when a window's title changes.
	EventWindowTitleChanged
	// EventAppLaunched fires when an application starts.
	EventAppLaunched
	// EventAppTerminated fires when an application exits.
	EventAppTerminated
	// EventScreensChanged fires on display reconfiguration. The display
	// server typically emits several of these for one physical change;
	// the event processor debounces them.
	EventScreensChanged
	// EventDragEnded fires when a user-driven move/resize completes.
	// It must never be dropped by coalescing.
	EventDragEnded
)

// String returns a short name for the event kind, used in logs.
func (k EventKind) String() string {
	switch k {
	case EventWindowCreated:
		return "window-created"
	case EventWindowDestroyed:
		return "window-destroyed"
	case EventWindowFocused:
		return "window-focused"
	case EventWindowMoved:
		return "window-moved"
	case EventWindowResized:
		return "window-resized"
	case EventWindowMinimized:
		return "window-minimized"
	case EventWindowRestored:
		return "window-restored"
	case EventWindowTitleChanged:
		return "window-title-changed"
	case EventAppLaunched:
		return "app-launched"
	case EventAppTerminated:
		return "app-terminated"
	case EventScreensChanged:
		return "screens-changed"
	case EventDragEnded:
		return "drag-ended"
	default:
		return "unknown"
	}
}

// Event is a raw observation notification from an adapter thread.
type Event struct {
	Kind   EventKind
	Window WindowID      // zero for app/screen events
	Info   *WindowInfo   // populated for creation events
	Frame  geometry.Rect // populated for move/resize events
	PID    int32         // populated for app events
}

// Observer is the observation capability: a stream of raw events. The
// channel is closed when observation stops.
type Observer interface {
	// Events returns the raw notification stream. Multiple adapter
	// goroutines may feed it; ordering across adapters is arrival order.
	Events() <-chan Event

	// Close stops observation and releases platform resources.
	Close() error
}
