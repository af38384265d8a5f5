package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/drag"
)

// Events returns the raw notification stream. Start must have been
// called.
func (b *Backend) Events() <-chan backend.Event {
	return b.events
}

// Start selects events on the root window, connects the callbacks, and
// runs the X event loop on its own goroutine.
func (b *Backend) Start() error {
	if err := b.CheckPermission(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return nil
	}
	b.started = true
	b.mu.Unlock()

	// Seed the known set so existing windows do not re-announce.
	if wins, err := b.Windows(); err == nil {
		b.mu.Lock()
		for _, w := range wins {
			b.known[xproto.Window(w.ID)] = true
		}
		b.mu.Unlock()
	}

	xevent.MapNotifyFun(b.onMap).Connect(b.xu, b.root)
	xevent.UnmapNotifyFun(b.onUnmap).Connect(b.xu, b.root)
	xevent.DestroyNotifyFun(b.onDestroy).Connect(b.xu, b.root)
	xevent.ConfigureNotifyFun(b.onConfigure).Connect(b.xu, b.root)
	xevent.PropertyNotifyFun(b.onRootProperty).Connect(b.xu, b.root)

	go xevent.Main(b.xu)
	return nil
}

// Close stops the event loop and closes the stream.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	xevent.Quit(b.xu)
	b.xu.Conn().Close()
	close(b.events)
	return nil
}

func (b *Backend) emit(ev backend.Event) {
	// The send stays under the mutex so Close cannot close the channel
	// between the check and the send. The send never blocks, so holding
	// the lock here is safe.
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- ev:
	default:
		logger.Warn("event stream full, dropping", "kind", ev.Kind)
	}
}

func (b *Backend) onMap(xu *xgbutil.XUtil, ev xevent.MapNotifyEvent) {
	win := ev.Window
	b.mu.Lock()
	seen := b.known[win]
	b.known[win] = true
	b.mu.Unlock()
	if seen {
		// Mapping a known window is a deiconify: it rejoins tiling.
		b.emit(backend.Event{
			Kind:   backend.EventWindowRestored,
			Window: backend.WindowID(win),
		})
		return
	}
	if !b.isNormalWindow(win) {
		return
	}
	info, err := b.windowInfo(win)
	if err != nil {
		return
	}
	b.emit(backend.Event{
		Kind:   backend.EventWindowCreated,
		Window: info.ID,
		Info:   &info,
	})
}

func (b *Backend) onUnmap(xu *xgbutil.XUtil, ev xevent.UnmapNotifyEvent) {
	// Unmap alone is ambiguous (workspace switches unmap too); the
	// destroy notification is authoritative. Minimize travels through
	// WM_STATE, reported here as a minimized event when iconified.
	b.emit(backend.Event{
		Kind:   backend.EventWindowMinimized,
		Window: backend.WindowID(ev.Window),
	})
}

func (b *Backend) onDestroy(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
	win := ev.Window
	b.mu.Lock()
	known := b.known[win]
	delete(b.known, win)
	b.mu.Unlock()
	b.handles.Invalidate(backend.WindowID(win))
	if !known {
		return
	}
	if b.drags.Dragging(backend.WindowID(win)) {
		// The dragged window vanished; nothing to flush.
		b.drags.End()
	}
	b.emit(backend.Event{
		Kind:   backend.EventWindowDestroyed,
		Window: backend.WindowID(win),
	})
}

// onConfigure turns geometry notifications into move/resize events and
// detects manual drags: geometry changes while a pointer button is held
// open a drag session, and the first change after release closes it
// with a drag-end event.
func (b *Backend) onConfigure(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
	win := ev.Window
	b.mu.Lock()
	known := b.known[win]
	b.mu.Unlock()
	if !known {
		return
	}

	frame, err := b.frameOf(win)
	if err != nil {
		return
	}
	id := backend.WindowID(win)

	if b.pointerHeld() {
		if !b.drags.Dragging(id) {
			b.drags.Begin(id, drag.KindMove, frame)
		}
	} else if b.drags.Dragging(id) {
		b.drags.End()
		b.emit(backend.Event{Kind: backend.EventDragEnded, Window: id, Frame: frame})
		return
	}

	kind := backend.EventWindowMoved
	if int(ev.Width) != int(frame.Width) || int(ev.Height) != int(frame.Height) {
		kind = backend.EventWindowResized
	}
	b.emit(backend.Event{Kind: kind, Window: id, Frame: frame})
}

// onRootProperty watches the root properties that track focus and
// display geometry.
func (b *Backend) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	name, err := xprop.AtomName(xu, ev.Atom)
	if err != nil {
		return
	}
	switch name {
	case "_NET_ACTIVE_WINDOW":
		if win, err := ewmh.ActiveWindowGet(xu); err == nil && win != 0 {
			b.emit(backend.Event{Kind: backend.EventWindowFocused, Window: backend.WindowID(win)})
		}
	case "_NET_DESKTOP_GEOMETRY", "_NET_WORKAREA":
		b.emit(backend.Event{Kind: backend.EventScreensChanged})
	}
}

// pointerHeld reports whether any pointer button is currently down.
func (b *Backend) pointerHeld() bool {
	reply, err := xproto.QueryPointer(b.xu.Conn(), b.root).Reply()
	if err != nil {
		return false
	}
	const buttons = xproto.KeyButMaskButton1 | xproto.KeyButMaskButton2 | xproto.KeyButMaskButton3
	return reply.Mask&buttons != 0
}
