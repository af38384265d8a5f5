package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// Windows enumerates managed client windows in EWMH client-list order,
// filtered to normal application windows.
func (b *Backend) Windows() ([]backend.WindowInfo, error) {
	clients, err := ewmh.ClientListGet(b.xu)
	if err != nil {
		return nil, err
	}
	out := make([]backend.WindowInfo, 0, len(clients))
	for _, win := range clients {
		if !b.isNormalWindow(win) {
			continue
		}
		info, err := b.windowInfo(win)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// windowInfo assembles one window's description from its X properties.
func (b *Backend) windowInfo(win xproto.Window) (backend.WindowInfo, error) {
	frame, err := b.frameOf(win)
	if err != nil {
		return backend.WindowInfo{}, backend.ErrWindowGone
	}

	info := backend.WindowInfo{
		ID:    backend.WindowID(win),
		Frame: frame,
	}

	if title, err := ewmh.WmNameGet(b.xu, win); err == nil && title != "" {
		info.Title = title
	} else if title, err := icccm.WmNameGet(b.xu, win); err == nil {
		info.Title = title
	}

	if class, err := icccm.WmClassGet(b.xu, win); err == nil {
		info.AppName = class.Class
		info.BundleID = class.Instance
	}

	if pid, err := ewmh.WmPidGet(b.xu, win); err == nil {
		info.PID = int32(pid)
		if info.AppName == "" {
			info.AppName = b.proc.AppName(info.PID)
		}
	}

	if hints, err := icccm.WmNormalHintsGet(b.xu, win); err == nil &&
		hints.Flags&icccm.SizeHintPMinSize != 0 {
		info.MinSize = geometry.Size{
			Width:  float64(hints.MinWidth),
			Height: float64(hints.MinHeight),
		}
	}

	return info, nil
}

// WindowFrame queries the live decorated frame.
func (b *Backend) WindowFrame(id backend.WindowID) (geometry.Rect, error) {
	return b.frameOf(xproto.Window(id))
}

func (b *Backend) frameOf(win xproto.Window) (geometry.Rect, error) {
	geom, err := b.window(win).DecorGeometry()
	if err != nil {
		return geometry.Rect{}, backend.ErrWindowGone
	}
	return geometry.Rect{
		X:      float64(geom.X()),
		Y:      float64(geom.Y()),
		Width:  float64(geom.Width()),
		Height: float64(geom.Height()),
	}, nil
}

// SetWindowFrame moves and resizes a window. A maximized window is
// restored first or the request would be ignored.
func (b *Backend) SetWindowFrame(id backend.WindowID, frame geometry.Rect) error {
	win := xproto.Window(id)
	b.unmaximize(win)
	err := ewmh.MoveresizeWindow(b.xu, win,
		int(frame.X), int(frame.Y), int(frame.Width), int(frame.Height))
	if err != nil {
		// Fallback for window managers without EWMH moveresize.
		b.window(win).MoveResize(
			int(frame.X), int(frame.Y), int(frame.Width), int(frame.Height))
	}
	return nil
}

func (b *Backend) unmaximize(win xproto.Window) {
	states, err := ewmh.WmStateGet(b.xu, win)
	if err != nil {
		return
	}
	for _, state := range states {
		if state == "_NET_WM_STATE_MAXIMIZED_HORZ" || state == "_NET_WM_STATE_MAXIMIZED_VERT" {
			ewmh.WmStateReq(b.xu, win, ewmh.StateRemove, state)
		}
	}
}

// Focus raises and activates a window.
func (b *Backend) Focus(id backend.WindowID) error {
	win := xproto.Window(id)
	if err := ewmh.ActiveWindowReq(b.xu, win); err != nil {
		return backend.ErrWindowGone
	}
	b.window(win).Stack(xproto.StackModeAbove)
	return nil
}

// Minimize iconifies a window via the ICCCM change-state message.
func (b *Backend) Minimize(id backend.WindowID) error {
	win := xproto.Window(id)
	if err := ewmh.ClientEvent(b.xu, win, "WM_CHANGE_STATE", icccm.StateIconic); err != nil {
		return backend.ErrWindowGone
	}
	return nil
}

// isNormalWindow filters out docks, desktops, splashes, and other
// windows tiling must leave alone.
func (b *Backend) isNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(b.xu, win)
	if err != nil {
		return true
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_TOOLTIP",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	return len(types) == 0
}
