// Package x11 adapts an X display to the backend interfaces: window
// enumeration and manipulation over EWMH, and a raw event stream fed by
// substructure notifications on the root window.
package x11

import (
	"os"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/drag"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "x11",
})

// SetLogLevel sets the logging level for the x11 package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Backend talks to one X display. It implements backend.Backend and
// backend.Observer.
type Backend struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	proc    *backend.ProcResolver
	drags   *drag.Tracker
	handles *backend.HandleCache[*xwindow.Window]

	events chan backend.Event

	mu      sync.Mutex
	known   map[xproto.Window]bool
	closed  bool
	started bool
}

// New connects to the display named by DISPLAY.
func New() (*Backend, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}
	return &Backend{
		xu:      xu,
		root:    xu.RootWin(),
		proc:    backend.NewProcResolver(),
		drags:   &drag.Tracker{},
		handles: backend.NewHandleCache[*xwindow.Window](),
		events:  make(chan backend.Event, 256),
		known:   make(map[xproto.Window]bool),
	}, nil
}

// window resolves the cached xwindow handle for an id; destroy
// notifications invalidate entries.
func (b *Backend) window(win xproto.Window) *xwindow.Window {
	h, _ := b.handles.Resolve(backend.WindowID(win), func(id backend.WindowID) (*xwindow.Window, error) {
		return xwindow.New(b.xu, xproto.Window(id)), nil
	})
	return h
}

// CheckPermission verifies that the root window accepts the event
// selection tiling needs. Failure means another exclusive manager holds
// the display.
func (b *Backend) CheckPermission() error {
	err := xwindow.New(b.xu, b.root).Listen(
		xproto.EventMaskSubstructureNotify | xproto.EventMaskPropertyChange,
	)
	if err != nil {
		logger.Warn("root event selection refused", "err", err)
		return backend.ErrPermissionDenied
	}
	return nil
}

// Conn exposes the underlying connection for tests and helpers.
func (b *Backend) Conn() *xgbutil.XUtil {
	return b.xu
}
