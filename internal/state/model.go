// Package state holds the relational model of screens, workspaces, and
// windows, and the actor that is its sole writer. Everything outside the
// actor goroutine sees only immutable snapshots.
package state

import (
	"github.com/google/uuid"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
)

// WorkspaceID identifies a workspace. IDs are generated once per process
// lifetime and stay stable; workspaces are never deleted once created.
type WorkspaceID string

// NewWorkspaceID generates a fresh workspace id.
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(uuid.NewString())
}

// Screen mirrors one physical display. Screens are refreshed wholesale
// on display reconfiguration and never persisted.
type Screen struct {
	ID          backend.ScreenID
	Frame       geometry.Rect
	WorkFrame   geometry.Rect
	RefreshRate float64
}

// Workspace is a named virtual desktop. Windows holds member window ids
// in order; a window id appears in at most one workspace at a time. A
// workspace without an assigned screen is not visible.
type Workspace struct {
	ID          WorkspaceID
	Name        string
	Screen      backend.ScreenID // zero when unassigned
	Windows     []backend.WindowID
	Layout      layout.Type
	Ratios      []float64    // cumulative split points, or per-level for dwindle
	MasterRatio float64      // zero means the layout default
	Gaps        *layout.Gaps // nil means the global config gaps
}

// Visible reports whether the workspace is shown on some screen.
func (w *Workspace) Visible() bool { return w.Screen != 0 }

func (w *Workspace) hasWindow(id backend.WindowID) bool {
	for _, wid := range w.Windows {
		if wid == id {
			return true
		}
	}
	return false
}

func (w *Workspace) removeWindow(id backend.WindowID) bool {
	for i, wid := range w.Windows {
		if wid == id {
			w.Windows = append(w.Windows[:i], w.Windows[i+1:]...)
			return true
		}
	}
	return false
}

// Window is a tracked window belonging to another process. Every tracked
// window is in exactly one workspace or explicitly floating.
type Window struct {
	ID        backend.WindowID
	PID       int32
	AppName   string
	BundleID  string
	Title     string
	Frame     geometry.Rect
	Workspace WorkspaceID // empty while floating
	Floating  bool
	Minimized bool
	MinSize   geometry.Size
	Tabbed    bool
}

// Focus is the current focus state. Zero values mean "nothing focused".
type Focus struct {
	Window    backend.WindowID
	Workspace WorkspaceID
	Screen    backend.ScreenID
}

// Snapshot is an immutable copy of the model published after each
// handled message. Subscribers never receive references into actor-owned
// state.
type Snapshot struct {
	Screens    []Screen
	Workspaces []Workspace
	Windows    map[backend.WindowID]Window
	Focus      Focus
}

// WorkspaceByID returns the workspace with the given id, if present.
func (s *Snapshot) WorkspaceByID(id WorkspaceID) (Workspace, bool) {
	for _, ws := range s.Workspaces {
		if ws.ID == id {
			return ws, true
		}
	}
	return Workspace{}, false
}

// Tilable returns the workspace members that participate in layout:
// tracked, not floating, not minimized, in member order.
func (s *Snapshot) Tilable(ws Workspace) []backend.WindowID {
	out := make([]backend.WindowID, 0, len(ws.Windows))
	for _, id := range ws.Windows {
		win, ok := s.Windows[id]
		if !ok || win.Floating || win.Minimized {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ScreenByID returns the screen with the given id, if present.
func (s *Snapshot) ScreenByID(id backend.ScreenID) (Screen, bool) {
	for _, sc := range s.Screens {
		if sc.ID == id {
			return sc, true
		}
	}
	return Screen{}, false
}

// model is the actor-private mutable state.
type model struct {
	screens    []Screen
	workspaces []*Workspace // declaration order, stable
	windows    map[backend.WindowID]*Window
	focus      Focus
}

func newModel() *model {
	return &model{windows: make(map[backend.WindowID]*Window)}
}

func (m *model) workspaceByName(name string) *Workspace {
	for _, ws := range m.workspaces {
		if ws.Name == name {
			return ws
		}
	}
	return nil
}

func (m *model) workspaceByID(id WorkspaceID) *Workspace {
	for _, ws := range m.workspaces {
		if ws.ID == id {
			return ws
		}
	}
	return nil
}

func (m *model) workspaceOf(id backend.WindowID) *Workspace {
	for _, ws := range m.workspaces {
		if ws.hasWindow(id) {
			return ws
		}
	}
	return nil
}

func (m *model) screenByID(id backend.ScreenID) *Screen {
	for i := range m.screens {
		if m.screens[i].ID == id {
			return &m.screens[i]
		}
	}
	return nil
}

// snapshot deep-copies the model for publication.
func (m *model) snapshot() Snapshot {
	snap := Snapshot{
		Screens:    append([]Screen(nil), m.screens...),
		Workspaces: make([]Workspace, 0, len(m.workspaces)),
		Windows:    make(map[backend.WindowID]Window, len(m.windows)),
		Focus:      m.focus,
	}
	for _, ws := range m.workspaces {
		copied := *ws
		copied.Windows = append([]backend.WindowID(nil), ws.Windows...)
		copied.Ratios = append([]float64(nil), ws.Ratios...)
		if ws.Gaps != nil {
			gaps := *ws.Gaps
			copied.Gaps = &gaps
		}
		snap.Workspaces = append(snap.Workspaces, copied)
	}
	for id, win := range m.windows {
		snap.Windows[id] = *win
	}
	return snap
}
