package effects

import (
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
	"github.com/tidalwm/tidal/internal/state"
)

// Subscriber consumes snapshots and turns each into a plan for the
// executor. It remembers what it last applied so identical snapshots
// cost nothing and only genuinely changed frames generate writes.
type Subscriber struct {
	exec *Executor
	gaps layout.Gaps

	applied   map[backend.WindowID]geometry.Rect
	prevFocus backend.WindowID
	hasPrev   bool
}

// NewSubscriber creates a subscriber applying through exec. gaps are
// the global defaults, overridable per workspace.
func NewSubscriber(exec *Executor, gaps layout.Gaps) *Subscriber {
	return &Subscriber{
		exec:    exec,
		gaps:    gaps,
		applied: make(map[backend.WindowID]geometry.Rect),
	}
}

// Run applies snapshots until the channel closes.
func (s *Subscriber) Run(snaps <-chan state.Snapshot) {
	for snap := range snaps {
		s.HandleSnapshot(snap)
	}
}

// HandleSnapshot computes and executes the plan for one snapshot.
func (s *Subscriber) HandleSnapshot(snap state.Snapshot) {
	desired, parked := s.desiredFrames(snap)

	plan := Plan{Moves: make(map[backend.WindowID]geometry.Rect)}
	for id, target := range desired {
		prev, had := s.applied[id]
		if !had || !nearlyEqual(prev, target) {
			plan.Moves[id] = target
		}
	}
	for id := range s.applied {
		if _, still := desired[id]; !still {
			delete(s.applied, id)
		}
	}
	for id, target := range plan.Moves {
		s.applied[id] = target
	}

	if snap.Focus.Window != s.prevFocus || !s.hasPrev {
		plan.FocusChanged = true
		plan.Focus = snap.Focus.Window
		s.prevFocus = snap.Focus.Window
	}
	s.hasPrev = true

	if len(plan.Moves) > 0 || plan.FocusChanged {
		// Parked windows get no border; only what the user can see does.
		visible := desired
		if len(parked) > 0 {
			visible = make(map[backend.WindowID]geometry.Rect, len(desired))
			for id, frame := range desired {
				if !parked[id] {
					visible[id] = frame
				}
			}
		}
		plan.Border = &BorderState{Focused: snap.Focus.Window, Frames: visible}
	}

	s.exec.Apply(plan)
}

// desiredFrames computes the wanted frame of every tracked window:
// layout output for tiled members of visible workspaces, the tracked
// frame for floating ones, and a parking spot past the rightmost screen
// edge for members of hidden workspaces. The second return value marks
// the parked ids.
func (s *Subscriber) desiredFrames(snap state.Snapshot) (map[backend.WindowID]geometry.Rect, map[backend.WindowID]bool) {
	desired := make(map[backend.WindowID]geometry.Rect)
	var parked map[backend.WindowID]bool
	parkX := parkingX(snap.Screens)
	for _, ws := range snap.Workspaces {
		if !ws.Visible() {
			// Size stays intact so switching back restores the window
			// with a plain move. Minimized members are already iconified
			// and need no parking.
			for _, id := range ws.Windows {
				win, tracked := snap.Windows[id]
				if !tracked || win.Minimized {
					continue
				}
				if parked == nil {
					parked = make(map[backend.WindowID]bool)
				}
				parked[id] = true
				desired[id] = geometry.Rect{
					X:      parkX,
					Y:      win.Frame.Y,
					Width:  win.Frame.Width,
					Height: win.Frame.Height,
				}
			}
			continue
		}
		screen, ok := snap.ScreenByID(ws.Screen)
		if !ok {
			logger.Warn("workspace on unknown screen", "workspace", ws.Name, "screen", ws.Screen)
			continue
		}

		gaps := s.gaps
		if ws.Gaps != nil {
			gaps = *ws.Gaps
		}

		tiled := snap.Tilable(ws)
		opts := layout.Options{
			Ratios:      ws.Ratios,
			MasterRatio: ws.MasterRatio,
			Minimums:    minimums(snap, tiled),
		}
		frames := layout.Compute(ws.Layout, tiled, screen.WorkFrame, gaps, opts)
		for id, frame := range frames {
			desired[id] = frame
		}

		// Floating members keep whatever frame the model tracks; this
		// is how preset snapping reaches the display server.
		for _, id := range ws.Windows {
			win, tracked := snap.Windows[id]
			if !tracked || !win.Floating || win.Minimized {
				continue
			}
			desired[id] = win.Frame
		}
	}
	return desired, parked
}

// parkingX is an x coordinate strictly right of every screen.
func parkingX(screens []state.Screen) float64 {
	edge := 0.0
	for _, s := range screens {
		if r := s.Frame.X + s.Frame.Width; r > edge {
			edge = r
		}
	}
	return edge + 100
}

func minimums(snap state.Snapshot, ids []backend.WindowID) map[backend.WindowID]geometry.Size {
	var out map[backend.WindowID]geometry.Size
	for _, id := range ids {
		win, ok := snap.Windows[id]
		if !ok || (win.MinSize.Width == 0 && win.MinSize.Height == 0) {
			continue
		}
		if out == nil {
			out = make(map[backend.WindowID]geometry.Size)
		}
		out[id] = win.MinSize
	}
	return out
}

// nearlyEqual tolerates sub-pixel drift so float noise never causes a
// frame write.
func nearlyEqual(a, b geometry.Rect) bool {
	const eps = 0.5
	return abs(a.X-b.X) < eps && abs(a.Y-b.Y) < eps &&
		abs(a.Width-b.Width) < eps && abs(a.Height-b.Height) < eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
