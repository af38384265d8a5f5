// Package effects is the write side of the pipeline: it consumes state
// snapshots, recomputes layouts for every visible workspace, diffs the
// result against what was last applied, and pushes only the differences
// out to the display server.
package effects

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "effects",
})

// SetLogLevel sets the logging level for the effects package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// FrameApplier moves a window toward a target frame. The animation
// driver satisfies it; Direct satisfies it for animation-free setups.
type FrameApplier interface {
	Animate(id backend.WindowID, target geometry.Rect)
}

// FrameSetter is the backend slice Direct needs.
type FrameSetter interface {
	SetWindowFrame(id backend.WindowID, frame geometry.Rect) error
}

// Direct applies frames immediately, no animation.
type Direct struct {
	BE FrameSetter
}

// Animate implements FrameApplier by writing the target frame at once.
func (d Direct) Animate(id backend.WindowID, target geometry.Rect) {
	if err := d.BE.SetWindowFrame(id, target); err != nil {
		logger.Warn("frame write failed", "window", id, "err", err)
	}
}

// Focuser is the backend slice used to apply focus changes.
type Focuser interface {
	Focus(id backend.WindowID) error
}

// BorderState is one batched border update: every visible window frame
// plus which window carries the focused border.
type BorderState struct {
	Focused backend.WindowID
	Frames  map[backend.WindowID]geometry.Rect
}

// BorderSink receives batched border updates. At most one call happens
// per applied snapshot.
type BorderSink interface {
	Apply(BorderState)
}

// Notification summarizes what one applied snapshot changed, for UI
// event subscribers. At most one is emitted per snapshot.
type Notification struct {
	Moved        []backend.WindowID
	FocusChanged bool
	Focused      backend.WindowID
}

// Plan is the computed difference between the last applied state and a
// new snapshot.
type Plan struct {
	Moves        map[backend.WindowID]geometry.Rect
	FocusChanged bool
	Focus        backend.WindowID
	Border       *BorderState
}

func (p *Plan) empty() bool {
	return len(p.Moves) == 0 && !p.FocusChanged && p.Border == nil
}

// Executor pushes a plan out to the display server: frame moves through
// the applier, focus through the backend, and a single batched border
// update.
type Executor struct {
	Frames  FrameApplier
	Focuser Focuser
	Borders BorderSink         // optional
	Notify  func(Notification) // optional
}

// Apply carries out one plan.
func (e *Executor) Apply(plan Plan) {
	if plan.empty() {
		return
	}
	moved := make([]backend.WindowID, 0, len(plan.Moves))
	for id, target := range plan.Moves {
		e.Frames.Animate(id, target)
		moved = append(moved, id)
	}
	if plan.FocusChanged && plan.Focus != 0 && e.Focuser != nil {
		if err := e.Focuser.Focus(plan.Focus); err != nil {
			logger.Warn("focus failed", "window", plan.Focus, "err", err)
		}
	}
	if plan.Border != nil && e.Borders != nil {
		e.Borders.Apply(*plan.Border)
	}
	if e.Notify != nil {
		e.Notify(Notification{
			Moved:        moved,
			FocusChanged: plan.FocusChanged,
			Focused:      plan.Focus,
		})
	}
}
