package state

import (
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
)

// Message is anything the actor processes. Messages are handled strictly
// in arrival order; this is the ordering guarantee the rest of the
// pipeline depends on.
type Message interface{ isMessage() }

// Events carry observed facts from the OS adapters. A handler that
// references a no-longer-existing window or workspace is a no-op: the
// actor tolerates destroy racing ahead of stale geometry events.

// EvWindowCreated reports a newly observed window.
type EvWindowCreated struct{ Info backend.WindowInfo }

// EvWindowDestroyed reports a window going away.
type EvWindowDestroyed struct{ ID backend.WindowID }

// EvWindowMoved reports a window frame position change.
type EvWindowMoved struct {
	ID    backend.WindowID
	Frame geometry.Rect
}

// EvWindowResized reports a window frame size change.
type EvWindowResized struct {
	ID    backend.WindowID
	Frame geometry.Rect
}

// EvWindowFocused reports a window gaining input focus.
type EvWindowFocused struct{ ID backend.WindowID }

// EvWindowMinimized reports a window being iconified.
type EvWindowMinimized struct{ ID backend.WindowID }

// EvWindowRestored reports a previously iconified window being shown
// again; it rejoins the tilable set of its workspace.
type EvWindowRestored struct{ ID backend.WindowID }

// EvWindowTitleChanged reports a title change.
type EvWindowTitleChanged struct {
	ID    backend.WindowID
	Title string
}

// EvAppLaunched reports an application starting.
type EvAppLaunched struct{ PID int32 }

// EvAppTerminated reports an application exiting; all its windows are
// removed.
type EvAppTerminated struct{ PID int32 }

// EvScreensChanged carries the settled display configuration after the
// event processor's debounce.
type EvScreensChanged struct{ Screens []backend.ScreenInfo }

// EvDragEnded carries the final user-intended frame after a manual
// drag/resize; the actor derives new split ratios from it.
type EvDragEnded struct {
	ID    backend.WindowID
	Frame geometry.Rect
}

func (EvWindowCreated) isMessage()      {}
func (EvWindowDestroyed) isMessage()    {}
func (EvWindowMoved) isMessage()        {}
func (EvWindowResized) isMessage()      {}
func (EvWindowFocused) isMessage()      {}
func (EvWindowMinimized) isMessage()    {}
func (EvWindowRestored) isMessage()     {}
func (EvWindowTitleChanged) isMessage() {}
func (EvAppLaunched) isMessage()        {}
func (EvAppTerminated) isMessage()      {}
func (EvScreensChanged) isMessage()     {}
func (EvDragEnded) isMessage()          {}

// Commands come from the command interface. Unlike events they return an
// explicit error to the caller, e.g. for an unknown workspace name.

// CmdSwitchWorkspace shows the named workspace on the focused screen.
type CmdSwitchWorkspace struct{ Name string }

// CmdCycleWorkspace switches to the next (or previous) workspace in
// declaration order.
type CmdCycleWorkspace struct{ Backward bool }

// CmdBalanceWorkspace resets the focused workspace's split ratios to
// equal division.
type CmdBalanceWorkspace struct{}

// CmdSendWorkspaceToScreen assigns the named workspace to a screen.
type CmdSendWorkspaceToScreen struct {
	Name   string
	Screen backend.ScreenID
}

// CmdSetLayout sets the focused workspace's layout.
type CmdSetLayout struct{ Layout layout.Type }

// CmdCycleLayout advances the focused workspace to the next layout.
type CmdCycleLayout struct{}

// CmdFocusDirection focuses the nearest window in a direction.
type CmdFocusDirection struct{ Dir geometry.Direction }

// CmdFocusCycle focuses the next (or previous) window in the focused
// workspace's member order.
type CmdFocusCycle struct{ Backward bool }

// CmdSwapDirection swaps the focused window with the nearest window in a
// direction.
type CmdSwapDirection struct{ Dir geometry.Direction }

// CmdResizeSplit nudges one cumulative split point of the focused
// workspace by delta.
type CmdResizeSplit struct {
	Index int
	Delta float64
}

// CmdApplyFloatingPreset snaps the focused window to a named fractional
// rectangle, floating it first if necessary.
type CmdApplyFloatingPreset struct{ Preset string }

// CmdMoveWindowToWorkspace moves a window (the focused one when Window
// is zero) to the named workspace.
type CmdMoveWindowToWorkspace struct {
	Window backend.WindowID
	Name   string
}

// CmdMoveWindowToScreen moves a window to the workspace visible on the
// given screen.
type CmdMoveWindowToScreen struct {
	Window backend.WindowID
	Screen backend.ScreenID
}

// CmdToggleFloating toggles the floating flag of a window (the focused
// one when Window is zero).
type CmdToggleFloating struct{ Window backend.WindowID }

func (CmdSwitchWorkspace) isMessage()       {}
func (CmdCycleWorkspace) isMessage()        {}
func (CmdBalanceWorkspace) isMessage()      {}
func (CmdSendWorkspaceToScreen) isMessage() {}
func (CmdSetLayout) isMessage()             {}
func (CmdCycleLayout) isMessage()           {}
func (CmdFocusDirection) isMessage()        {}
func (CmdFocusCycle) isMessage()            {}
func (CmdSwapDirection) isMessage()         {}
func (CmdResizeSplit) isMessage()           {}
func (CmdApplyFloatingPreset) isMessage()   {}
func (CmdMoveWindowToWorkspace) isMessage() {}
func (CmdMoveWindowToScreen) isMessage()    {}
func (CmdToggleFloating) isMessage()        {}
