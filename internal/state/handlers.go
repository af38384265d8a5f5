package state

import (
	"fmt"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
)

// handle dispatches one message. It returns whether the model changed
// (and a snapshot should be published) and the error to report to a
// command caller. Event handlers never return errors: stale references
// are absorbed as no-ops per the failure semantics.
func (a *Actor) handle(msg Message) (bool, error) {
	m := a.model
	switch msg := msg.(type) {
	case EvWindowCreated:
		return a.handleWindowCreated(msg), nil
	case EvWindowDestroyed:
		return a.handleWindowDestroyed(msg.ID), nil
	case EvWindowMoved:
		return a.handleFrameChanged(msg.ID, msg.Frame), nil
	case EvWindowResized:
		return a.handleFrameChanged(msg.ID, msg.Frame), nil
	case EvWindowFocused:
		return a.handleWindowFocused(msg.ID), nil
	case EvWindowMinimized:
		win, ok := m.windows[msg.ID]
		if !ok || win.Minimized {
			return false, nil
		}
		win.Minimized = true
		return true, nil
	case EvWindowRestored:
		win, ok := m.windows[msg.ID]
		if !ok || !win.Minimized {
			return false, nil
		}
		win.Minimized = false
		return true, nil
	case EvWindowTitleChanged:
		win, ok := m.windows[msg.ID]
		if !ok || win.Title == msg.Title {
			return false, nil
		}
		win.Title = msg.Title
		return true, nil
	case EvAppLaunched:
		// Windows arrive as separate creation events; nothing to do yet.
		return false, nil
	case EvAppTerminated:
		return a.handleAppTerminated(msg.PID), nil
	case EvScreensChanged:
		return a.handleScreensChanged(msg.Screens), nil
	case EvDragEnded:
		return a.handleDragEnded(msg.ID, msg.Frame), nil

	case CmdSwitchWorkspace:
		return a.handleSwitchWorkspace(msg.Name)
	case CmdCycleWorkspace:
		return a.handleCycleWorkspace(msg.Backward)
	case CmdBalanceWorkspace:
		ws := a.focusedWorkspace()
		if ws == nil {
			return false, ErrUnknownWorkspace
		}
		ws.Ratios = nil
		ws.MasterRatio = a.cfg.MasterRatio
		return true, nil
	case CmdSendWorkspaceToScreen:
		return a.handleSendWorkspaceToScreen(msg.Name, msg.Screen)
	case CmdSetLayout:
		ws := a.focusedWorkspace()
		if ws == nil {
			return false, ErrUnknownWorkspace
		}
		if ws.Layout == msg.Layout {
			return false, nil
		}
		ws.Layout = msg.Layout
		return true, nil
	case CmdCycleLayout:
		ws := a.focusedWorkspace()
		if ws == nil {
			return false, ErrUnknownWorkspace
		}
		ws.Layout = ws.Layout.Next()
		return true, nil
	case CmdFocusDirection:
		return a.handleFocusDirection(msg.Dir)
	case CmdFocusCycle:
		return a.handleFocusCycle(msg.Backward)
	case CmdSwapDirection:
		return a.handleSwapDirection(msg.Dir)
	case CmdResizeSplit:
		return a.handleResizeSplit(msg.Index, msg.Delta)
	case CmdApplyFloatingPreset:
		return a.handleFloatingPreset(msg.Preset)
	case CmdMoveWindowToWorkspace:
		return a.handleMoveWindowToWorkspace(msg.Window, msg.Name)
	case CmdMoveWindowToScreen:
		return a.handleMoveWindowToScreen(msg.Window, msg.Screen)
	case CmdToggleFloating:
		return a.handleToggleFloating(msg.Window)
	default:
		return false, fmt.Errorf("state: unhandled message %T", msg)
	}
}

func (a *Actor) handleWindowCreated(msg EvWindowCreated) bool {
	m := a.model
	info := msg.Info
	if _, exists := m.windows[info.ID]; exists {
		return false
	}
	if a.cfg.Matcher.ShouldSkip(info) {
		// Skip-listed windows stay untracked and are never touched.
		return false
	}

	fallback := ""
	if ws := a.focusedWorkspace(); ws != nil {
		fallback = ws.Name
	}
	name := a.cfg.Matcher.FindWorkspace(info, fallback)
	ws := a.getOrCreateWorkspace(name)
	if ws == nil {
		return false
	}

	m.windows[info.ID] = &Window{
		ID:        info.ID,
		PID:       info.PID,
		AppName:   info.AppName,
		BundleID:  info.BundleID,
		Title:     info.Title,
		Frame:     info.Frame,
		Workspace: ws.ID,
		MinSize:   info.MinSize,
	}
	ws.Windows = append(ws.Windows, info.ID)
	// Membership changed, so stored split ratios are stale.
	ws.Ratios = nil
	return true
}

func (a *Actor) handleWindowDestroyed(id backend.WindowID) bool {
	m := a.model
	win, ok := m.windows[id]
	if !ok {
		return false
	}
	delete(m.windows, id)
	if ws := m.workspaceByID(win.Workspace); ws != nil {
		ws.removeWindow(id)
		ws.Ratios = nil
	}
	if m.focus.Window == id {
		m.focus.Window = 0
		if ws := m.workspaceByID(win.Workspace); ws != nil {
			m.focus.Window = a.fallbackFocus(ws)
		}
	}
	return true
}

// fallbackFocus picks the window to focus when the focused one goes
// away: the last tiled member, then the last non-minimized one.
// Minimized windows never receive fallback focus.
func (a *Actor) fallbackFocus(ws *Workspace) backend.WindowID {
	if ids := a.tilable(ws); len(ids) > 0 {
		return ids[len(ids)-1]
	}
	for i := len(ws.Windows) - 1; i >= 0; i-- {
		if win, ok := a.model.windows[ws.Windows[i]]; ok && !win.Minimized {
			return win.ID
		}
	}
	return 0
}

func (a *Actor) handleFrameChanged(id backend.WindowID, frame geometry.Rect) bool {
	win, ok := a.model.windows[id]
	if !ok || win.Frame == frame {
		return false
	}
	// Windows on hidden workspaces are parked off screen by the effect
	// layer; the echoed geometry must not overwrite the logical frame
	// they restore to.
	if ws := a.model.workspaceByID(win.Workspace); ws != nil && !ws.Visible() {
		return false
	}
	win.Frame = frame
	return true
}

func (a *Actor) handleWindowFocused(id backend.WindowID) bool {
	m := a.model
	win, ok := m.windows[id]
	if !ok {
		return false
	}
	m.focus.Window = id
	if ws := m.workspaceByID(win.Workspace); ws != nil {
		m.focus.Workspace = ws.ID
		if ws.Screen != 0 {
			m.focus.Screen = ws.Screen
		}
	}
	return true
}

func (a *Actor) handleAppTerminated(pid int32) bool {
	m := a.model
	changed := false
	for id, win := range m.windows {
		if win.PID == pid {
			changed = a.handleWindowDestroyed(id) || changed
		}
	}
	return changed
}

// handleScreensChanged refreshes the screen list and keeps every screen
// showing a workspace. Workspaces whose screen disappeared become
// hidden; screens without a visible workspace get the first hidden one.
func (a *Actor) handleScreensChanged(infos []backend.ScreenInfo) bool {
	m := a.model
	m.screens = m.screens[:0]
	valid := make(map[backend.ScreenID]bool, len(infos))
	for _, info := range infos {
		valid[info.ID] = true
		m.screens = append(m.screens, Screen{
			ID:          info.ID,
			Frame:       info.Frame,
			WorkFrame:   info.WorkFrame,
			RefreshRate: info.RefreshRate,
		})
	}

	for _, ws := range m.workspaces {
		if ws.Screen != 0 && !valid[ws.Screen] {
			ws.Screen = 0
		}
	}
	for _, info := range infos {
		if a.visibleWorkspaceOn(info.ID) == nil {
			if ws := a.firstHiddenWorkspace(); ws != nil {
				ws.Screen = info.ID
			}
		}
	}

	if m.focus.Screen == 0 || !valid[m.focus.Screen] {
		if len(infos) > 0 {
			m.focus.Screen = infos[0].ID
			if ws := a.visibleWorkspaceOn(m.focus.Screen); ws != nil {
				m.focus.Workspace = ws.ID
			}
		}
	}
	return true
}

// handleDragEnded applies the final user-intended frame and, for split
// layouts, derives the workspace's new split ratios from the frames the
// drag left behind.
func (a *Actor) handleDragEnded(id backend.WindowID, frame geometry.Rect) bool {
	m := a.model
	win, ok := m.windows[id]
	if !ok {
		return false
	}
	win.Frame = frame

	ws := m.workspaceByID(win.Workspace)
	if ws == nil || win.Floating {
		return true
	}

	horizontal, splits := a.splitAxis(ws)
	if !splits {
		return true
	}
	ids := a.tilable(ws)
	if len(ids) < 2 {
		return true
	}
	frames := make([]geometry.Rect, len(ids))
	for i, wid := range ids {
		frames[i] = m.windows[wid].Frame
	}
	if ratios := layout.DeriveSplitRatios(frames, horizontal); ratios != nil {
		ws.Ratios = ratios
	}
	return true
}

func (a *Actor) handleSwitchWorkspace(name string) (bool, error) {
	m := a.model
	ws := m.workspaceByName(name)
	if ws == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownWorkspace, name)
	}
	screen := m.focus.Screen
	if screen == 0 && len(m.screens) > 0 {
		screen = m.screens[0].ID
	}
	if screen == 0 {
		return false, ErrUnknownScreen
	}
	if ws.Screen == screen && m.focus.Workspace == ws.ID {
		return false, nil
	}
	if current := a.visibleWorkspaceOn(screen); current != nil && current != ws {
		current.Screen = 0
	}
	ws.Screen = screen
	m.focus.Workspace = ws.ID
	m.focus.Screen = screen
	m.focus.Window = 0
	if ids := a.tilable(ws); len(ids) > 0 {
		m.focus.Window = ids[0]
	}
	return true, nil
}

func (a *Actor) handleCycleWorkspace(backward bool) (bool, error) {
	m := a.model
	if len(m.workspaces) == 0 {
		return false, ErrUnknownWorkspace
	}
	current := 0
	for i, ws := range m.workspaces {
		if ws.ID == m.focus.Workspace {
			current = i
			break
		}
	}
	step := 1
	if backward {
		step = len(m.workspaces) - 1
	}
	next := m.workspaces[(current+step)%len(m.workspaces)]
	return a.handleSwitchWorkspace(next.Name)
}

func (a *Actor) handleSendWorkspaceToScreen(name string, screen backend.ScreenID) (bool, error) {
	m := a.model
	ws := m.workspaceByName(name)
	if ws == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownWorkspace, name)
	}
	if m.screenByID(screen) == nil {
		return false, fmt.Errorf("%w: %d", ErrUnknownScreen, screen)
	}
	if ws.Screen == screen {
		return false, nil
	}
	if current := a.visibleWorkspaceOn(screen); current != nil {
		current.Screen = ws.Screen // swap, which may hide it
	}
	ws.Screen = screen
	return true, nil
}

func (a *Actor) handleFocusDirection(dir geometry.Direction) (bool, error) {
	origin, ws, err := a.focusedTiledWindow()
	if err != nil {
		return false, err
	}
	target := a.nearestInDirection(ws, origin.ID, dir)
	if target == 0 {
		return false, nil
	}
	return a.handleWindowFocused(target), nil
}

func (a *Actor) handleFocusCycle(backward bool) (bool, error) {
	ws := a.focusedWorkspace()
	if ws == nil {
		return false, ErrUnknownWorkspace
	}
	ids := a.tilable(ws)
	if len(ids) == 0 {
		return false, nil
	}
	current := -1
	for i, id := range ids {
		if id == a.model.focus.Window {
			current = i
			break
		}
	}
	step := 1
	if backward {
		step = len(ids) - 1
	}
	next := ids[((current+step)%len(ids)+len(ids))%len(ids)]
	return a.handleWindowFocused(next), nil
}

func (a *Actor) handleSwapDirection(dir geometry.Direction) (bool, error) {
	origin, ws, err := a.focusedTiledWindow()
	if err != nil {
		return false, err
	}
	target := a.nearestInDirection(ws, origin.ID, dir)
	if target == 0 {
		return false, nil
	}
	oi, ti := -1, -1
	for i, id := range ws.Windows {
		if id == origin.ID {
			oi = i
		}
		if id == target {
			ti = i
		}
	}
	if oi < 0 || ti < 0 {
		return false, nil
	}
	ws.Windows[oi], ws.Windows[ti] = ws.Windows[ti], ws.Windows[oi]
	return true, nil
}

func (a *Actor) handleResizeSplit(index int, delta float64) (bool, error) {
	ws := a.focusedWorkspace()
	if ws == nil {
		return false, ErrUnknownWorkspace
	}
	n := len(a.tilable(ws))
	if n < 2 {
		return false, nil
	}
	if index < 0 || index >= n-1 {
		return false, fmt.Errorf("state: split index %d out of range for %d windows", index, n)
	}
	if len(ws.Ratios) != n-1 {
		ws.Ratios = make([]float64, n-1)
		for i := range ws.Ratios {
			ws.Ratios[i] = float64(i+1) / float64(n)
		}
	}
	const minGap = 0.05
	lo := minGap
	if index > 0 {
		lo = ws.Ratios[index-1] + minGap
	}
	hi := 1 - minGap
	if index < n-2 {
		hi = ws.Ratios[index+1] - minGap
	}
	v := ws.Ratios[index] + delta
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	if v == ws.Ratios[index] {
		return false, nil
	}
	ws.Ratios[index] = v
	return true, nil
}

func (a *Actor) handleFloatingPreset(preset string) (bool, error) {
	m := a.model
	fraction, ok := a.cfg.FloatingPresets[preset]
	if !ok {
		return false, fmt.Errorf("state: unknown floating preset %q", preset)
	}
	win, ok := m.windows[m.focus.Window]
	if !ok {
		return false, ErrNoFocusedWindow
	}
	screen := m.screenByID(m.focus.Screen)
	if screen == nil {
		return false, ErrUnknownScreen
	}
	if !win.Floating {
		if _, err := a.handleToggleFloating(win.ID); err != nil {
			return false, err
		}
	}
	work := screen.WorkFrame
	win.Frame = geometry.Rect{
		X:      work.X + work.Width*fraction.X,
		Y:      work.Y + work.Height*fraction.Y,
		Width:  work.Width * fraction.Width,
		Height: work.Height * fraction.Height,
	}
	return true, nil
}

func (a *Actor) handleMoveWindowToWorkspace(id backend.WindowID, name string) (bool, error) {
	m := a.model
	if id == 0 {
		id = m.focus.Window
	}
	win, ok := m.windows[id]
	if !ok {
		return false, ErrNoFocusedWindow
	}
	target := m.workspaceByName(name)
	if target == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownWorkspace, name)
	}
	if win.Workspace == target.ID {
		return false, nil
	}
	if prev := m.workspaceByID(win.Workspace); prev != nil {
		prev.removeWindow(id)
		prev.Ratios = nil
	}
	win.Workspace = target.ID
	win.Floating = false
	target.Windows = append(target.Windows, id)
	target.Ratios = nil
	return true, nil
}

func (a *Actor) handleMoveWindowToScreen(id backend.WindowID, screen backend.ScreenID) (bool, error) {
	m := a.model
	if m.screenByID(screen) == nil {
		return false, fmt.Errorf("%w: %d", ErrUnknownScreen, screen)
	}
	ws := a.visibleWorkspaceOn(screen)
	if ws == nil {
		return false, fmt.Errorf("%w: no workspace on screen %d", ErrUnknownWorkspace, screen)
	}
	return a.handleMoveWindowToWorkspace(id, ws.Name)
}

func (a *Actor) handleToggleFloating(id backend.WindowID) (bool, error) {
	m := a.model
	if id == 0 {
		id = m.focus.Window
	}
	win, ok := m.windows[id]
	if !ok {
		return false, ErrNoFocusedWindow
	}
	win.Floating = !win.Floating
	if ws := m.workspaceByID(win.Workspace); ws != nil {
		// Membership stays put so unfloating returns the window to its
		// slot, but the ratio list is stale either way.
		ws.Ratios = nil
	}
	return true, nil
}

// --- helpers ---

func (a *Actor) focusedWorkspace() *Workspace {
	m := a.model
	if ws := m.workspaceByID(m.focus.Workspace); ws != nil {
		return ws
	}
	for _, ws := range m.workspaces {
		if ws.Visible() {
			return ws
		}
	}
	if len(m.workspaces) > 0 {
		return m.workspaces[0]
	}
	return nil
}

func (a *Actor) visibleWorkspaceOn(screen backend.ScreenID) *Workspace {
	for _, ws := range a.model.workspaces {
		if ws.Screen == screen {
			return ws
		}
	}
	return nil
}

func (a *Actor) firstHiddenWorkspace() *Workspace {
	for _, ws := range a.model.workspaces {
		if !ws.Visible() {
			return ws
		}
	}
	return nil
}

func (a *Actor) getOrCreateWorkspace(name string) *Workspace {
	if name == "" {
		return a.focusedWorkspace()
	}
	m := a.model
	if ws := m.workspaceByName(name); ws != nil {
		return ws
	}
	ws := &Workspace{
		ID:          NewWorkspaceID(),
		Name:        name,
		Layout:      a.cfg.layoutFor(name),
		MasterRatio: a.cfg.MasterRatio,
	}
	m.workspaces = append(m.workspaces, ws)
	return ws
}

// tilable returns the workspace members that participate in layout:
// tracked, not floating, not minimized, in member order.
func (a *Actor) tilable(ws *Workspace) []backend.WindowID {
	out := make([]backend.WindowID, 0, len(ws.Windows))
	for _, id := range ws.Windows {
		win, ok := a.model.windows[id]
		if !ok || win.Floating || win.Minimized {
			continue
		}
		out = append(out, id)
	}
	return out
}

func (a *Actor) focusedTiledWindow() (*Window, *Workspace, error) {
	m := a.model
	win, ok := m.windows[m.focus.Window]
	if !ok {
		return nil, nil, ErrNoFocusedWindow
	}
	ws := m.workspaceByID(win.Workspace)
	if ws == nil {
		return nil, nil, ErrUnknownWorkspace
	}
	return win, ws, nil
}

// nearestInDirection picks the closest tilable window whose center lies
// in the given direction from the origin window.
func (a *Actor) nearestInDirection(ws *Workspace, origin backend.WindowID, dir geometry.Direction) backend.WindowID {
	m := a.model
	originWin, ok := m.windows[origin]
	if !ok {
		return 0
	}
	var best backend.WindowID
	bestDist := 0.0
	for _, id := range a.tilable(ws) {
		if id == origin {
			continue
		}
		candidate := m.windows[id]
		if !geometry.IsToward(originWin.Frame, candidate.Frame, dir) {
			continue
		}
		d := geometry.Distance(originWin.Frame, candidate.Frame)
		if best == 0 || d < bestDist {
			best = id
			bestDist = d
		}
	}
	return best
}

// splitAxis reports whether the workspace's layout derives ratios from
// dragged frames, and along which axis.
func (a *Actor) splitAxis(ws *Workspace) (horizontal, splits bool) {
	switch ws.Layout {
	case layout.SplitHorizontal:
		return true, true
	case layout.SplitVertical:
		return false, true
	case layout.SplitAuto:
		if screen := a.model.screenByID(ws.Screen); screen != nil {
			return screen.WorkFrame.Width >= screen.WorkFrame.Height, true
		}
		return true, true
	default:
		return false, false
	}
}
