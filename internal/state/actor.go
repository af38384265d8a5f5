package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
	"github.com/tidalwm/tidal/internal/rules"
)

// ErrNotRunning is returned when a message is posted to a stopped actor.
// Callers treat it as "feature not running", not a user-visible failure.
var ErrNotRunning = errors.New("state: actor not running")

// ErrUnknownWorkspace is returned for commands naming a workspace that
// does not exist.
var ErrUnknownWorkspace = errors.New("state: unknown workspace")

// ErrUnknownScreen is returned for commands naming a screen that does
// not exist.
var ErrUnknownScreen = errors.New("state: unknown screen")

// ErrNoFocusedWindow is returned for window commands when nothing is
// focused.
var ErrNoFocusedWindow = errors.New("state: no focused window")

// Config carries the actor's construction-time dependencies. The matcher
// and presets are replaceable at runtime via Reconfigure (config hot
// reload).
type Config struct {
	// Workspaces are the workspace names to create at startup.
	Workspaces []string
	// Matcher assigns new windows to workspaces.
	Matcher *rules.Matcher
	// DefaultLayout is applied to workspaces created at startup and on
	// demand.
	DefaultLayout layout.Type
	// WorkspaceLayouts overrides DefaultLayout for the named workspaces.
	WorkspaceLayouts map[string]layout.Type
	// MasterRatio is the configured master area fraction for layouts
	// with a master window. Zero means the layout's built-in default.
	MasterRatio float64
	// FloatingPresets maps preset names to fractional rectangles of the
	// screen work frame (all fields in 0..1).
	FloatingPresets map[string]geometry.Rect
}

// layoutFor resolves the starting layout of a workspace by name.
func (c Config) layoutFor(name string) layout.Type {
	if lt, ok := c.WorkspaceLayouts[name]; ok {
		return lt
	}
	return c.DefaultLayout
}

type envelope struct {
	msg  Message
	errc chan error // nil for fire-and-forget events
}

type query func(*model)

// Actor owns the model and processes messages sequentially on its own
// goroutine. It is the sole writer of tiling state; all cross-thread
// synchronization happens via its channels.
type Actor struct {
	cfg Config

	msgs    chan envelope
	queries chan query
	notifs  chan Snapshot

	stopOnce sync.Once
	stopping chan struct{}
	done     chan struct{}

	model *model
}

// NewActor creates the actor and its initial workspaces. Run must be
// called before messages are processed.
func NewActor(cfg Config) *Actor {
	if cfg.Matcher == nil {
		cfg.Matcher, _ = rules.NewMatcher(nil, nil)
	}
	a := &Actor{
		cfg:      cfg,
		msgs:     make(chan envelope, 256),
		queries:  make(chan query, 16),
		notifs:   make(chan Snapshot, 1),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		model:    newModel(),
	}
	for _, name := range cfg.Workspaces {
		a.model.workspaces = append(a.model.workspaces, &Workspace{
			ID:          NewWorkspaceID(),
			Name:        name,
			Layout:      cfg.layoutFor(name),
			MasterRatio: cfg.MasterRatio,
		})
	}
	return a
}

// Run processes messages until Stop is called. It is intended to run on
// its own goroutine.
func (a *Actor) Run() {
	defer close(a.done)
	for {
		select {
		case <-a.stopping:
			return
		case env := <-a.msgs:
			changed, err := a.handle(env.msg)
			if env.errc != nil {
				env.errc <- err
			}
			if changed {
				a.publish()
			}
		case q := <-a.queries:
			q(a.model)
		}
	}
}

// Stop shuts the actor down. In-flight messages may be dropped; pending
// callers receive ErrNotRunning.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() { close(a.stopping) })
	<-a.done
}

// stopped reports whether Stop has been called. Checked up front so a
// buffered channel send cannot win the race against shutdown.
func (a *Actor) stopped() bool {
	select {
	case <-a.stopping:
		return true
	default:
		return false
	}
}

// Post delivers an event without waiting for it to be handled.
func (a *Actor) Post(ev Message) error {
	if a.stopped() {
		return ErrNotRunning
	}
	select {
	case <-a.stopping:
		return ErrNotRunning
	case a.msgs <- envelope{msg: ev}:
		return nil
	}
}

// Do delivers a command and waits for the handler's result.
func (a *Actor) Do(cmd Message) error {
	if a.stopped() {
		return ErrNotRunning
	}
	errc := make(chan error, 1)
	select {
	case <-a.stopping:
		return ErrNotRunning
	case a.msgs <- envelope{msg: cmd, errc: errc}:
	}
	select {
	case <-a.stopping:
		return ErrNotRunning
	case err := <-errc:
		return err
	}
}

// Notifications returns the snapshot stream. The channel always holds
// the most recent snapshot: when the subscriber lags, intermediate
// snapshots are replaced rather than queued, so the actor never blocks
// on a slow subscriber and the subscriber never misses the final state.
func (a *Actor) Notifications() <-chan Snapshot {
	return a.notifs
}

func (a *Actor) publish() {
	snap := a.model.snapshot()
	for {
		select {
		case a.notifs <- snap:
			return
		default:
		}
		// Channel full: evict the stale snapshot and retry.
		select {
		case <-a.notifs:
		default:
		}
	}
}

// Snapshot answers with the current state from the actor's sequential
// point; the result reflects all previously posted messages that were
// already processed.
func (a *Actor) Snapshot() (Snapshot, error) {
	if a.stopped() {
		return Snapshot{}, ErrNotRunning
	}
	var snap Snapshot
	replied := make(chan struct{})
	q := func(m *model) {
		snap = m.snapshot()
		close(replied)
	}
	select {
	case <-a.stopping:
		return Snapshot{}, ErrNotRunning
	case a.queries <- q:
	}
	select {
	case <-a.stopping:
		return Snapshot{}, ErrNotRunning
	case <-replied:
		return snap, nil
	}
}

// Screens returns the current screen list.
func (a *Actor) Screens() ([]Screen, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Screens, nil
}

// Workspaces returns workspaces, optionally filtered to one screen.
func (a *Actor) Workspaces(screen backend.ScreenID) ([]Workspace, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	if screen == 0 {
		return snap.Workspaces, nil
	}
	out := make([]Workspace, 0, len(snap.Workspaces))
	for _, ws := range snap.Workspaces {
		if ws.Screen == screen {
			out = append(out, ws)
		}
	}
	return out, nil
}

// Windows returns tracked windows, optionally filtered to one workspace
// by name.
func (a *Actor) Windows(workspace string) ([]Window, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	var filter *Workspace
	if workspace != "" {
		for i := range snap.Workspaces {
			if snap.Workspaces[i].Name == workspace {
				filter = &snap.Workspaces[i]
				break
			}
		}
		if filter == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWorkspace, workspace)
		}
		out := make([]Window, 0, len(filter.Windows))
		for _, id := range filter.Windows {
			if win, ok := snap.Windows[id]; ok {
				out = append(out, win)
			}
		}
		return out, nil
	}
	out := make([]Window, 0, len(snap.Windows))
	for _, ws := range snap.Workspaces {
		for _, id := range ws.Windows {
			if win, ok := snap.Windows[id]; ok {
				out = append(out, win)
			}
		}
	}
	// Floating windows are tracked but belong to no workspace list.
	for _, win := range snap.Windows {
		if win.Floating && win.Workspace == "" {
			out = append(out, win)
		}
	}
	return out, nil
}

// Reconfigure swaps the rule matcher, floating presets and per-workspace
// layout overrides, used by config hot reload. Missing workspaces named
// in newWorkspaces are created; existing ones are never removed and keep
// their current layout.
func (a *Actor) Reconfigure(matcher *rules.Matcher, presets map[string]geometry.Rect, newWorkspaces []string, layouts map[string]layout.Type) error {
	if a.stopped() {
		return ErrNotRunning
	}
	replied := make(chan struct{})
	q := func(m *model) {
		defer close(replied)
		if matcher != nil {
			a.cfg.Matcher = matcher
		}
		if presets != nil {
			a.cfg.FloatingPresets = presets
		}
		if layouts != nil {
			a.cfg.WorkspaceLayouts = layouts
		}
		for _, name := range newWorkspaces {
			if m.workspaceByName(name) == nil {
				m.workspaces = append(m.workspaces, &Workspace{
					ID:          NewWorkspaceID(),
					Name:        name,
					Layout:      a.cfg.layoutFor(name),
					MasterRatio: a.cfg.MasterRatio,
				})
			}
		}
	}
	select {
	case <-a.stopping:
		return ErrNotRunning
	case a.queries <- q:
	}
	select {
	case <-a.stopping:
		return ErrNotRunning
	case <-replied:
		return nil
	}
}
