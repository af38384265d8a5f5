// Package event turns raw OS notifications into actor messages. It owns
// the immediate-vs-batched dispatch policy: lifecycle and focus events
// go straight through, geometry events are coalesced per window, and
// display reconfigurations are debounced until the hardware settles.
package event

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/state"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "event",
})

// SetLogLevel sets the logging level for the event package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Sink receives normalized messages. *state.Actor satisfies it.
type Sink interface {
	Post(msg state.Message) error
}

// DefaultCoalesceWindow is roughly a quarter of a 60 Hz frame: long
// enough to swallow the bursts the display server emits during a move,
// short enough that the last event still lands within the same frame.
const DefaultCoalesceWindow = 4 * time.Millisecond

// DefaultScreenDebounce covers the burst of reconfiguration callbacks a
// single physical display change produces.
const DefaultScreenDebounce = 200 * time.Millisecond

// Options tunes the processor. Zero values use the defaults.
type Options struct {
	// CoalesceWindow is the batching window for geometry events. It
	// should track the owning screen's refresh interval.
	CoalesceWindow time.Duration

	// ScreenDebounce is the settle time for display reconfiguration.
	ScreenDebounce time.Duration

	// Screens re-enumerates displays once a reconfiguration settles.
	// Required: the raw notification carries no configuration, only the
	// fact that something changed.
	Screens func() ([]backend.ScreenInfo, error)

	// Suppress filters geometry events for windows that are currently
	// settling after an animation, so the display server echoing the
	// animated frame back is not mistaken for a user resize.
	Suppress func(backend.WindowID) bool
}

type coalesceKey struct {
	window backend.WindowID
	kind   backend.EventKind
}

// Processor consumes a raw event stream and forwards normalized
// messages to the sink. All bookkeeping runs on the single Run
// goroutine; timers signal back through an internal channel so no state
// needs locking.
type Processor struct {
	sink Sink
	opts Options

	pending map[coalesceKey]backend.Event
	timers  map[coalesceKey]*time.Timer
	flushc  chan coalesceKey

	screenTimer *time.Timer
	screenc     chan struct{}
}

// NewProcessor creates a processor forwarding to sink.
func NewProcessor(sink Sink, opts Options) *Processor {
	if opts.CoalesceWindow <= 0 {
		opts.CoalesceWindow = DefaultCoalesceWindow
	}
	if opts.ScreenDebounce <= 0 {
		opts.ScreenDebounce = DefaultScreenDebounce
	}
	return &Processor{
		sink:    sink,
		opts:    opts,
		pending: make(map[coalesceKey]backend.Event),
		timers:  make(map[coalesceKey]*time.Timer),
		flushc:  make(chan coalesceKey, 64),
		screenc: make(chan struct{}, 1),
	}
}

// Run consumes events until the stream closes. Pending coalesced events
// are flushed on exit so a final user-intended geometry is never lost
// to shutdown.
func (p *Processor) Run(events <-chan backend.Event) {
	defer p.flushAll()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			p.dispatch(ev)
		case key := <-p.flushc:
			p.flush(key)
		case <-p.screenc:
			p.forwardScreens()
		}
	}
}

// dispatch applies the immediate-vs-batched policy to one raw event.
func (p *Processor) dispatch(ev backend.Event) {
	switch ev.Kind {
	case backend.EventWindowCreated:
		if ev.Info == nil {
			logger.Warn("window-created event without info", "window", ev.Window)
			return
		}
		p.post(state.EvWindowCreated{Info: *ev.Info})
	case backend.EventWindowDestroyed:
		// Destruction invalidates any batched geometry for the window.
		p.dropPending(ev.Window)
		p.post(state.EvWindowDestroyed{ID: ev.Window})
	case backend.EventWindowFocused:
		p.post(state.EvWindowFocused{ID: ev.Window})
	case backend.EventWindowMinimized:
		p.post(state.EvWindowMinimized{ID: ev.Window})
	case backend.EventWindowRestored:
		p.post(state.EvWindowRestored{ID: ev.Window})
	case backend.EventWindowTitleChanged:
		if ev.Info != nil {
			p.post(state.EvWindowTitleChanged{ID: ev.Window, Title: ev.Info.Title})
		}
	case backend.EventAppLaunched:
		p.post(state.EvAppLaunched{PID: ev.PID})
	case backend.EventAppTerminated:
		p.post(state.EvAppTerminated{PID: ev.PID})

	case backend.EventWindowMoved, backend.EventWindowResized:
		if p.opts.Suppress != nil && p.opts.Suppress(ev.Window) {
			return
		}
		p.batch(ev)

	case backend.EventDragEnded:
		// The final user-intended geometry is never dropped: flush any
		// batched event for this window and forward unconditionally.
		p.dropPending(ev.Window)
		p.post(state.EvDragEnded{ID: ev.Window, Frame: ev.Frame})

	case backend.EventScreensChanged:
		p.debounceScreens()

	default:
		logger.Debug("dropping unclassified event", "kind", ev.Kind)
	}
}

// batch keeps only the newest event per (window, kind) and arms a flush
// timer the first time a key appears.
func (p *Processor) batch(ev backend.Event) {
	key := coalesceKey{window: ev.Window, kind: ev.Kind}
	p.pending[key] = ev
	if _, armed := p.timers[key]; armed {
		return
	}
	p.timers[key] = time.AfterFunc(p.opts.CoalesceWindow, func() {
		p.flushc <- key
	})
}

func (p *Processor) flush(key coalesceKey) {
	ev, ok := p.pending[key]
	delete(p.pending, key)
	delete(p.timers, key)
	if !ok {
		return
	}
	p.forwardGeometry(ev)
}

// dropPending discards batched geometry for a window whose fate was
// decided by a stronger event (destroy or drag end).
func (p *Processor) dropPending(id backend.WindowID) {
	for _, kind := range []backend.EventKind{backend.EventWindowMoved, backend.EventWindowResized} {
		key := coalesceKey{window: id, kind: kind}
		if timer, ok := p.timers[key]; ok {
			timer.Stop()
			delete(p.timers, key)
		}
		delete(p.pending, key)
	}
}

func (p *Processor) flushAll() {
	for key, timer := range p.timers {
		timer.Stop()
		delete(p.timers, key)
	}
	for key, ev := range p.pending {
		delete(p.pending, key)
		p.forwardGeometry(ev)
	}
}

func (p *Processor) forwardGeometry(ev backend.Event) {
	switch ev.Kind {
	case backend.EventWindowMoved:
		p.post(state.EvWindowMoved{ID: ev.Window, Frame: ev.Frame})
	case backend.EventWindowResized:
		p.post(state.EvWindowResized{ID: ev.Window, Frame: ev.Frame})
	}
}

// debounceScreens restarts the settle timer; only the last notification
// of a reconfiguration burst triggers enumeration.
func (p *Processor) debounceScreens() {
	if p.screenTimer != nil {
		p.screenTimer.Stop()
	}
	p.screenTimer = time.AfterFunc(p.opts.ScreenDebounce, func() {
		select {
		case p.screenc <- struct{}{}:
		default:
		}
	})
}

func (p *Processor) forwardScreens() {
	if p.opts.Screens == nil {
		return
	}
	screens, err := p.opts.Screens()
	if err != nil {
		// Transient enumeration failure; the next reconfiguration will
		// try again.
		logger.Error("screen enumeration failed", "err", err)
		return
	}
	p.post(state.EvScreensChanged{Screens: screens})
}

func (p *Processor) post(msg state.Message) {
	if err := p.sink.Post(msg); err != nil {
		// Actor shut down mid-stream; nothing useful to do with the
		// event, and shutdown is not an error worth surfacing.
		logger.Debug("sink rejected message", "type", logType(msg), "err", err)
	}
}

func logType(msg state.Message) string {
	switch msg.(type) {
	case state.EvWindowMoved:
		return "window-moved"
	case state.EvWindowResized:
		return "window-resized"
	default:
		return "other"
	}
}
