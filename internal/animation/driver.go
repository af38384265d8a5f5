package animation

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "animation",
})

// SetLogLevel sets the logging level for the animation package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// FrameBackend is the slice of the backend the driver needs: live frame
// queries and frame writes.
type FrameBackend interface {
	WindowFrame(id backend.WindowID) (geometry.Rect, error)
	SetWindowFrame(id backend.WindowID, frame geometry.Rect) error
}

// Mode selects the motion model.
type Mode int

const (
	// ModeSpring uses the closed-form damped spring.
	ModeSpring Mode = iota

	// ModeEase uses a fixed-duration easing curve.
	ModeEase
)

// Settings configures how frames move.
type Settings struct {
	Mode     Mode
	Spring   Spring
	Duration time.Duration  // ModeEase only
	Curve    ease.TweenFunc // ModeEase only, nil means InOutCubic
}

// DefaultSettings animates with the default spring.
func DefaultSettings() Settings {
	return Settings{Mode: ModeSpring, Spring: DefaultSpring}
}

// CurveByName resolves an easing curve from its configuration name.
// Unknown names fall back to in-out-cubic.
func CurveByName(name string) ease.TweenFunc {
	switch name {
	case "linear":
		return ease.Linear
	case "in-out-sine":
		return ease.InOutSine
	case "in-out-quad":
		return ease.InOutQuad
	case "in-out-cubic":
		return ease.InOutCubic
	case "out-cubic":
		return ease.OutCubic
	case "out-expo":
		return ease.OutExpo
	case "out-back":
		return ease.OutBack
	default:
		return ease.InOutCubic
	}
}

// motion is one in-flight frame animation. Components are indexed
// x, y, width, height.
type motion struct {
	target geometry.Rect

	// spring state
	started time.Time
	x0, v0  [4]float64

	// ease state
	progress *gween.Tween
	from     geometry.Rect
}

// Driver steps all in-flight animations on a ticker synced to the
// display refresh interval and writes the resulting frames. Retargeting
// a moving window re-queries its live frame so motion continues from
// where the window actually is, with velocity carried over.
type Driver struct {
	be       FrameBackend
	reg      *Registry
	settings Settings
	interval time.Duration

	mu     sync.Mutex
	active map[backend.WindowID]*motion

	stopOnce sync.Once
	stopc    chan struct{}
	done     chan struct{}
}

// NewDriver creates a driver ticking at the given refresh rate in Hz;
// zero or negative means 60.
func NewDriver(be FrameBackend, reg *Registry, settings Settings, refreshHz float64) *Driver {
	if refreshHz <= 0 {
		refreshHz = 60
	}
	return &Driver{
		be:       be,
		reg:      reg,
		settings: settings,
		interval: time.Duration(float64(time.Second) / refreshHz),
		active:   make(map[backend.WindowID]*motion),
		stopc:    make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run steps animations until Stop is called. Remaining animations are
// snapped to their targets on exit so shutdown never leaves a window
// mid-flight.
func (d *Driver) Run() {
	defer close(d.done)
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopc:
			d.snapAll()
			return
		case <-ticker.C:
			d.step()
		}
	}
}

// Stop terminates the driver and waits for the run loop to exit.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stopc) })
	<-d.done
}

// Animate moves a window toward target. If the window is already
// animating the motion is retargeted: the live frame becomes the new
// start and spring velocity carries over, so direction changes bend
// smoothly instead of snapping.
func (d *Driver) Animate(id backend.WindowID, target geometry.Rect) {
	live, err := d.be.WindowFrame(id)
	if err != nil {
		if errors.Is(err, backend.ErrWindowGone) {
			d.Cancel(id)
			return
		}
		logger.Warn("live frame query failed, snapping", "window", id, "err", err)
		d.snap(id, target)
		return
	}
	if framesEqual(live, target) {
		d.Cancel(id)
		return
	}

	d.mu.Lock()
	prev := d.active[id]
	m := &motion{target: target, started: time.Now()}
	switch d.settings.Mode {
	case ModeSpring:
		m.x0 = displacement(live, target)
		if prev != nil {
			t := time.Since(prev.started).Seconds()
			for i := 0; i < 4; i++ {
				_, v := d.settings.Spring.Evaluate(prev.x0[i], prev.v0[i], t)
				m.v0[i] = v
			}
		}
	case ModeEase:
		m.from = live
		dur := float32(d.settings.Duration.Seconds())
		if dur <= 0 {
			dur = 0.2
		}
		curve := d.settings.Curve
		if curve == nil {
			curve = ease.InOutCubic
		}
		m.progress = gween.New(0, 1, dur, curve)
	}
	d.active[id] = m
	d.mu.Unlock()

	d.reg.Begin(id)
}

// Cancel drops any in-flight animation for the window without writing a
// frame.
func (d *Driver) Cancel(id backend.WindowID) {
	d.mu.Lock()
	_, had := d.active[id]
	delete(d.active, id)
	d.mu.Unlock()
	if had {
		d.reg.Finish(id)
	}
}

// Animating reports whether the window currently has an in-flight
// animation.
func (d *Driver) Animating(id backend.WindowID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.active[id]
	return ok
}

func (d *Driver) step() {
	d.mu.Lock()
	ids := make([]backend.WindowID, 0, len(d.active))
	for id := range d.active {
		ids = append(ids, id)
	}
	d.mu.Unlock()

	for _, id := range ids {
		d.stepOne(id)
	}
}

func (d *Driver) stepOne(id backend.WindowID) {
	d.mu.Lock()
	m, ok := d.active[id]
	d.mu.Unlock()
	if !ok {
		return
	}

	var frame geometry.Rect
	finished := false
	switch d.settings.Mode {
	case ModeSpring:
		t := time.Since(m.started).Seconds()
		var disp [4]float64
		settled := true
		for i := 0; i < 4; i++ {
			x, v := d.settings.Spring.Evaluate(m.x0[i], m.v0[i], t)
			disp[i] = x
			if !Settled(x, v) {
				settled = false
			}
		}
		frame = applyDisplacement(m.target, disp)
		finished = settled
	case ModeEase:
		p, done := m.progress.Update(float32(d.interval.Seconds()))
		frame = lerpRect(m.from, m.target, float64(p))
		finished = done
	}

	if finished {
		frame = m.target
	}
	if err := d.be.SetWindowFrame(id, frame); err != nil {
		if errors.Is(err, backend.ErrWindowGone) {
			d.mu.Lock()
			delete(d.active, id)
			d.mu.Unlock()
			d.reg.Forget(id)
			return
		}
		logger.Warn("frame write failed", "window", id, "err", err)
	}
	if finished {
		d.mu.Lock()
		delete(d.active, id)
		d.mu.Unlock()
		d.reg.Finish(id)
	}
}

// snap writes the target directly and runs the settle lifecycle so the
// echoed geometry event is still suppressed.
func (d *Driver) snap(id backend.WindowID, target geometry.Rect) {
	d.reg.Begin(id)
	if err := d.be.SetWindowFrame(id, target); err != nil && !errors.Is(err, backend.ErrWindowGone) {
		logger.Warn("frame write failed", "window", id, "err", err)
	}
	d.reg.Finish(id)
}

func (d *Driver) snapAll() {
	d.mu.Lock()
	remaining := make(map[backend.WindowID]geometry.Rect, len(d.active))
	for id, m := range d.active {
		remaining[id] = m.target
	}
	d.active = make(map[backend.WindowID]*motion)
	d.mu.Unlock()

	for id, target := range remaining {
		if err := d.be.SetWindowFrame(id, target); err != nil && !errors.Is(err, backend.ErrWindowGone) {
			logger.Warn("frame write failed at shutdown", "window", id, "err", err)
		}
		d.reg.Finish(id)
	}
}

func displacement(from, to geometry.Rect) [4]float64 {
	return [4]float64{
		from.X - to.X,
		from.Y - to.Y,
		from.Width - to.Width,
		from.Height - to.Height,
	}
}

func applyDisplacement(target geometry.Rect, disp [4]float64) geometry.Rect {
	return geometry.Rect{
		X:      target.X + disp[0],
		Y:      target.Y + disp[1],
		Width:  target.Width + disp[2],
		Height: target.Height + disp[3],
	}
}

func lerpRect(from, to geometry.Rect, p float64) geometry.Rect {
	return geometry.Rect{
		X:      from.X + (to.X-from.X)*p,
		Y:      from.Y + (to.Y-from.Y)*p,
		Width:  from.Width + (to.Width-from.Width)*p,
		Height: from.Height + (to.Height-from.Height)*p,
	}
}

func framesEqual(a, b geometry.Rect) bool {
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
