package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/animation"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/border"
	"github.com/tidalwm/tidal/internal/config"
	"github.com/tidalwm/tidal/internal/effects"
	"github.com/tidalwm/tidal/internal/event"
	"github.com/tidalwm/tidal/internal/ipc"
	"github.com/tidalwm/tidal/internal/rules"
	"github.com/tidalwm/tidal/internal/state"
	"github.com/tidalwm/tidal/internal/x11"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "tidal",
})

// daemon holds the running pipeline so config reloads and permission
// retries can reach into it.
type daemon struct {
	cfg   *config.UserConfig
	actor *state.Actor

	mu      sync.Mutex
	tiling  *tilingPipeline
	started bool
}

// tilingPipeline is everything that only exists once the display
// permission is granted.
type tilingPipeline struct {
	backend  *x11.Backend
	registry *animation.Registry
	driver   *animation.Driver
	borders  *border.Client
	stop     func()
}

func runDaemon() error {
	if debugMode {
		setLogLevels(log.DebugLevel)
	}

	cfg, err := config.LoadUserConfig()
	if err != nil {
		logger.Warn("failed to load config, using defaults", "err", err)
		cfg = config.DefaultConfig()
	}
	config.ApplyOverrides(config.Overrides{
		Layout:       layoutFlag,
		NoAnimations: noAnimations,
		GapsOuter:    gapsOuter,
		GapsInner:    gapsInner,
	}, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	configPath, _ := config.GetConfigPath()
	logger.Info("starting", "version", version, "config", configPath)

	matcher, err := rules.NewMatcher(cfg.RuleSpecs(), cfg.SkipSpecs())
	if err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}

	actor := state.NewActor(state.Config{
		Workspaces:       cfg.WorkspaceNames(),
		Matcher:          matcher,
		DefaultLayout:    cfg.DefaultLayout(),
		WorkspaceLayouts: cfg.WorkspaceLayouts(),
		MasterRatio:      cfg.MasterRatioValue(),
		FloatingPresets:  cfg.PresetRects(),
	})
	go actor.Run()
	defer actor.Stop()

	d := &daemon{cfg: cfg, actor: actor}

	reload := make(chan struct{}, 1)

	// The server comes up after tiling, so event publishing goes
	// through an atomic pointer that is nil until then.
	var pub atomic.Pointer[ipc.Server]
	notify := func(n effects.Notification) {
		if s := pub.Load(); s != nil {
			s.Publish(n)
		}
	}

	// Tiling starts degraded when the display refuses the event
	// selection; the socket still answers and RETRY_INIT brings tiling
	// up once permission is granted.
	var retryInit func() error
	if err := d.startTiling(notify); err != nil {
		if !errors.Is(err, backend.ErrPermissionDenied) {
			return err
		}
		logger.Warn("display permission missing, tiling disabled until retry-init")
		retryInit = func() error {
			return d.startTiling(notify)
		}
	}

	srv, err := ipc.NewServer(actor, version, retryInit, reload)
	if err != nil {
		return err
	}
	pub.Store(srv)
	if err := srv.Start(); err != nil {
		return err
	}
	defer srv.Stop()

	watcher, err := config.NewWatcher(configPath, func(next *config.UserConfig) {
		d.applyConfig(next)
	})
	if err != nil {
		logger.Warn("config watching unavailable", "err", err)
	} else {
		defer watcher.Close()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case sig := <-sigc:
			logger.Info("shutting down", "signal", sig)
			d.stopTiling()
			return nil
		case <-reload:
			next, err := config.LoadUserConfig()
			if err != nil {
				logger.Warn("reload failed, keeping previous config", "err", err)
				continue
			}
			d.applyConfig(next)
		}
	}
}

// startTiling connects to the display and wires the full pipeline:
// observer -> event processor -> actor -> effects -> backend.
func (d *daemon) startTiling(notify func(effects.Notification)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}

	xb, err := x11.New()
	if err != nil {
		return err
	}
	if err := xb.CheckPermission(); err != nil {
		xb.Close()
		return err
	}

	screens, err := xb.Screens()
	if err != nil {
		xb.Close()
		return err
	}
	if err := d.actor.Post(state.EvScreensChanged{Screens: screens}); err != nil {
		xb.Close()
		return err
	}
	if windows, err := xb.Windows(); err == nil {
		for _, info := range windows {
			d.actor.Post(state.EvWindowCreated{Info: info})
		}
	}

	cfg := d.cfg
	registry := animation.NewRegistry(settleDelay(cfg))
	borders := border.NewClient(border.Config{
		SocketPath:    cfg.Border.Socket,
		Command:       cfg.Border.Command,
		ActiveColor:   cfg.Border.ActiveColor,
		InactiveColor: cfg.Border.InactiveColor,
		Width:         cfg.Border.Width,
	})

	refresh := 60.0
	if len(screens) > 0 {
		refresh = screens[0].RefreshRate
	}
	var frames effects.FrameApplier
	var driver *animation.Driver
	if cfg.Animation.Enabled {
		driver = animation.NewDriver(xb, registry, animationSettings(cfg), refresh)
		go driver.Run()
		frames = driver
	} else {
		frames = effects.Direct{BE: xb}
	}

	executor := &effects.Executor{
		Frames:  frames,
		Focuser: xb,
		Borders: borders,
		Notify:  notify,
	}
	subscriber := effects.NewSubscriber(executor, cfg.GapsValue())
	go subscriber.Run(d.actor.Notifications())

	processor := event.NewProcessor(d.actor, event.Options{
		CoalesceWindow: cfg.CoalesceWindow(),
		ScreenDebounce: cfg.ScreenDebounce(),
		Screens:        xb.Screens,
		Suppress:       registry.Suppress,
	})
	if err := xb.Start(); err != nil {
		xb.Close()
		return err
	}
	go processor.Run(xb.Events())

	d.tiling = &tilingPipeline{
		backend:  xb,
		registry: registry,
		driver:   driver,
		borders:  borders,
		stop: func() {
			xb.Close()
			if driver != nil {
				driver.Stop()
			}
			borders.Close()
		},
	}
	d.started = true
	logger.Info("tiling active", "screens", len(screens))
	return nil
}

func (d *daemon) stopTiling() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.tiling != nil {
		d.tiling.stop()
		d.tiling = nil
		d.started = false
	}
}

// applyConfig pushes a new configuration into the running actor:
// matcher, presets, and any newly declared workspaces.
func (d *daemon) applyConfig(next *config.UserConfig) {
	matcher, err := rules.NewMatcher(next.RuleSpecs(), next.SkipSpecs())
	if err != nil {
		logger.Warn("reloaded rules invalid, keeping previous", "err", err)
		return
	}
	if err := d.actor.Reconfigure(matcher, next.PresetRects(), next.WorkspaceNames(), next.WorkspaceLayouts()); err != nil {
		logger.Warn("reconfigure failed", "err", err)
		return
	}
	d.mu.Lock()
	d.cfg = next
	d.mu.Unlock()
	logger.Info("configuration applied")
}

func animationSettings(cfg *config.UserConfig) animation.Settings {
	if cfg.Animation.Mode == "ease" {
		return animation.Settings{
			Mode:     animation.ModeEase,
			Duration: durationMS(cfg.Animation.Duration),
			Curve:    animation.CurveByName(cfg.Animation.Curve),
		}
	}
	s := animation.Settings{Mode: animation.ModeSpring, Spring: animation.DefaultSpring}
	if cfg.Animation.Frequency > 0 {
		s.Spring.Frequency = cfg.Animation.Frequency
	}
	if cfg.Animation.Damping > 0 {
		s.Spring.Damping = cfg.Animation.Damping
	}
	return s
}

func setLogLevels(level log.Level) {
	logger.SetLevel(level)
	event.SetLogLevel(level)
	animation.SetLogLevel(level)
	effects.SetLogLevel(level)
	border.SetLogLevel(level)
	ipc.SetLogLevel(level)
	config.SetLogLevel(level)
	x11.SetLogLevel(level)
}

func settleDelay(cfg *config.UserConfig) time.Duration {
	return time.Duration(cfg.Animation.SettleMS) * time.Millisecond
}

func durationMS(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
