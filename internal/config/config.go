// Package config loads and validates the user configuration: TOML under
// the XDG config directory, with CLI flag overrides applied on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
	"github.com/tidalwm/tidal/internal/rules"
)

// UserConfig is the on-disk configuration schema.
type UserConfig struct {
	Workspaces []WorkspaceConfig `toml:"workspaces"`
	Rules      []RuleConfig      `toml:"rules"`
	Skip       []SkipConfig      `toml:"skip"`

	Layout    LayoutConfig          `toml:"layout"`
	Gaps      GapsConfig            `toml:"gaps"`
	Animation AnimationConfig       `toml:"animation"`
	Border    BorderConfig          `toml:"border"`
	Events    EventsConfig          `toml:"events"`
	Presets   map[string]PresetRect `toml:"presets"`
}

// WorkspaceConfig declares one workspace.
type WorkspaceConfig struct {
	Name   string `toml:"name"`
	Layout string `toml:"layout,omitempty"` // empty uses the default
}

// RuleConfig assigns matching windows to a workspace. Empty fields
// match everything; set fields are combined with AND.
type RuleConfig struct {
	App       string `toml:"app,omitempty"`
	BundleID  string `toml:"bundle_id,omitempty"`
	Title     string `toml:"title,omitempty"` // regular expression
	Workspace string `toml:"workspace"`
}

// SkipConfig excludes matching windows from management entirely.
type SkipConfig struct {
	App      string `toml:"app,omitempty"`
	BundleID string `toml:"bundle_id,omitempty"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Default     string  `toml:"default"`
	MasterRatio float64 `toml:"master_ratio,omitempty"`
}

// GapsConfig holds the global gap sizes in pixels.
type GapsConfig struct {
	Outer float64 `toml:"outer"`
	Inner float64 `toml:"inner"`
}

// AnimationConfig tunes window motion.
type AnimationConfig struct {
	Enabled   bool    `toml:"enabled"`
	Mode      string  `toml:"mode"` // "spring" or "ease"
	Frequency float64 `toml:"frequency,omitempty"`
	Damping   float64 `toml:"damping,omitempty"`
	Duration  int     `toml:"duration_ms,omitempty"` // ease mode
	Curve     string  `toml:"curve,omitempty"`       // ease mode
	SettleMS  int     `toml:"settle_ms,omitempty"`
}

// BorderConfig configures the external border helper.
type BorderConfig struct {
	Socket        string  `toml:"socket,omitempty"`
	Command       string  `toml:"command,omitempty"`
	ActiveColor   string  `toml:"active_color,omitempty"`
	InactiveColor string  `toml:"inactive_color,omitempty"`
	Width         float64 `toml:"width,omitempty"`
}

// EventsConfig tunes the event pipeline.
type EventsConfig struct {
	CoalesceMS       int `toml:"coalesce_ms,omitempty"`
	ScreenDebounceMS int `toml:"screen_debounce_ms,omitempty"`
}

// PresetRect is a fractional rectangle of the screen work area, all
// fields in [0,1].
type PresetRect struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	W float64 `toml:"w"`
	H float64 `toml:"h"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *UserConfig {
	return &UserConfig{
		Workspaces: []WorkspaceConfig{
			{Name: "1"}, {Name: "2"}, {Name: "3"}, {Name: "4"},
		},
		Layout: LayoutConfig{Default: "split-auto"},
		Gaps:   GapsConfig{Outer: 8, Inner: 8},
		Animation: AnimationConfig{
			Enabled:   true,
			Mode:      "spring",
			Frequency: 18,
			Damping:   1,
			Duration:  200,
			Curve:     "in-out-cubic",
			SettleMS:  50,
		},
		Events: EventsConfig{CoalesceMS: 4, ScreenDebounceMS: 200},
		Presets: map[string]PresetRect{
			"center":     {X: 0.2, Y: 0.2, W: 0.6, H: 0.6},
			"left-half":  {X: 0, Y: 0, W: 0.5, H: 1},
			"right-half": {X: 0.5, Y: 0, W: 0.5, H: 1},
		},
	}
}

// GetConfigPath returns the config file location under XDG config.
func GetConfigPath() (string, error) {
	return filepath.Join(xdg.ConfigHome, "tidal", "config.toml"), nil
}

// LoadUserConfig reads and validates the config file. A missing file is
// not an error: the defaults are returned.
func LoadUserConfig() (*UserConfig, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates a config file at an explicit path.
func LoadFrom(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the daemon cannot honor.
func (c *UserConfig) Validate() error {
	if len(c.Workspaces) == 0 {
		return errors.New("config: at least one workspace is required")
	}
	seen := make(map[string]bool, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		if ws.Name == "" {
			return errors.New("config: workspace with empty name")
		}
		if seen[ws.Name] {
			return fmt.Errorf("config: duplicate workspace %q", ws.Name)
		}
		seen[ws.Name] = true
		if ws.Layout != "" {
			if _, ok := layout.ParseType(ws.Layout); !ok {
				return fmt.Errorf("config: workspace %q: unknown layout %q", ws.Name, ws.Layout)
			}
		}
	}
	if _, ok := layout.ParseType(c.Layout.Default); !ok {
		return fmt.Errorf("config: unknown default layout %q", c.Layout.Default)
	}
	if r := c.Layout.MasterRatio; r != 0 && (r <= 0 || r >= 1) {
		return fmt.Errorf("config: master_ratio %v outside (0,1)", r)
	}
	for _, rule := range c.Rules {
		if rule.Workspace == "" {
			return errors.New("config: rule without a workspace")
		}
		if !seen[rule.Workspace] {
			return fmt.Errorf("config: rule targets undeclared workspace %q", rule.Workspace)
		}
	}
	switch c.Animation.Mode {
	case "", "spring", "ease":
	default:
		return fmt.Errorf("config: unknown animation mode %q", c.Animation.Mode)
	}
	for name, p := range c.Presets {
		if p.W <= 0 || p.H <= 0 || p.X < 0 || p.Y < 0 || p.X+p.W > 1 || p.Y+p.H > 1 {
			return fmt.Errorf("config: preset %q outside the unit square", name)
		}
	}
	return nil
}

// Overrides carries CLI flag values applied on top of the file.
type Overrides struct {
	Layout       string
	NoAnimations bool
	GapsOuter    float64 // negative means unset
	GapsInner    float64 // negative means unset
}

// ApplyOverrides mutates cfg with any set override.
func ApplyOverrides(o Overrides, cfg *UserConfig) {
	if o.Layout != "" {
		cfg.Layout.Default = o.Layout
	}
	if o.NoAnimations {
		cfg.Animation.Enabled = false
	}
	if o.GapsOuter >= 0 {
		cfg.Gaps.Outer = o.GapsOuter
	}
	if o.GapsInner >= 0 {
		cfg.Gaps.Inner = o.GapsInner
	}
}

// WorkspaceNames returns declared workspace names in order.
func (c *UserConfig) WorkspaceNames() []string {
	names := make([]string, 0, len(c.Workspaces))
	for _, ws := range c.Workspaces {
		names = append(names, ws.Name)
	}
	return names
}

// DefaultLayout resolves the default layout type.
func (c *UserConfig) DefaultLayout() layout.Type {
	t, ok := layout.ParseType(c.Layout.Default)
	if !ok {
		return layout.SplitAuto
	}
	return t
}

// WorkspaceLayouts returns the per-workspace layout overrides, keyed by
// workspace name. Workspaces without an explicit layout are absent.
func (c *UserConfig) WorkspaceLayouts() map[string]layout.Type {
	var out map[string]layout.Type
	for _, ws := range c.Workspaces {
		if ws.Layout == "" {
			continue
		}
		t, ok := layout.ParseType(ws.Layout)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]layout.Type)
		}
		out[ws.Name] = t
	}
	return out
}

// MasterRatioValue returns the configured master area fraction; zero
// means the layout's built-in default.
func (c *UserConfig) MasterRatioValue() float64 {
	return c.Layout.MasterRatio
}

// GapsValue converts the gap config to layout gaps.
func (c *UserConfig) GapsValue() layout.Gaps {
	return layout.Gaps{Outer: c.Gaps.Outer, Inner: c.Gaps.Inner}
}

// RuleSpecs converts rule configs for the matcher.
func (c *UserConfig) RuleSpecs() []rules.RuleSpec {
	specs := make([]rules.RuleSpec, 0, len(c.Rules))
	for _, r := range c.Rules {
		specs = append(specs, rules.RuleSpec{
			AppName:   r.App,
			BundleID:  r.BundleID,
			TitleExpr: r.Title,
			Workspace: r.Workspace,
		})
	}
	return specs
}

// SkipSpecs converts skip configs for the matcher.
func (c *UserConfig) SkipSpecs() []rules.Skip {
	skips := make([]rules.Skip, 0, len(c.Skip))
	for _, s := range c.Skip {
		skips = append(skips, rules.Skip{AppName: s.App, BundleID: s.BundleID})
	}
	return skips
}

// PresetRects converts presets to fractional rectangles.
func (c *UserConfig) PresetRects() map[string]geometry.Rect {
	out := make(map[string]geometry.Rect, len(c.Presets))
	for name, p := range c.Presets {
		out[name] = geometry.Rect{X: p.X, Y: p.Y, Width: p.W, Height: p.H}
	}
	return out
}

// CoalesceWindow returns the configured event coalescing window.
func (c *UserConfig) CoalesceWindow() time.Duration {
	return time.Duration(c.Events.CoalesceMS) * time.Millisecond
}

// ScreenDebounce returns the configured display settle time.
func (c *UserConfig) ScreenDebounce() time.Duration {
	return time.Duration(c.Events.ScreenDebounceMS) * time.Millisecond
}
