package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// Screens enumerates active monitors through XRandR. The work frame is
// the monitor frame clipped by the EWMH work area, which excludes
// panels and docks.
func (b *Backend) Screens() ([]backend.ScreenInfo, error) {
	if err := randr.Init(b.xu.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}
	resources, err := randr.GetScreenResources(b.xu.Conn(), b.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	modes := make(map[randr.Mode]randr.ModeInfo, len(resources.Modes))
	for _, mode := range resources.Modes {
		modes[randr.Mode(mode.Id)] = mode
	}

	work := b.workArea()

	var screens []backend.ScreenInfo
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(b.xu.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		frame := geometry.Rect{
			X:      float64(info.X),
			Y:      float64(info.Y),
			Width:  float64(info.Width),
			Height: float64(info.Height),
		}
		screens = append(screens, backend.ScreenInfo{
			ID:          backend.ScreenID(i + 1),
			Frame:       frame,
			WorkFrame:   clip(frame, work),
			RefreshRate: refreshRate(modes[info.Mode]),
		})
	}
	if len(screens) == 0 {
		return nil, fmt.Errorf("no active monitors")
	}
	return screens, nil
}

// workArea returns the EWMH work area of the current desktop, or an
// empty rect when unavailable.
func (b *Backend) workArea() geometry.Rect {
	areas, err := ewmh.WorkareaGet(b.xu)
	if err != nil || len(areas) == 0 {
		return geometry.Rect{}
	}
	idx := 0
	if desktop, err := ewmh.CurrentDesktopGet(b.xu); err == nil && int(desktop) < len(areas) {
		idx = int(desktop)
	}
	wa := areas[idx]
	return geometry.Rect{
		X:      float64(wa.X),
		Y:      float64(wa.Y),
		Width:  float64(wa.Width),
		Height: float64(wa.Height),
	}
}

// clip intersects a monitor frame with the global work area; a missing
// work area leaves the frame untouched.
func clip(frame, work geometry.Rect) geometry.Rect {
	if work.Empty() || !frame.Intersects(work) {
		return frame
	}
	x := max(frame.X, work.X)
	y := max(frame.Y, work.Y)
	maxX := min(frame.MaxX(), work.MaxX())
	maxY := min(frame.MaxY(), work.MaxY())
	return geometry.Rect{X: x, Y: y, Width: maxX - x, Height: maxY - y}
}

func refreshRate(mode randr.ModeInfo) float64 {
	total := float64(mode.Htotal) * float64(mode.Vtotal)
	if total == 0 {
		return 0
	}
	return float64(mode.DotClock) / total
}
