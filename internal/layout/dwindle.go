package layout

import (
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// computeDwindle lays windows out as a binary space partition: each
// window takes a fraction of the remaining space and the rest recurse
// into the remainder with the split axis alternating, producing the
// familiar spiral. opts.Ratios is indexed by split level so any split
// point can be adjusted manually; missing levels default to an even
// split.
func computeDwindle(out map[backend.WindowID]geometry.Rect, ids []backend.WindowID, frame geometry.Rect, gap float64, opts Options) {
	remaining := frame
	horizontal := frame.Width >= frame.Height

	for level, id := range ids {
		if level == len(ids)-1 {
			out[id] = clampToMinimum(remaining, id, opts.Minimums)
			return
		}

		ratio := 0.5
		if level < len(opts.Ratios) && opts.Ratios[level] > 0 && opts.Ratios[level] < 1 {
			ratio = opts.Ratios[level]
		}

		var taken, rest geometry.Rect
		if horizontal {
			taken, rest = remaining.SplitH(ratio, gap)
		} else {
			taken, rest = remaining.SplitV(ratio, gap)
		}
		out[id] = clampToMinimum(taken, id, opts.Minimums)
		remaining = rest
		horizontal = !horizontal
	}
}

// clampToMinimum grows a frame in place to satisfy the window's declared
// minimum. The grown frame may overlap its sibling; that is the
// best-effort answer when the partition cannot satisfy the minimum.
func clampToMinimum(r geometry.Rect, id backend.WindowID, minimums map[backend.WindowID]geometry.Size) geometry.Rect {
	min, ok := minimums[id]
	if !ok {
		return r
	}
	if r.Width < min.Width {
		r.Width = min.Width
	}
	if r.Height < min.Height {
		r.Height = min.Height
	}
	return r
}
