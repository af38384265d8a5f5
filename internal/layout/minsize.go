package layout

import (
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// maxMinSizePasses bounds the clamp/redistribute loop so that jointly
// infeasible minimums terminate with a best-effort result instead of
// looping. Three passes are enough for any chain of violations at one
// split level: each pass either clamps at least one more window or
// leaves the sizes stable.
const maxMinSizePasses = 3

// enforceMinimums clamps any segment below its window's declared minimum
// along the split axis and shrinks the remaining segments proportionally
// to absorb the deficit. When the minimums are jointly infeasible every
// violator ends up clamped and the total exceeds the available space;
// that overflow is the documented best-effort behavior, not an error.
func enforceMinimums(sizes []float64, ids []backend.WindowID, minimums map[backend.WindowID]geometry.Size, horizontal bool) []float64 {
	if len(minimums) == 0 {
		return sizes
	}

	minFor := func(i int) float64 {
		min, ok := minimums[ids[i]]
		if !ok {
			return 0
		}
		if horizontal {
			return min.Width
		}
		return min.Height
	}

	clamped := make([]bool, len(sizes))
	for pass := 0; pass < maxMinSizePasses; pass++ {
		deficit := 0.0
		flexible := 0.0
		for i, size := range sizes {
			if clamped[i] {
				continue
			}
			if min := minFor(i); size < min {
				deficit += min - size
				sizes[i] = min
				clamped[i] = true
			} else {
				flexible += size
			}
		}
		if deficit == 0 || flexible <= 0 {
			break
		}
		// Shrink the unclamped siblings proportionally. This may push
		// another sibling below its own minimum, which the next pass
		// picks up.
		scale := (flexible - deficit) / flexible
		if scale < 0 {
			scale = 0
		}
		for i := range sizes {
			if !clamped[i] {
				sizes[i] *= scale
			}
		}
	}
	return sizes
}
