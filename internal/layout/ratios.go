package layout

import "github.com/tidalwm/tidal/internal/geometry"

// DeriveSplitRatios recovers the cumulative split ratios from the frames
// a user left behind after manually dragging a split. frames must be the
// workspace's windows in member order; horizontal selects the axis the
// split runs along. The result has length len(frames)-1 and feeds back
// into Options.Ratios, so applying a computed layout, reading the frames
// back, and deriving ratios reproduces the original ratios within
// floating-point tolerance.
func DeriveSplitRatios(frames []geometry.Rect, horizontal bool) []float64 {
	n := len(frames)
	if n < 2 {
		return nil
	}

	total := 0.0
	sizes := make([]float64, n)
	for i, f := range frames {
		if horizontal {
			sizes[i] = f.Width
		} else {
			sizes[i] = f.Height
		}
		total += sizes[i]
	}
	if total <= 0 {
		return nil
	}

	ratios := make([]float64, n-1)
	cumulative := 0.0
	for i := 0; i < n-1; i++ {
		cumulative += sizes[i]
		ratios[i] = cumulative / total
	}
	return ratios
}
