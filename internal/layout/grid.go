package layout

import (
	"math"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// gridDimensions picks the rows x cols arrangement for n windows whose
// cells come closest to square for the given frame aspect. Ties go to
// the wider arrangement, matching what users expect on landscape
// displays.
func gridDimensions(n int, frame geometry.Rect) (rows, cols int) {
	if n == 0 {
		return 0, 0
	}
	bestRows, bestCols := 1, n
	bestDistortion := math.Inf(1)
	for r := 1; r <= n; r++ {
		c := int(math.Ceil(float64(n) / float64(r)))
		cellW := frame.Width / float64(c)
		cellH := frame.Height / float64(r)
		var distortion float64
		if cellW <= 0 || cellH <= 0 {
			distortion = math.Inf(1)
		} else {
			// log ratio is symmetric: a 2:1 cell is as distorted as 1:2.
			distortion = math.Abs(math.Log(cellW / cellH))
		}
		if distortion < bestDistortion {
			bestDistortion = distortion
			bestRows, bestCols = r, c
		}
	}
	return bestRows, bestCols
}

// computeGrid arranges the windows row-major into the least-distorted
// grid. A configured primary ratio gives the first column that fraction
// of the width, with the remaining columns sharing the rest equally.
func computeGrid(out map[backend.WindowID]geometry.Rect, ids []backend.WindowID, frame geometry.Rect, gap float64, opts Options) {
	n := len(ids)
	rows, cols := gridDimensions(n, frame)
	if rows == 0 {
		return
	}

	availW := frame.Width - float64(cols-1)*gap
	availH := frame.Height - float64(rows-1)*gap
	if availW < 0 {
		availW = 0
	}
	if availH < 0 {
		availH = 0
	}

	colWidths := make([]float64, cols)
	if cols > 1 && opts.PrimaryRatio > 0 && opts.PrimaryRatio < 1 {
		colWidths[0] = availW * opts.PrimaryRatio
		rest := (availW - colWidths[0]) / float64(cols-1)
		for c := 1; c < cols; c++ {
			colWidths[c] = rest
		}
	} else {
		for c := range colWidths {
			colWidths[c] = availW / float64(cols)
		}
	}
	rowHeight := availH / float64(rows)

	for i, id := range ids {
		row := i / cols
		col := i % cols
		x := frame.X
		for c := 0; c < col; c++ {
			x += colWidths[c] + gap
		}
		y := frame.Y + float64(row)*(rowHeight+gap)
		cell := geometry.Rect{X: x, Y: y, Width: colWidths[col], Height: rowHeight}
		out[id] = clampToMinimum(cell, id, opts.Minimums)
	}
}
