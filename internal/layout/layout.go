// Package layout computes target window geometry for a workspace. Every
// function here is pure and deterministic: the same window list, frame,
// gaps, and ratios always produce the same rectangles, which is what the
// effect pipeline's change detection relies on.
package layout

import (
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

// Type selects the algorithm used to compute window rectangles.
type Type int

const (
	// Floating computes no assignments; existing frames are left alone.
	Floating Type = iota
	// Monocle gives every window the full work frame.
	Monocle
	// SplitAuto partitions along the longer frame axis.
	SplitAuto
	// SplitHorizontal partitions the frame into columns.
	SplitHorizontal
	// SplitVertical partitions the frame into rows.
	SplitVertical
	// MasterStack gives one window a configurable fraction of the frame
	// and stacks the rest in the remainder.
	MasterStack
	// Dwindle is a binary space partition producing a spiral ordering.
	Dwindle
	// Grid arranges windows into the rows x columns grid that minimizes
	// aspect-ratio distortion.
	Grid
)

var typeNames = map[Type]string{
	Floating:        "floating",
	Monocle:         "monocle",
	SplitAuto:       "split-auto",
	SplitHorizontal: "split-horizontal",
	SplitVertical:   "split-vertical",
	MasterStack:     "master-stack",
	Dwindle:         "dwindle",
	Grid:            "grid",
}

// String returns the config-file name of the layout type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType maps a layout name from config or the command interface to
// its Type value.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Next returns the layout type after t in the cycle order, skipping
// Floating (cycling into floating would silently stop tiling).
func (t Type) Next() Type {
	switch t {
	case Monocle:
		return SplitAuto
	case SplitAuto:
		return SplitHorizontal
	case SplitHorizontal:
		return SplitVertical
	case SplitVertical:
		return MasterStack
	case MasterStack:
		return Dwindle
	case Dwindle:
		return Grid
	case Grid:
		return Monocle
	default:
		return Monocle
	}
}

// Gaps is the configured spacing: outer is applied at the screen edge,
// inner between windows. They are independent; a single-window workspace
// gets only the outer gap.
type Gaps struct {
	Outer float64
	Inner float64
}

// MasterPosition places the master area within the frame.
type MasterPosition int

const (
	// MasterLeft puts the master window on the left edge.
	MasterLeft MasterPosition = iota
	// MasterRight puts the master window on the right edge.
	MasterRight
	// MasterTop puts the master window along the top edge.
	MasterTop
	// MasterBottom puts the master window along the bottom edge.
	MasterBottom
)

// Options carries the per-workspace tuning a layout may consume. The
// zero value is valid: equal splits, centered master, no minimums.
type Options struct {
	// Ratios are cumulative split positions in (0,1), length N-1 for N
	// windows. A list of the wrong length falls back to equal division.
	// For Dwindle the list is indexed by split level instead.
	Ratios []float64

	// MasterRatio is the fraction of the frame the master window takes.
	// Values outside (0,1) fall back to the default.
	MasterRatio float64

	// MasterPosition places the master area.
	MasterPosition MasterPosition

	// PrimaryRatio biases the first grid column; zero means no bias.
	PrimaryRatio float64

	// Minimums holds declared minimum sizes per window.
	Minimums map[backend.WindowID]geometry.Size
}

// DefaultMasterRatio is used when no master ratio is configured.
const DefaultMasterRatio = 0.6

// Compute maps each window id to its target rectangle within the work
// frame. It is total: empty window lists return an empty map, a single
// window fills the frame minus outer gaps, and zero-area frames produce
// zero-area results without panicking. Floating returns no assignments.
func Compute(t Type, ids []backend.WindowID, work geometry.Rect, gaps Gaps, opts Options) map[backend.WindowID]geometry.Rect {
	out := make(map[backend.WindowID]geometry.Rect, len(ids))
	if len(ids) == 0 || t == Floating {
		return out
	}

	inner := work.Inset(gaps.Outer)

	switch t {
	case Monocle:
		for _, id := range ids {
			out[id] = inner
		}
	case SplitAuto:
		horizontal := inner.Width >= inner.Height
		computeSplit(out, ids, inner, gaps.Inner, opts, horizontal)
	case SplitHorizontal:
		computeSplit(out, ids, inner, gaps.Inner, opts, true)
	case SplitVertical:
		computeSplit(out, ids, inner, gaps.Inner, opts, false)
	case MasterStack:
		computeMasterStack(out, ids, inner, gaps.Inner, opts)
	case Dwindle:
		computeDwindle(out, ids, inner, gaps.Inner, opts)
	case Grid:
		computeGrid(out, ids, inner, gaps.Inner, opts)
	default:
		for _, id := range ids {
			out[id] = inner
		}
	}
	return out
}

// computeSplit partitions the frame into len(ids) segments along one
// axis. Segment sizes are proportional to the deltas of the cumulative
// ratio list; a stale list (wrong length) falls back to equal division.
func computeSplit(out map[backend.WindowID]geometry.Rect, ids []backend.WindowID, frame geometry.Rect, gap float64, opts Options, horizontal bool) {
	n := len(ids)
	if n == 1 {
		out[ids[0]] = frame
		return
	}

	fractions := fractionsFromRatios(opts.Ratios, n)

	total := frame.Width
	if !horizontal {
		total = frame.Height
	}
	available := total - float64(n-1)*gap
	if available < 0 {
		available = 0
	}

	sizes := make([]float64, n)
	for i, f := range fractions {
		sizes[i] = available * f
	}
	sizes = enforceMinimums(sizes, ids, opts.Minimums, horizontal)

	pos := frame.X
	if !horizontal {
		pos = frame.Y
	}
	for i, id := range ids {
		if horizontal {
			out[id] = geometry.Rect{X: pos, Y: frame.Y, Width: sizes[i], Height: frame.Height}
		} else {
			out[id] = geometry.Rect{X: frame.X, Y: pos, Width: frame.Width, Height: sizes[i]}
		}
		pos += sizes[i] + gap
	}
}

// computeMasterStack gives ids[0] a MasterRatio fraction of the frame at
// the configured position and splits the remainder equally among the
// rest, stacked along the perpendicular axis.
func computeMasterStack(out map[backend.WindowID]geometry.Rect, ids []backend.WindowID, frame geometry.Rect, gap float64, opts Options) {
	if len(ids) == 1 {
		out[ids[0]] = frame
		return
	}

	ratio := opts.MasterRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultMasterRatio
	}

	var master, stack geometry.Rect
	switch opts.MasterPosition {
	case MasterRight:
		stack, master = frame.SplitH(1-ratio, gap)
	case MasterTop:
		master, stack = frame.SplitV(ratio, gap)
	case MasterBottom:
		stack, master = frame.SplitV(1-ratio, gap)
	default: // MasterLeft
		master, stack = frame.SplitH(ratio, gap)
	}
	out[ids[0]] = master

	// Stack runs perpendicular to the master split.
	stackIDs := ids[1:]
	stackHorizontal := opts.MasterPosition == MasterTop || opts.MasterPosition == MasterBottom
	computeSplit(out, stackIDs, stack, gap, Options{Minimums: opts.Minimums}, stackHorizontal)
}

// fractionsFromRatios converts a cumulative ratio list of length n-1 into
// n sibling fractions. Any other length, or a non-monotonic list, falls
// back to equal division.
func fractionsFromRatios(ratios []float64, n int) []float64 {
	fractions := make([]float64, n)
	if len(ratios) != n-1 {
		for i := range fractions {
			fractions[i] = 1 / float64(n)
		}
		return fractions
	}

	prev := 0.0
	for i, r := range ratios {
		if r <= prev || r >= 1 {
			// Malformed cumulative list; equal division.
			for j := range fractions {
				fractions[j] = 1 / float64(n)
			}
			return fractions
		}
		fractions[i] = r - prev
		prev = r
	}
	fractions[n-1] = 1 - prev
	return fractions
}
