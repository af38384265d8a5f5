// Package geometry provides the rectangle type and pure helpers used by
// the layout engine and the animation system. All coordinates are in
// screen space with the origin at the top-left corner.
package geometry

import "math"

// Rect is an axis-aligned rectangle in screen coordinates.
// Equality is exact floating-point comparison; the layout engine is
// deterministic so identical inputs produce identical rectangles, which
// makes == usable for change detection.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Point is a position in screen coordinates.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair, used for minimum-size constraints.
type Size struct {
	Width  float64
	Height float64
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the rectangle's area, or 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// MaxX returns the right edge of the rectangle.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY returns the bottom edge of the rectangle.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Inset shrinks the rectangle by the given amount on every edge.
// Degenerate results collapse to a zero-area rectangle at the center
// rather than producing negative dimensions.
func (r Rect) Inset(amount float64) Rect {
	out := Rect{
		X:      r.X + amount,
		Y:      r.Y + amount,
		Width:  r.Width - 2*amount,
		Height: r.Height - 2*amount,
	}
	if out.Width < 0 {
		out.X = r.X + r.Width/2
		out.Width = 0
	}
	if out.Height < 0 {
		out.Y = r.Y + r.Height/2
		out.Height = 0
	}
	return out
}

// SplitH splits the rectangle at the given fraction of its width,
// returning the left and right parts separated by gap.
func (r Rect) SplitH(fraction, gap float64) (Rect, Rect) {
	fraction = clamp01(fraction)
	leftWidth := r.Width*fraction - gap/2
	rightWidth := r.Width - leftWidth - gap
	if leftWidth < 0 {
		leftWidth = 0
	}
	if rightWidth < 0 {
		rightWidth = 0
	}
	left := Rect{X: r.X, Y: r.Y, Width: leftWidth, Height: r.Height}
	right := Rect{X: r.X + leftWidth + gap, Y: r.Y, Width: rightWidth, Height: r.Height}
	return left, right
}

// SplitV splits the rectangle at the given fraction of its height,
// returning the top and bottom parts separated by gap.
func (r Rect) SplitV(fraction, gap float64) (Rect, Rect) {
	fraction = clamp01(fraction)
	topHeight := r.Height*fraction - gap/2
	bottomHeight := r.Height - topHeight - gap
	if topHeight < 0 {
		topHeight = 0
	}
	if bottomHeight < 0 {
		bottomHeight = 0
	}
	top := Rect{X: r.X, Y: r.Y, Width: r.Width, Height: topHeight}
	bottom := Rect{X: r.X, Y: r.Y + topHeight + gap, Width: r.Width, Height: bottomHeight}
	return top, bottom
}

// Intersects reports whether two rectangles overlap with positive area.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.MaxX() && other.X < r.MaxX() &&
		r.Y < other.MaxY() && other.Y < r.MaxY()
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// Direction identifies one of the four cardinal directions for
// directional focus and swap operations.
type Direction int

const (
	// DirLeft points toward negative X.
	DirLeft Direction = iota
	// DirRight points toward positive X.
	DirRight
	// DirUp points toward negative Y.
	DirUp
	// DirDown points toward positive Y.
	DirDown
)

// String returns the lowercase direction name.
func (d Direction) String() string {
	switch d {
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseDirection maps a direction name to its Direction value.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "left":
		return DirLeft, true
	case "right":
		return DirRight, true
	case "up":
		return DirUp, true
	case "down":
		return DirDown, true
	}
	return 0, false
}

// IsToward reports whether candidate lies in the given direction from
// origin, judged by center positions with a small tolerance so that
// windows sharing an edge still count.
func IsToward(origin, candidate Rect, dir Direction) bool {
	const tolerance = 1.0
	oc := origin.Center()
	cc := candidate.Center()
	switch dir {
	case DirLeft:
		return cc.X < oc.X-tolerance
	case DirRight:
		return cc.X > oc.X+tolerance
	case DirUp:
		return cc.Y < oc.Y-tolerance
	case DirDown:
		return cc.Y > oc.Y+tolerance
	}
	return false
}

// Distance returns the Euclidean distance between the centers of two
// rectangles, used to pick the nearest neighbor in a direction.
func Distance(a, b Rect) float64 {
	ac := a.Center()
	bc := b.Center()
	return math.Hypot(ac.X-bc.X, ac.Y-bc.Y)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
