package geometry

import (
	"math"
	"testing"
)

func TestInset(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 100, Height: 60}

	inset := r.Inset(10)
	if inset.X != 10 || inset.Y != 10 || inset.Width != 80 || inset.Height != 40 {
		t.Fatalf("unexpected inset result: %+v", inset)
	}
}

func TestInsetDegenerate(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	inset := r.Inset(20)
	if !inset.Empty() {
		t.Fatalf("expected empty rect when inset exceeds size, got %+v", inset)
	}
	if inset.Width < 0 || inset.Height < 0 {
		t.Fatalf("inset must not produce negative dimensions: %+v", inset)
	}
}

func TestSplitH(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 120, Height: 80}

	left, right := r.SplitH(0.5, 0)
	if left.Width != 60 || right.Width != 60 {
		t.Fatalf("expected equal halves, got %v and %v", left.Width, right.Width)
	}
	if right.X != 60 {
		t.Fatalf("expected right half at x=60, got %v", right.X)
	}

	// Widths plus gap must cover the full frame.
	left, right = r.SplitH(0.25, 4)
	if got := left.Width + right.Width + 4; math.Abs(got-120) > 1e-9 {
		t.Fatalf("split does not cover frame: %v", got)
	}
}

func TestSplitVCoversFrame(t *testing.T) {
	r := Rect{X: 5, Y: 5, Width: 50, Height: 200}

	top, bottom := r.SplitV(0.7, 6)
	if got := top.Height + bottom.Height + 6; math.Abs(got-200) > 1e-9 {
		t.Fatalf("split does not cover frame: %v", got)
	}
	if bottom.Y != top.MaxY()+6 {
		t.Fatalf("bottom not adjacent to top: %v vs %v", bottom.Y, top.MaxY()+6)
	}
}

func TestIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 10, Y: 0, Width: 10, Height: 10}
	c := Rect{X: 5, Y: 5, Width: 10, Height: 10}

	if a.Intersects(b) {
		t.Error("edge-adjacent rects must not intersect")
	}
	if !a.Intersects(c) {
		t.Error("overlapping rects must intersect")
	}
}

func TestIsToward(t *testing.T) {
	origin := Rect{X: 100, Y: 100, Width: 50, Height: 50}

	tests := []struct {
		name      string
		candidate Rect
		dir       Direction
		want      bool
	}{
		{"left of origin", Rect{X: 0, Y: 100, Width: 50, Height: 50}, DirLeft, true},
		{"right of origin", Rect{X: 200, Y: 100, Width: 50, Height: 50}, DirRight, true},
		{"above origin", Rect{X: 100, Y: 0, Width: 50, Height: 50}, DirUp, true},
		{"below origin", Rect{X: 100, Y: 200, Width: 50, Height: 50}, DirDown, true},
		{"same position", origin, DirLeft, false},
		{"right when asked left", Rect{X: 200, Y: 100, Width: 50, Height: 50}, DirLeft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsToward(origin, tt.candidate, tt.dir); got != tt.want {
				t.Errorf("IsToward(%v) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"left", "right", "up", "down"} {
		d, ok := ParseDirection(s)
		if !ok {
			t.Fatalf("ParseDirection(%q) failed", s)
		}
		if d.String() != s {
			t.Errorf("round trip mismatch: %q -> %q", s, d.String())
		}
	}

	if _, ok := ParseDirection("sideways"); ok {
		t.Error("expected failure for unknown direction")
	}
}
