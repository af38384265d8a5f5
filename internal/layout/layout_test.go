package layout

import (
	"math"
	"testing"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
)

var workFrame = geometry.Rect{X: 0, Y: 0, Width: 1200, Height: 800}

func windowIDs(n int) []backend.WindowID {
	ids := make([]backend.WindowID, n)
	for i := range ids {
		ids[i] = backend.WindowID(i + 1)
	}
	return ids
}

func TestComputeEmptyList(t *testing.T) {
	for typ := Floating; typ <= Grid; typ++ {
		out := Compute(typ, nil, workFrame, Gaps{}, Options{})
		if len(out) != 0 {
			t.Errorf("%v: expected empty map for empty window list, got %d entries", typ, len(out))
		}
	}
}

func TestFloatingReturnsNoAssignments(t *testing.T) {
	out := Compute(Floating, windowIDs(3), workFrame, Gaps{}, Options{})
	if len(out) != 0 {
		t.Fatalf("floating must not assign frames, got %d", len(out))
	}
}

func TestMonocleFillsFrame(t *testing.T) {
	ids := windowIDs(4)
	out := Compute(Monocle, ids, workFrame, Gaps{}, Options{})

	if len(out) != 4 {
		t.Fatalf("expected 4 assignments, got %d", len(out))
	}
	for _, id := range ids {
		if out[id] != workFrame {
			t.Errorf("window %d: expected full frame, got %+v", id, out[id])
		}
	}
}

func TestSingleWindowOuterGapOnly(t *testing.T) {
	ids := windowIDs(1)
	gaps := Gaps{Outer: 10, Inner: 5}

	for _, typ := range []Type{Monocle, SplitAuto, MasterStack, Dwindle, Grid} {
		out := Compute(typ, ids, workFrame, gaps, Options{})
		want := workFrame.Inset(10)
		if out[ids[0]] != want {
			t.Errorf("%v: expected %+v, got %+v", typ, want, out[ids[0]])
		}
	}
}

func TestSplitCumulativeRatios(t *testing.T) {
	// Ratios [0.3, 0.7] for 3 windows: widths proportional to the deltas
	// 0.3, 0.4, 0.3 and summing to the full 1200.
	ids := windowIDs(3)
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Ratios: []float64{0.3, 0.7}})

	wantWidths := []float64{360, 480, 360}
	total := 0.0
	for i, id := range ids {
		got := out[id].Width
		if math.Abs(got-wantWidths[i]) > 1e-9 {
			t.Errorf("window %d: width %v, want %v", id, got, wantWidths[i])
		}
		total += got
	}
	if math.Abs(total-1200) > 1e-9 {
		t.Errorf("widths sum to %v, want 1200", total)
	}
}

func TestSplitRatioLengthMismatchFallsBackToEqual(t *testing.T) {
	ids := windowIDs(4)
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Ratios: []float64{0.5}})

	for _, id := range ids {
		if math.Abs(out[id].Width-300) > 1e-9 {
			t.Errorf("window %d: width %v, want equal 300", id, out[id].Width)
		}
	}
}

func TestSplitNonMonotonicRatiosFallBackToEqual(t *testing.T) {
	ids := windowIDs(3)
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Ratios: []float64{0.7, 0.3}})

	for _, id := range ids {
		if math.Abs(out[id].Width-400) > 1e-9 {
			t.Errorf("window %d: width %v, want equal 400", id, out[id].Width)
		}
	}
}

func TestSplitAutoPicksAxis(t *testing.T) {
	ids := windowIDs(2)

	wide := geometry.Rect{Width: 1200, Height: 400}
	out := Compute(SplitAuto, ids, wide, Gaps{}, Options{})
	if out[ids[0]].Height != 400 {
		t.Error("wide frame should split horizontally")
	}

	tall := geometry.Rect{Width: 400, Height: 1200}
	out = Compute(SplitAuto, ids, tall, Gaps{}, Options{})
	if out[ids[0]].Width != 400 {
		t.Error("tall frame should split vertically")
	}
}

func TestMasterStackPositions(t *testing.T) {
	ids := windowIDs(3)

	tests := []struct {
		name string
		pos  MasterPosition
		// check receives the master frame.
		check func(t *testing.T, master geometry.Rect)
	}{
		{"left", MasterLeft, func(t *testing.T, m geometry.Rect) {
			if m.X != 0 || math.Abs(m.Width-720) > 1e-9 {
				t.Errorf("master at %+v, want left 60%%", m)
			}
		}},
		{"right", MasterRight, func(t *testing.T, m geometry.Rect) {
			if math.Abs(m.MaxX()-1200) > 1e-9 || math.Abs(m.Width-720) > 1e-9 {
				t.Errorf("master at %+v, want right 60%%", m)
			}
		}},
		{"top", MasterTop, func(t *testing.T, m geometry.Rect) {
			if m.Y != 0 || math.Abs(m.Height-480) > 1e-9 {
				t.Errorf("master at %+v, want top 60%%", m)
			}
		}},
		{"bottom", MasterBottom, func(t *testing.T, m geometry.Rect) {
			if math.Abs(m.MaxY()-800) > 1e-9 || math.Abs(m.Height-480) > 1e-9 {
				t.Errorf("master at %+v, want bottom 60%%", m)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Compute(MasterStack, ids, workFrame, Gaps{}, Options{MasterPosition: tt.pos})
			tt.check(t, out[ids[0]])

			// Stack windows split the remainder equally.
			if math.Abs(out[ids[1]].Area()-out[ids[2]].Area()) > 1e-6 {
				t.Errorf("stack windows unequal: %v vs %v", out[ids[1]].Area(), out[ids[2]].Area())
			}
		})
	}
}

func TestDwindleSpiral(t *testing.T) {
	ids := windowIDs(4)
	out := Compute(Dwindle, ids, workFrame, Gaps{}, Options{})

	// First split is horizontal (1200 >= 800): window 1 takes the left half.
	first := out[ids[0]]
	if math.Abs(first.Width-600) > 1e-9 || math.Abs(first.Height-800) > 1e-9 {
		t.Fatalf("first window %+v, want left half", first)
	}
	// Second split alternates to vertical.
	second := out[ids[1]]
	if math.Abs(second.Height-400) > 1e-9 {
		t.Fatalf("second window %+v, want top half of remainder", second)
	}
	// Last window gets whatever remains.
	last := out[ids[3]]
	if last.Empty() {
		t.Fatalf("last window must have area, got %+v", last)
	}
}

func TestDwindlePerLevelRatio(t *testing.T) {
	ids := windowIDs(3)
	out := Compute(Dwindle, ids, workFrame, Gaps{}, Options{Ratios: []float64{0.7}})

	if math.Abs(out[ids[0]].Width-840) > 1e-9 {
		t.Errorf("level-0 ratio 0.7: first window width %v, want 840", out[ids[0]].Width)
	}
}

func TestGridDimensions(t *testing.T) {
	tests := []struct {
		n          int
		rows, cols int
	}{
		{1, 1, 1},
		{2, 1, 2},
		{4, 2, 2},
		{6, 2, 3},
		{9, 3, 3},
	}
	for _, tt := range tests {
		rows, cols := gridDimensions(tt.n, workFrame)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("n=%d: got %dx%d, want %dx%d", tt.n, rows, cols, tt.rows, tt.cols)
		}
		if rows*cols < tt.n {
			t.Errorf("n=%d: grid %dx%d cannot hold all windows", tt.n, rows, cols)
		}
	}
}

func TestGridPrimaryRatio(t *testing.T) {
	ids := windowIDs(4)
	out := Compute(Grid, ids, workFrame, Gaps{}, Options{PrimaryRatio: 0.5})

	if math.Abs(out[ids[0]].Width-600) > 1e-9 {
		t.Errorf("primary column width %v, want 600", out[ids[0]].Width)
	}
	if math.Abs(out[ids[1]].Width-600) > 1e-9 {
		t.Errorf("second column width %v, want 600", out[ids[1]].Width)
	}
}

// No two rectangles overlap and the union never exceeds the frame area,
// for every partitioning layout and a range of window counts.
func TestNoOverlapAndAreaBound(t *testing.T) {
	types := []Type{Monocle, SplitAuto, SplitHorizontal, SplitVertical, MasterStack, Dwindle, Grid}
	for _, typ := range types {
		for n := 1; n <= 7; n++ {
			if typ == Monocle && n > 1 {
				continue // monocle windows intentionally overlap
			}
			ids := windowIDs(n)
			out := Compute(typ, ids, workFrame, Gaps{Outer: 8, Inner: 4}, Options{})

			totalArea := 0.0
			for i, a := range ids {
				totalArea += out[a].Area()
				for _, b := range ids[i+1:] {
					if out[a].Intersects(out[b]) {
						t.Errorf("%v n=%d: windows %d and %d overlap: %+v / %+v",
							typ, n, a, b, out[a], out[b])
					}
				}
			}
			if totalArea > workFrame.Area()+1e-6 {
				t.Errorf("%v n=%d: total area %v exceeds frame area %v",
					typ, n, totalArea, workFrame.Area())
			}
		}
	}
}

func TestDegenerateFrame(t *testing.T) {
	zero := geometry.Rect{}
	for typ := Floating; typ <= Grid; typ++ {
		out := Compute(typ, windowIDs(3), zero, Gaps{Outer: 5, Inner: 5}, Options{})
		for id, r := range out {
			if r.Area() != 0 {
				t.Errorf("%v: window %d has area %v on zero frame", typ, id, r.Area())
			}
		}
	}
}

func TestMinimumSizeRedistribution(t *testing.T) {
	ids := windowIDs(2)
	minimums := map[backend.WindowID]geometry.Size{
		ids[0]: {Width: 800},
	}
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Minimums: minimums})

	if out[ids[0]].Width < 800 {
		t.Errorf("window 1 below minimum: %v", out[ids[0]].Width)
	}
	if got := out[ids[0]].Width + out[ids[1]].Width; math.Abs(got-1200) > 1e-9 {
		t.Errorf("redistribution must preserve total width, got %v", got)
	}
}

func TestJointlyInfeasibleMinimums(t *testing.T) {
	// Combined minimum width 1600 exceeds the 1200 frame: both clamp to
	// their minimums, total allocated width >= available, no panic.
	ids := windowIDs(2)
	minimums := map[backend.WindowID]geometry.Size{
		ids[0]: {Width: 900},
		ids[1]: {Width: 700},
	}
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Minimums: minimums})

	if out[ids[0]].Width < 900 || out[ids[1]].Width < 700 {
		t.Errorf("windows not clamped to minimums: %v and %v",
			out[ids[0]].Width, out[ids[1]].Width)
	}
	if total := out[ids[0]].Width + out[ids[1]].Width; total < 1200 {
		t.Errorf("best-effort total %v must be >= available width", total)
	}
}

func TestDeriveSplitRatiosRoundTrip(t *testing.T) {
	ids := windowIDs(3)
	ratios := []float64{0.25, 0.65}
	out := Compute(SplitHorizontal, ids, workFrame, Gaps{}, Options{Ratios: ratios})

	frames := make([]geometry.Rect, len(ids))
	for i, id := range ids {
		frames[i] = out[id]
	}
	derived := DeriveSplitRatios(frames, true)

	if len(derived) != len(ratios) {
		t.Fatalf("expected %d ratios, got %d", len(ratios), len(derived))
	}
	for i := range ratios {
		if math.Abs(derived[i]-ratios[i]) > 1e-9 {
			t.Errorf("ratio %d: derived %v, want %v", i, derived[i], ratios[i])
		}
	}
}

func TestParseTypeRoundTrip(t *testing.T) {
	for typ := Floating; typ <= Grid; typ++ {
		parsed, ok := ParseType(typ.String())
		if !ok || parsed != typ {
			t.Errorf("round trip failed for %v", typ)
		}
	}
	if _, ok := ParseType("cascade"); ok {
		t.Error("expected failure for unknown layout name")
	}
}

func TestTypeCycleSkipsFloating(t *testing.T) {
	seen := map[Type]bool{}
	typ := Monocle
	for i := 0; i < 10; i++ {
		if typ == Floating {
			t.Fatal("cycle must never land on floating")
		}
		seen[typ] = true
		typ = typ.Next()
	}
	if len(seen) != 7 {
		t.Errorf("cycle covers %d layouts, want 7", len(seen))
	}
}
