package drag

import (
	"sync"
	"testing"

	"github.com/tidalwm/tidal/internal/geometry"
)

func TestTrackerLifecycle(t *testing.T) {
	var tr Tracker

	if tr.Active() {
		t.Error("fresh tracker reports active")
	}
	if _, ok := tr.End(); ok {
		t.Error("End without Begin reported a session")
	}

	origin := geometry.Rect{X: 100, Y: 100, Width: 640, Height: 480}
	tr.Begin(5, KindMove, origin)

	if !tr.Active() {
		t.Error("tracker not active after Begin")
	}
	if !tr.Dragging(5) {
		t.Error("window 5 not reported as dragging")
	}
	if tr.Dragging(6) {
		t.Error("window 6 reported as dragging")
	}
	s, ok := tr.Current()
	if !ok || s.Window != 5 || s.Kind != KindMove || s.Origin != origin {
		t.Errorf("Current = %+v ok=%v", s, ok)
	}

	s, ok = tr.End()
	if !ok || s.Window != 5 {
		t.Errorf("End = %+v ok=%v, want session for window 5", s, ok)
	}
	if tr.Active() {
		t.Error("tracker still active after End")
	}
	if _, ok := tr.End(); ok {
		t.Error("second End reported a session")
	}
}

func TestTrackerBeginReplaces(t *testing.T) {
	var tr Tracker
	tr.Begin(1, KindMove, geometry.Rect{})
	tr.Begin(2, KindResize, geometry.Rect{X: 10})

	s, ok := tr.End()
	if !ok || s.Window != 2 || s.Kind != KindResize {
		t.Errorf("End = %+v, want the replacing session", s)
	}
}

func TestTrackerConcurrentReads(t *testing.T) {
	var tr Tracker
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Begin(7, KindMove, geometry.Rect{X: float64(i)})
			tr.End()
		}
	}()
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				tr.Active()
				tr.Dragging(7)
				tr.Current()
			}
		}()
	}
	wg.Wait()
}
