package backend

import (
	"sync"
	"testing"

	"github.com/tidalwm/tidal/internal/geometry"
)

// Closing the stream while adapter callbacks are still emitting must
// never send on the closed channel.
func TestCloseRacingEmit(t *testing.T) {
	f := NewFake()
	f.AddWindow(WindowInfo{ID: 1, Frame: geometry.Rect{Width: 100, Height: 100}})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				f.MoveWindow(1, geometry.Rect{X: float64(i), Width: 100, Height: 100})
			}
		}()
	}

	f.Close()
	wg.Wait()

	// Drains only because the channel really closed.
	for range f.Events() {
	}
}

func TestEmitAfterCloseDropped(t *testing.T) {
	f := NewFake()
	f.Close()
	f.RestoreWindow(1)
	f.MinimizeWindow(1)

	if _, ok := <-f.Events(); ok {
		t.Error("event delivered after close")
	}
}
