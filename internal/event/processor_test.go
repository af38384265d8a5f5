package event

import (
	"sync"
	"testing"
	"time"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/state"
)

// recordingSink collects posted messages for assertions.
type recordingSink struct {
	mu   sync.Mutex
	msgs []state.Message
}

func (s *recordingSink) Post(msg state.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) messages() []state.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]state.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *recordingSink) count(match func(state.Message) bool) int {
	n := 0
	for _, msg := range s.messages() {
		if match(msg) {
			n++
		}
	}
	return n
}

func startProcessor(t *testing.T, sink Sink, opts Options) (chan backend.Event, func()) {
	t.Helper()
	events := make(chan backend.Event, 64)
	done := make(chan struct{})
	p := NewProcessor(sink, opts)
	go func() {
		defer close(done)
		p.Run(events)
	}()
	return events, func() {
		close(events)
		<-done
	}
}

func isMoved(msg state.Message) bool {
	_, ok := msg.(state.EvWindowMoved)
	return ok
}

func TestCoalescesGeometryBurst(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: 30 * time.Millisecond})

	frames := []geometry.Rect{
		{X: 10, Y: 0, Width: 800, Height: 600},
		{X: 20, Y: 0, Width: 800, Height: 600},
		{X: 30, Y: 0, Width: 800, Height: 600},
		{X: 40, Y: 0, Width: 800, Height: 600},
		{X: 50, Y: 0, Width: 800, Height: 600},
	}
	for _, f := range frames {
		events <- backend.Event{Kind: backend.EventWindowMoved, Window: 1, Frame: f}
	}

	time.Sleep(100 * time.Millisecond)
	stop()

	if got := sink.count(isMoved); got != 1 {
		t.Fatalf("forwarded %d move messages, want 1", got)
	}
	moved := sink.messages()[0].(state.EvWindowMoved)
	if moved.Frame.X != 50 {
		t.Errorf("forwarded frame X = %v, want 50 (newest event wins)", moved.Frame.X)
	}
}

func TestCoalescesPerWindowAndKind(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: 30 * time.Millisecond})

	// Two windows moving plus one resizing: three independent keys.
	for i := 0; i < 4; i++ {
		events <- backend.Event{Kind: backend.EventWindowMoved, Window: 1, Frame: geometry.Rect{X: float64(i)}}
		events <- backend.Event{Kind: backend.EventWindowMoved, Window: 2, Frame: geometry.Rect{X: float64(i)}}
		events <- backend.Event{Kind: backend.EventWindowResized, Window: 1, Frame: geometry.Rect{Width: float64(100 + i)}}
	}

	time.Sleep(100 * time.Millisecond)
	stop()

	moves := sink.count(isMoved)
	resizes := sink.count(func(m state.Message) bool {
		_, ok := m.(state.EvWindowResized)
		return ok
	})
	if moves != 2 {
		t.Errorf("forwarded %d move messages, want 2 (one per window)", moves)
	}
	if resizes != 1 {
		t.Errorf("forwarded %d resize messages, want 1", resizes)
	}
}

func TestDragEndAlwaysForwarded(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: time.Hour})

	for i := 0; i < 10; i++ {
		events <- backend.Event{Kind: backend.EventWindowMoved, Window: 1, Frame: geometry.Rect{X: float64(i)}}
	}
	final := geometry.Rect{X: 500, Y: 300, Width: 640, Height: 480}
	events <- backend.Event{Kind: backend.EventDragEnded, Window: 1, Frame: final}

	// The hour-long coalesce window never fires; only drag-end gets out.
	time.Sleep(50 * time.Millisecond)

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want exactly the drag-end", len(msgs))
	}
	de, ok := msgs[0].(state.EvDragEnded)
	if !ok {
		t.Fatalf("got %T, want EvDragEnded", msgs[0])
	}
	if de.Frame != final {
		t.Errorf("drag-end frame = %+v, want %+v", de.Frame, final)
	}

	stop()
	// Shutdown must not replay the superseded batched moves.
	if got := sink.count(isMoved); got != 0 {
		t.Errorf("flushed %d stale move messages after drag-end", got)
	}
}

func TestDestroyDropsPendingGeometry(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: time.Hour})

	events <- backend.Event{Kind: backend.EventWindowMoved, Window: 7, Frame: geometry.Rect{X: 1}}
	events <- backend.Event{Kind: backend.EventWindowDestroyed, Window: 7}

	time.Sleep(50 * time.Millisecond)
	stop()

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if _, ok := msgs[0].(state.EvWindowDestroyed); !ok {
		t.Errorf("got %T, want EvWindowDestroyed", msgs[0])
	}
}

func TestLifecycleEventsForwardImmediately(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: time.Hour})
	defer stop()

	info := backend.WindowInfo{ID: 3, PID: 42, AppName: "editor", Frame: geometry.Rect{Width: 800, Height: 600}}
	events <- backend.Event{Kind: backend.EventWindowCreated, Window: 3, Info: &info}
	events <- backend.Event{Kind: backend.EventWindowFocused, Window: 3}

	deadline := time.After(time.Second)
	for {
		if len(sink.messages()) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("lifecycle events not forwarded, got %d messages", len(sink.messages()))
		case <-time.After(time.Millisecond):
		}
	}

	msgs := sink.messages()
	created, ok := msgs[0].(state.EvWindowCreated)
	if !ok {
		t.Fatalf("first message is %T, want EvWindowCreated", msgs[0])
	}
	if created.Info.AppName != "editor" {
		t.Errorf("created info app = %q, want editor", created.Info.AppName)
	}
	if _, ok := msgs[1].(state.EvWindowFocused); !ok {
		t.Errorf("second message is %T, want EvWindowFocused", msgs[1])
	}
}

func TestMinimizeRestoreForwardImmediately(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: time.Hour})

	events <- backend.Event{Kind: backend.EventWindowMinimized, Window: 5}
	events <- backend.Event{Kind: backend.EventWindowRestored, Window: 5}

	time.Sleep(50 * time.Millisecond)
	stop()

	msgs := sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if min, ok := msgs[0].(state.EvWindowMinimized); !ok || min.ID != 5 {
		t.Errorf("first message %+v, want EvWindowMinimized for 5", msgs[0])
	}
	if res, ok := msgs[1].(state.EvWindowRestored); !ok || res.ID != 5 {
		t.Errorf("second message %+v, want EvWindowRestored for 5", msgs[1])
	}
}

func TestScreenChangeDebounced(t *testing.T) {
	sink := &recordingSink{}
	screens := []backend.ScreenInfo{
		{ID: 1, Frame: geometry.Rect{Width: 2560, Height: 1440}, WorkFrame: geometry.Rect{Y: 30, Width: 2560, Height: 1410}},
	}
	events, stop := startProcessor(t, sink, Options{
		CoalesceWindow: 5 * time.Millisecond,
		ScreenDebounce: 40 * time.Millisecond,
		Screens: func() ([]backend.ScreenInfo, error) {
			return screens, nil
		},
	})

	// A reconfiguration burst: five notifications close together.
	for i := 0; i < 5; i++ {
		events <- backend.Event{Kind: backend.EventScreensChanged}
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)
	stop()

	changed := 0
	for _, msg := range sink.messages() {
		if sc, ok := msg.(state.EvScreensChanged); ok {
			changed++
			if len(sc.Screens) != 1 || sc.Screens[0].ID != 1 {
				t.Errorf("forwarded screens = %+v, want the enumerated configuration", sc.Screens)
			}
		}
	}
	if changed != 1 {
		t.Errorf("forwarded %d screen-change messages, want 1", changed)
	}
}

func TestSuppressedWindowsDropGeometry(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{
		CoalesceWindow: 10 * time.Millisecond,
		Suppress: func(id backend.WindowID) bool {
			return id == 9
		},
	})

	events <- backend.Event{Kind: backend.EventWindowMoved, Window: 9, Frame: geometry.Rect{X: 1}}
	events <- backend.Event{Kind: backend.EventWindowMoved, Window: 10, Frame: geometry.Rect{X: 2}}

	time.Sleep(60 * time.Millisecond)
	stop()

	if got := sink.count(isMoved); got != 1 {
		t.Fatalf("forwarded %d move messages, want 1 (suppressed window dropped)", got)
	}
	moved := sink.messages()[0].(state.EvWindowMoved)
	if moved.ID != 10 {
		t.Errorf("forwarded window %d, want 10", moved.ID)
	}
}

func TestShutdownFlushesPending(t *testing.T) {
	sink := &recordingSink{}
	events, stop := startProcessor(t, sink, Options{CoalesceWindow: time.Hour})

	events <- backend.Event{Kind: backend.EventWindowMoved, Window: 4, Frame: geometry.Rect{X: 77}}
	time.Sleep(20 * time.Millisecond)
	stop()

	if got := sink.count(isMoved); got != 1 {
		t.Fatalf("forwarded %d move messages after shutdown, want 1", got)
	}
	moved := sink.messages()[0].(state.EvWindowMoved)
	if moved.Frame.X != 77 {
		t.Errorf("flushed frame X = %v, want 77", moved.Frame.X)
	}
}
