package border

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/effects"
	"github.com/tidalwm/tidal/internal/geometry"
)

func listen(t *testing.T) (string, chan update) {
	t.Helper()
	sock := filepath.Join(t.TempDir(), "border.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan update, 16)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				sc := bufio.NewScanner(conn)
				for sc.Scan() {
					var u update
					if json.Unmarshal(sc.Bytes(), &u) == nil {
						got <- u
					}
				}
			}(conn)
		}
	}()
	return sock, got
}

func TestApplySendsBatchedUpdate(t *testing.T) {
	sock, got := listen(t)
	c := NewClient(Config{SocketPath: sock, ActiveColor: "0xffe1e3e4", Width: 4})
	defer c.Close()

	c.Apply(effects.BorderState{
		Focused: 2,
		Frames: map[backend.WindowID]geometry.Rect{
			1: {X: 0, Y: 30, Width: 960, Height: 1050},
			2: {X: 960, Y: 30, Width: 960, Height: 1050},
		},
	})

	select {
	case u := <-got:
		if u.Focused != 2 {
			t.Errorf("focused = %d, want 2", u.Focused)
		}
		if len(u.Windows) != 2 {
			t.Errorf("got %d windows in one update, want 2", len(u.Windows))
		}
		if u.ActiveColor != "0xffe1e3e4" || u.Width != 4 {
			t.Errorf("style not forwarded: %+v", u)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update received")
	}
}

func TestDisabledClientIsNoOp(t *testing.T) {
	c := NewClient(Config{})
	c.Apply(effects.BorderState{Focused: 1})
	c.Close()
}

func TestHelperNotRunning(t *testing.T) {
	c := NewClient(Config{SocketPath: filepath.Join(t.TempDir(), "absent.sock")})
	defer c.Close()
	// Must not panic or block; the update is dropped.
	c.Apply(effects.BorderState{Focused: 1})
}

func TestReconnectsAfterHelperRestart(t *testing.T) {
	sock, got := listen(t)
	c := NewClient(Config{SocketPath: sock})
	defer c.Close()

	st := effects.BorderState{Focused: 1, Frames: map[backend.WindowID]geometry.Rect{1: {Width: 100, Height: 100}}}
	c.Apply(st)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("first update not received")
	}

	// Kill the connection server-side; the next apply must reconnect.
	// The first write after a dead peer may be swallowed by the socket
	// buffer, so apply twice.
	c.mu.Lock()
	c.conn.Close()
	c.mu.Unlock()

	c.Apply(st)
	c.Apply(st)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no update after reconnect")
	}
}
