package ipc

import (
	"strings"
	"testing"
	"time"

	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/effects"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
	"github.com/tidalwm/tidal/internal/state"
)

func startDaemon(t *testing.T, retryInit func() error) (*Server, *Client, *state.Actor, chan struct{}) {
	t.Helper()
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	actor := state.NewActor(state.Config{
		Workspaces:    []string{"main", "web"},
		DefaultLayout: layout.SplitAuto,
	})
	go actor.Run()
	t.Cleanup(actor.Stop)

	if err := actor.Do(state.EvScreensChanged{Screens: []backend.ScreenInfo{{
		ID:        1,
		Frame:     geometry.Rect{Width: 1920, Height: 1080},
		WorkFrame: geometry.Rect{Y: 30, Width: 1920, Height: 1050},
	}}}); err != nil {
		t.Fatalf("seed screens: %v", err)
	}

	reload := make(chan struct{}, 1)
	srv, err := NewServer(actor, "test", retryInit, reload)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)

	return srv, NewClient(), actor, reload
}

func TestStatusRoundTrip(t *testing.T) {
	_, client, _, _ := startDaemon(t, nil)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Tiling {
		t.Error("status reports tiling inactive")
	}
	if status.ScreenCount != 1 {
		t.Errorf("ScreenCount = %d, want 1", status.ScreenCount)
	}
	if status.Version != "test" {
		t.Errorf("Version = %q, want test", status.Version)
	}
}

func TestWorkspaceCommands(t *testing.T) {
	_, client, _, _ := startDaemon(t, nil)

	if err := client.SwitchWorkspace("web"); err != nil {
		t.Fatalf("SwitchWorkspace: %v", err)
	}
	workspaces, err := client.Workspaces(0)
	if err != nil {
		t.Fatalf("Workspaces: %v", err)
	}
	visible := map[string]uint32{}
	for _, ws := range workspaces {
		visible[ws.Name] = ws.Screen
	}
	if visible["web"] != 1 {
		t.Errorf("web on screen %d, want 1", visible["web"])
	}
	if visible["main"] != 0 {
		t.Errorf("main on screen %d, want hidden", visible["main"])
	}

	err = client.SwitchWorkspace("nope")
	if err == nil || !strings.Contains(err.Error(), "unknown workspace") {
		t.Errorf("switch to missing workspace: err = %v", err)
	}
}

func TestLayoutCommands(t *testing.T) {
	_, client, _, _ := startDaemon(t, nil)

	if err := client.SetLayout("grid"); err != nil {
		t.Fatalf("SetLayout: %v", err)
	}
	workspaces, err := client.Workspaces(1)
	if err != nil {
		t.Fatalf("Workspaces: %v", err)
	}
	if len(workspaces) != 1 || workspaces[0].Layout != "grid" {
		t.Errorf("workspaces = %+v, want the visible one with grid layout", workspaces)
	}

	if err := client.SetLayout("bogus"); err == nil {
		t.Error("bogus layout accepted")
	}
}

func TestWindowsQuery(t *testing.T) {
	_, client, actor, _ := startDaemon(t, nil)

	if err := actor.Do(state.EvWindowCreated{Info: backend.WindowInfo{
		ID: 11, PID: 100, AppName: "editor", Title: "notes",
		Frame: geometry.Rect{Width: 800, Height: 600},
	}}); err != nil {
		t.Fatalf("seed window: %v", err)
	}

	windows, err := client.Windows("")
	if err != nil {
		t.Fatalf("Windows: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("got %d windows, want 1", len(windows))
	}
	if windows[0].ID != 11 || windows[0].App != "editor" {
		t.Errorf("window = %+v", windows[0])
	}
	if windows[0].Workspace == "" {
		t.Error("window has no workspace name")
	}
}

func TestMoveWindowValidation(t *testing.T) {
	_, client, _, _ := startDaemon(t, nil)

	err := client.command(CommandMoveWindow, MoveWindowPayload{})
	if err == nil || !strings.Contains(err.Error(), "specify") {
		t.Errorf("empty move payload: err = %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, client, _, _ := startDaemon(t, nil)

	err := client.command(CommandType("NOPE"), nil)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("err = %v, want unknown command", err)
	}
}

func TestReloadSignalsDaemon(t *testing.T) {
	_, client, _, reload := startDaemon(t, nil)

	if err := client.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	select {
	case <-reload:
	case <-time.After(2 * time.Second):
		t.Fatal("reload channel not signalled")
	}
}

func TestRetryInit(t *testing.T) {
	calls := 0
	_, client, _, _ := startDaemon(t, func() error {
		calls++
		return nil
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Tiling {
		t.Error("tiling reported active before retry")
	}

	if err := client.RetryInit(); err != nil {
		t.Fatalf("RetryInit: %v", err)
	}
	if calls != 1 {
		t.Errorf("retryInit called %d times, want 1", calls)
	}

	// A second retry is a no-op once tiling is up.
	if err := client.RetryInit(); err != nil {
		t.Fatalf("second RetryInit: %v", err)
	}
	if calls != 1 {
		t.Errorf("retryInit called %d times after second retry, want 1", calls)
	}

	status, err = client.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Tiling {
		t.Error("tiling not reported active after retry")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	srv, client, _, _ := startDaemon(t, nil)

	events, stop, err := client.Subscribe()
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	srv.Publish(effects.Notification{
		Moved:        []backend.WindowID{1, 2},
		FocusChanged: true,
		Focused:      2,
	})

	select {
	case ev := <-events:
		if ev.Kind != "layout" {
			t.Errorf("kind = %q, want layout", ev.Kind)
		}
		if ev.Focused != 2 || len(ev.Moved) != 2 {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestSocketPathFollowsRuntimeDir(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	sock, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath: %v", err)
	}
	if !strings.HasPrefix(sock, td) {
		t.Errorf("socket %q not under runtime dir %q", sock, td)
	}
	if !strings.HasSuffix(sock, "tidal.sock") {
		t.Errorf("socket %q missing expected name", sock)
	}
}

func TestSocketPathWithoutRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("TMPDIR", t.TempDir())

	sock, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath: %v", err)
	}
	if sock == "" {
		t.Fatal("empty socket path")
	}
}
