package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/effects"
	"github.com/tidalwm/tidal/internal/geometry"
	"github.com/tidalwm/tidal/internal/layout"
	"github.com/tidalwm/tidal/internal/state"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "ipc",
})

// SetLogLevel sets the logging level for the ipc package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Server answers requests on the daemon socket and pushes events to
// subscribers.
type Server struct {
	socketPath string
	listener   net.Listener
	actor      *state.Actor
	version    string
	startTime  time.Time

	// retryInit re-checks the OS permission and brings tiling up; nil
	// while tiling is already active.
	retryMu   sync.Mutex
	retryInit func() error
	tiling    bool

	reloadChan chan struct{}

	subMu        sync.Mutex
	subscribers  map[net.Conn]struct{}
	shuttingDown bool
}

// NewServer creates a server for the per-user socket. retryInit may be
// nil when tiling started successfully.
func NewServer(actor *state.Actor, version string, retryInit func() error, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve socket path: %w", err)
	}
	os.Remove(socketPath)

	return &Server{
		socketPath:  socketPath,
		actor:       actor,
		version:     version,
		startTime:   time.Now(),
		retryInit:   retryInit,
		tiling:      retryInit == nil,
		reloadChan:  reloadChan,
		subscribers: make(map[net.Conn]struct{}),
	}, nil
}

// Start begins listening.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	logger.Info("listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and all subscriber connections.
func (s *Server) Stop() {
	s.subMu.Lock()
	s.shuttingDown = true
	for conn := range s.subscribers {
		conn.Close()
	}
	s.subscribers = make(map[net.Conn]struct{})
	s.subMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// Publish pushes one change notification to every subscriber. It is
// wired as the effect executor's notify hook.
func (s *Server) Publish(n effects.Notification) {
	ev := Event{Kind: "layout", Focused: uint32(n.Focused)}
	if n.FocusChanged && len(n.Moved) == 0 {
		ev.Kind = "focus"
	}
	for _, id := range n.Moved {
		ev.Moved = append(ev.Moved, uint32(id))
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	payload = append(payload, '\n')

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for conn := range s.subscribers {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if _, err := conn.Write(payload); err != nil {
			conn.Close()
			delete(s.subscribers, conn)
		}
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.subMu.Lock()
			down := s.shuttingDown
			s.subMu.Unlock()
			if down || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Error("accept failed", "err", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		conn.Close()
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.reply(conn, NewErrorResponse(fmt.Sprintf("invalid request: %v", err)))
		conn.Close()
		return
	}

	if req.Command == CommandSubscribe {
		s.subscribe(conn)
		return
	}
	defer conn.Close()
	s.reply(conn, s.handleCommand(req))
}

// subscribe acknowledges and keeps the connection open for pushed
// events until the peer goes away.
func (s *Server) subscribe(conn net.Conn) {
	s.subMu.Lock()
	if s.shuttingDown {
		s.subMu.Unlock()
		conn.Close()
		return
	}
	s.subscribers[conn] = struct{}{}
	s.subMu.Unlock()

	resp, _ := NewOKResponse(nil)
	s.reply(conn, resp)

	// Detect disconnect by reading; subscribers never send again.
	go func() {
		io.Copy(io.Discard, conn)
		s.subMu.Lock()
		delete(s.subscribers, conn)
		s.subMu.Unlock()
		conn.Close()
	}()
}

func (s *Server) reply(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		logger.Error("failed to marshal response", "err", err)
		return
	}
	data = append(data, '\n')
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := conn.Write(data); err != nil {
		logger.Debug("failed to send response", "err", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetScreens:
		return s.handleGetScreens()
	case CommandGetWorkspaces:
		return s.handleGetWorkspaces(req)
	case CommandGetWindows:
		return s.handleGetWindows(req)
	case CommandSwitchWorkspace:
		var p NamePayload
		if err := decode(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.do(state.CmdSwitchWorkspace{Name: p.Name})
	case CommandCycleWorkspace:
		var p CyclePayload
		decode(req, &p)
		return s.do(state.CmdCycleWorkspace{Backward: p.Backward})
	case CommandBalance:
		return s.do(state.CmdBalanceWorkspace{})
	case CommandSendToScreen:
		var p ScreenPayload
		if err := decode(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.do(state.CmdSendWorkspaceToScreen{Name: p.Name, Screen: backend.ScreenID(p.Screen)})
	case CommandSetLayout:
		var p LayoutPayload
		if err := decode(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		t, ok := layout.ParseType(p.Layout)
		if !ok {
			return NewErrorResponse(fmt.Sprintf("unknown layout: %s", p.Layout))
		}
		return s.do(state.CmdSetLayout{Layout: t})
	case CommandCycleLayout:
		return s.do(state.CmdCycleLayout{})
	case CommandFocus:
		return s.directional(req, false)
	case CommandSwap:
		return s.directional(req, true)
	case CommandResizeSplit:
		var p ResizeSplitPayload
		if err := decode(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.do(state.CmdResizeSplit{Index: p.Index, Delta: p.Delta})
	case CommandApplyPreset:
		var p PresetPayload
		if err := decode(req, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.do(state.CmdApplyFloatingPreset{Preset: p.Preset})
	case CommandMoveWindow:
		return s.handleMoveWindow(req)
	case CommandToggleFloating:
		var p WindowPayload
		decode(req, &p)
		return s.do(state.CmdToggleFloating{Window: backend.WindowID(p.Window)})
	case CommandRetryInit:
		return s.handleRetryInit()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if s.reloadChan != nil {
		select {
		case s.reloadChan <- struct{}{}:
		default:
		}
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	snap, err := s.actor.Snapshot()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	s.retryMu.Lock()
	tiling := s.tiling
	s.retryMu.Unlock()
	resp, err := NewOKResponse(StatusData{
		Tiling:        tiling,
		WindowCount:   len(snap.Windows),
		ScreenCount:   len(snap.Screens),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Version:       s.version,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetScreens() *Response {
	screens, err := s.actor.Screens()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	out := make([]ScreenData, 0, len(screens))
	for _, sc := range screens {
		out = append(out, ScreenData{
			ID:          uint32(sc.ID),
			Frame:       rectData(sc.Frame),
			WorkFrame:   rectData(sc.WorkFrame),
			RefreshRate: sc.RefreshRate,
		})
	}
	resp, err := NewOKResponse(out)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetWorkspaces(req *Request) *Response {
	var p ScreenPayload
	decode(req, &p)
	workspaces, err := s.actor.Workspaces(backend.ScreenID(p.Screen))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	out := make([]WorkspaceData, 0, len(workspaces))
	for _, ws := range workspaces {
		wd := WorkspaceData{
			Name:    ws.Name,
			Screen:  uint32(ws.Screen),
			Layout:  ws.Layout.String(),
			Windows: make([]uint32, 0, len(ws.Windows)),
		}
		for _, id := range ws.Windows {
			wd.Windows = append(wd.Windows, uint32(id))
		}
		out = append(out, wd)
	}
	resp, err := NewOKResponse(out)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetWindows(req *Request) *Response {
	var p NamePayload
	decode(req, &p)
	windows, err := s.actor.Windows(p.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	snap, err := s.actor.Snapshot()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	out := make([]WindowData, 0, len(windows))
	for _, win := range windows {
		wd := WindowData{
			ID:        uint32(win.ID),
			App:       win.AppName,
			Title:     win.Title,
			Floating:  win.Floating,
			Minimized: win.Minimized,
			Frame:     rectData(win.Frame),
		}
		if ws, ok := snap.WorkspaceByID(win.Workspace); ok {
			wd.Workspace = ws.Name
		}
		out = append(out, wd)
	}
	resp, err := NewOKResponse(out)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleMoveWindow(req *Request) *Response {
	var p MoveWindowPayload
	if err := decode(req, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	switch {
	case p.Workspace != "" && p.Screen != 0:
		return NewErrorResponse("specify workspace or screen, not both")
	case p.Workspace != "":
		return s.do(state.CmdMoveWindowToWorkspace{Window: backend.WindowID(p.Window), Name: p.Workspace})
	case p.Screen != 0:
		return s.do(state.CmdMoveWindowToScreen{Window: backend.WindowID(p.Window), Screen: backend.ScreenID(p.Screen)})
	default:
		return NewErrorResponse("specify a target workspace or screen")
	}
}

func (s *Server) handleRetryInit() *Response {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	if s.tiling {
		resp, _ := NewOKResponse(nil)
		return resp
	}
	if s.retryInit == nil {
		return NewErrorResponse("tiling unavailable")
	}
	if err := s.retryInit(); err != nil {
		return NewErrorResponse(err.Error())
	}
	s.tiling = true
	s.retryInit = nil
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) directional(req *Request, swap bool) *Response {
	var p DirectionPayload
	if err := decode(req, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	switch p.Direction {
	case "next", "prev":
		if swap {
			return NewErrorResponse("swap requires a direction")
		}
		return s.do(state.CmdFocusCycle{Backward: p.Direction == "prev"})
	}
	dir, ok := geometry.ParseDirection(p.Direction)
	if !ok {
		return NewErrorResponse(fmt.Sprintf("unknown direction: %s", p.Direction))
	}
	if swap {
		return s.do(state.CmdSwapDirection{Dir: dir})
	}
	return s.do(state.CmdFocusDirection{Dir: dir})
}

func (s *Server) do(cmd state.Message) *Response {
	if err := s.actor.Do(cmd); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func decode(req *Request, out interface{}) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func rectData(r geometry.Rect) RectData {
	return RectData{X: r.X, Y: r.Y, W: r.Width, H: r.Height}
}
