// Package ipc is the command surface of the daemon: a line-delimited
// JSON protocol over a per-user unix socket, plus an event stream for
// subscribers.
package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType names an IPC command.
type CommandType string

const (
	CommandReload          CommandType = "RELOAD"
	CommandGetStatus       CommandType = "GET_STATUS"
	CommandGetScreens      CommandType = "GET_SCREENS"
	CommandGetWorkspaces   CommandType = "GET_WORKSPACES"
	CommandGetWindows      CommandType = "GET_WINDOWS"
	CommandSwitchWorkspace CommandType = "SWITCH_WORKSPACE"
	CommandCycleWorkspace  CommandType = "CYCLE_WORKSPACE"
	CommandBalance         CommandType = "BALANCE"
	CommandSendToScreen    CommandType = "SEND_WORKSPACE_TO_SCREEN"
	CommandSetLayout       CommandType = "SET_LAYOUT"
	CommandCycleLayout     CommandType = "CYCLE_LAYOUT"
	CommandFocus           CommandType = "FOCUS"
	CommandSwap            CommandType = "SWAP"
	CommandResizeSplit     CommandType = "RESIZE_SPLIT"
	CommandApplyPreset     CommandType = "APPLY_PRESET"
	CommandMoveWindow      CommandType = "MOVE_WINDOW"
	CommandToggleFloating  CommandType = "TOGGLE_FLOATING"
	CommandRetryInit       CommandType = "RETRY_INIT"
	CommandSubscribe       CommandType = "SUBSCRIBE"
)

// Request is one client request. Requests and responses travel as
// single JSON lines.
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the server's answer.
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData answers GET_STATUS.
type StatusData struct {
	Tiling        bool   `json:"tiling"` // false while permission is missing
	WindowCount   int    `json:"window_count"`
	ScreenCount   int    `json:"screen_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Version       string `json:"version,omitempty"`
}

// ScreenData describes one display for GET_SCREENS.
type ScreenData struct {
	ID          uint32   `json:"id"`
	Frame       RectData `json:"frame"`
	WorkFrame   RectData `json:"work_frame"`
	RefreshRate float64  `json:"refresh_rate,omitempty"`
}

// WorkspaceData describes one workspace for GET_WORKSPACES.
type WorkspaceData struct {
	Name    string   `json:"name"`
	Screen  uint32   `json:"screen,omitempty"` // zero when hidden
	Layout  string   `json:"layout"`
	Windows []uint32 `json:"windows"`
}

// WindowData describes one window for GET_WINDOWS.
type WindowData struct {
	ID        uint32   `json:"id"`
	App       string   `json:"app,omitempty"`
	Title     string   `json:"title,omitempty"`
	Workspace string   `json:"workspace,omitempty"`
	Floating  bool     `json:"floating,omitempty"`
	Minimized bool     `json:"minimized,omitempty"`
	Frame     RectData `json:"frame"`
}

// RectData is a frame on the wire.
type RectData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// NamePayload carries a workspace name.
type NamePayload struct {
	Name string `json:"name"`
}

// ScreenPayload selects a screen, optionally with a workspace name.
type ScreenPayload struct {
	Name   string `json:"name,omitempty"`
	Screen uint32 `json:"screen"`
}

// CyclePayload flips traversal direction.
type CyclePayload struct {
	Backward bool `json:"backward,omitempty"`
}

// LayoutPayload carries a layout name.
type LayoutPayload struct {
	Layout string `json:"layout"`
}

// DirectionPayload carries a direction ("left", "right", "up", "down")
// or cycling ("next", "prev").
type DirectionPayload struct {
	Direction string `json:"direction"`
}

// ResizeSplitPayload nudges one split point.
type ResizeSplitPayload struct {
	Index int     `json:"index"`
	Delta float64 `json:"delta"`
}

// PresetPayload names a floating preset.
type PresetPayload struct {
	Preset string `json:"preset"`
}

// MoveWindowPayload moves a window (zero means the focused one) to a
// workspace or a screen, exactly one of which must be set.
type MoveWindowPayload struct {
	Window    uint32 `json:"window,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Screen    uint32 `json:"screen,omitempty"`
}

// WindowPayload selects a window; zero means the focused one.
type WindowPayload struct {
	Window uint32 `json:"window,omitempty"`
}

// Event is one pushed notification on a SUBSCRIBE stream.
type Event struct {
	Kind    string   `json:"kind"` // "layout" or "focus"
	Focused uint32   `json:"focused,omitempty"`
	Moved   []uint32 `json:"moved,omitempty"`
}

// NewOKResponse builds a successful response with optional data.
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}
	return &Response{Status: "OK", Data: dataBytes}, nil
}

// NewErrorResponse builds an error response.
func NewErrorResponse(errMsg string) *Response {
	return &Response{Status: "ERROR", Error: errMsg}
}

// ParseRequest parses one request line.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes.
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
