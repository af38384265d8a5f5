package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client talks to the daemon socket.
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the per-user socket.
func NewClient() *Client {
	socketPath, err := SocketPath()
	if err != nil {
		// Keep the constructor non-failing; sendRequest surfaces
		// connection errors.
		socketPath = ""
	}
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

// NewClientAt creates a client for an explicit socket path.
func NewClientAt(socketPath string) *Client {
	return &Client{socketPath: socketPath, timeout: 5 * time.Second}
}

func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is it running?)", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) command(cmd CommandType, payload interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	_, err := c.sendRequest(req)
	return err
}

func (c *Client) query(cmd CommandType, payload, out interface{}) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		req.Payload = data
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// Reload asks the daemon to reload its configuration.
func (c *Client) Reload() error {
	return c.command(CommandReload, nil)
}

// Status fetches daemon status.
func (c *Client) Status() (*StatusData, error) {
	var out StatusData
	if err := c.query(CommandGetStatus, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Screens lists displays.
func (c *Client) Screens() ([]ScreenData, error) {
	var out []ScreenData
	if err := c.query(CommandGetScreens, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Workspaces lists workspaces, optionally filtered to one screen.
func (c *Client) Workspaces(screen uint32) ([]WorkspaceData, error) {
	var out []WorkspaceData
	if err := c.query(CommandGetWorkspaces, ScreenPayload{Screen: screen}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Windows lists windows, optionally filtered to one workspace.
func (c *Client) Windows(workspace string) ([]WindowData, error) {
	var out []WindowData
	if err := c.query(CommandGetWindows, NamePayload{Name: workspace}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SwitchWorkspace shows the named workspace on the focused screen.
func (c *Client) SwitchWorkspace(name string) error {
	return c.command(CommandSwitchWorkspace, NamePayload{Name: name})
}

// CycleWorkspace switches to the next or previous workspace.
func (c *Client) CycleWorkspace(backward bool) error {
	return c.command(CommandCycleWorkspace, CyclePayload{Backward: backward})
}

// Balance resets the focused workspace to equal splits.
func (c *Client) Balance() error {
	return c.command(CommandBalance, nil)
}

// SendWorkspaceToScreen assigns a workspace to a screen.
func (c *Client) SendWorkspaceToScreen(name string, screen uint32) error {
	return c.command(CommandSendToScreen, ScreenPayload{Name: name, Screen: screen})
}

// SetLayout sets the focused workspace's layout by name.
func (c *Client) SetLayout(name string) error {
	return c.command(CommandSetLayout, LayoutPayload{Layout: name})
}

// CycleLayout advances the focused workspace to the next layout.
func (c *Client) CycleLayout() error {
	return c.command(CommandCycleLayout, nil)
}

// Focus moves focus: "left", "right", "up", "down", "next", "prev".
func (c *Client) Focus(direction string) error {
	return c.command(CommandFocus, DirectionPayload{Direction: direction})
}

// Swap exchanges the focused window with its neighbor in a direction.
func (c *Client) Swap(direction string) error {
	return c.command(CommandSwap, DirectionPayload{Direction: direction})
}

// ResizeSplit nudges one split point of the focused workspace.
func (c *Client) ResizeSplit(index int, delta float64) error {
	return c.command(CommandResizeSplit, ResizeSplitPayload{Index: index, Delta: delta})
}

// ApplyPreset snaps the focused window to a named floating preset.
func (c *Client) ApplyPreset(preset string) error {
	return c.command(CommandApplyPreset, PresetPayload{Preset: preset})
}

// MoveWindowToWorkspace moves a window (zero means focused) to a
// workspace.
func (c *Client) MoveWindowToWorkspace(window uint32, workspace string) error {
	return c.command(CommandMoveWindow, MoveWindowPayload{Window: window, Workspace: workspace})
}

// MoveWindowToScreen moves a window (zero means focused) to a screen.
func (c *Client) MoveWindowToScreen(window uint32, screen uint32) error {
	return c.command(CommandMoveWindow, MoveWindowPayload{Window: window, Screen: screen})
}

// ToggleFloating toggles the floating state of a window (zero means
// focused).
func (c *Client) ToggleFloating(window uint32) error {
	return c.command(CommandToggleFloating, WindowPayload{Window: window})
}

// RetryInit asks the daemon to re-check permissions and start tiling.
func (c *Client) RetryInit() error {
	return c.command(CommandRetryInit, nil)
}

// Subscribe opens an event stream. Events arrive on the returned
// channel until the connection drops or stop is called.
func (c *Client) Subscribe() (<-chan Event, func(), error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	req, _ := json.Marshal(&Request{Command: CommandSubscribe})
	req = append(req, '\n')
	if _, err := conn.Write(req); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	reader := bufio.NewReader(conn)
	ackData, err := reader.ReadBytes('\n')
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to read subscribe ack: %w", err)
	}
	var ack Response
	if err := json.Unmarshal(ackData, &ack); err != nil || ack.Status != "OK" {
		conn.Close()
		return nil, nil, fmt.Errorf("subscribe rejected: %s", ack.Error)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}
			var ev Event
			if json.Unmarshal(line, &ev) == nil {
				events <- ev
			}
		}
	}()
	return events, func() { conn.Close() }, nil
}
