// Package border drives an external border-drawing helper. Updates go
// over the helper's unix socket; if the helper is not running and a
// command is configured, it is spawned once and the update retried.
package border

import (
	"encoding/json"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tidalwm/tidal/internal/backend"
	"github.com/tidalwm/tidal/internal/effects"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "border",
})

// SetLogLevel sets the logging level for the border package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Config selects the helper and its look.
type Config struct {
	// SocketPath is the helper's unix socket. Empty disables borders.
	SocketPath string

	// Command spawns the helper when the socket is not answering.
	// Empty means never spawn.
	Command string
	Args    []string

	// ActiveColor and InactiveColor are hex strings passed through to
	// the helper.
	ActiveColor   string
	InactiveColor string

	// Width is the border thickness in pixels.
	Width float64
}

// update is one batched wire message. All visible windows travel in a
// single write so the helper repaints once.
type update struct {
	Focused       backend.WindowID `json:"focused"`
	ActiveColor   string           `json:"active_color,omitempty"`
	InactiveColor string           `json:"inactive_color,omitempty"`
	Width         float64          `json:"width,omitempty"`
	Windows       []windowBorder   `json:"windows"`
}

type windowBorder struct {
	ID     backend.WindowID `json:"id"`
	X      float64          `json:"x"`
	Y      float64          `json:"y"`
	Width  float64          `json:"w"`
	Height float64          `json:"h"`
}

// Client sends border updates. It satisfies effects.BorderSink.
type Client struct {
	cfg Config

	mu      sync.Mutex
	conn    net.Conn
	spawned bool
}

// NewClient creates a border client. With an empty socket path every
// update is a no-op.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Apply implements effects.BorderSink.
func (c *Client) Apply(s effects.BorderState) {
	if c.cfg.SocketPath == "" {
		return
	}
	if err := c.send(s); err != nil {
		logger.Debug("border update dropped", "err", err)
	}
}

func (c *Client) send(s effects.BorderState) error {
	msg := update{
		Focused:       s.Focused,
		ActiveColor:   c.cfg.ActiveColor,
		InactiveColor: c.cfg.InactiveColor,
		Width:         c.cfg.Width,
		Windows:       make([]windowBorder, 0, len(s.Frames)),
	}
	for id, frame := range s.Frames {
		msg.Windows = append(msg.Windows, windowBorder{
			ID: id, X: frame.X, Y: frame.Y, Width: frame.Width, Height: frame.Height,
		})
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.write(payload); err == nil {
		return nil
	}
	// Stale connection or helper not running: reconnect, spawning the
	// helper at most once per process.
	c.dropConn()
	if err := c.dial(); err != nil {
		if !c.maybeSpawn() {
			return err
		}
		if err := c.dial(); err != nil {
			return err
		}
	}
	return c.write(payload)
}

func (c *Client) write(payload []byte) error {
	if c.conn == nil {
		return net.ErrClosed
	}
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, err := c.conn.Write(payload)
	return err
}

func (c *Client) dial() error {
	conn, err := net.DialTimeout("unix", c.cfg.SocketPath, time.Second)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

func (c *Client) dropConn() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// maybeSpawn starts the configured helper command, once. Returns true
// if a spawn happened and the socket is worth retrying.
func (c *Client) maybeSpawn() bool {
	if c.cfg.Command == "" || c.spawned {
		return false
	}
	c.spawned = true
	cmd := exec.Command(c.cfg.Command, c.cfg.Args...)
	if err := cmd.Start(); err != nil {
		logger.Warn("border helper spawn failed", "command", c.cfg.Command, "err", err)
		return false
	}
	go cmd.Wait()
	logger.Info("border helper spawned", "command", c.cfg.Command, "pid", cmd.Process.Pid)
	// Give the helper a moment to create its socket.
	time.Sleep(200 * time.Millisecond)
	return true
}

// Close drops the helper connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropConn()
	return nil
}
