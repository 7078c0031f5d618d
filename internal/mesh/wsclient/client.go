// Package wsclient maintains the single websocket connection to the squad
// orchestration backend.
//
// A Connection moves through Disconnected, Connecting and Open. After a
// close it waits a fixed delay and dials again, up to MaxReconnectAttempts
// consecutive failures; the counter resets on every successful open. Once the
// bound is reached nothing is scheduled until Connect is called again.
package wsclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/Shinox-lab/dashboard/internal/common/errors"
	"github.com/Shinox-lab/dashboard/internal/common/logger"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
)

// State is the lifecycle state of a Connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// Options configures a Connection.
type Options struct {
	URL                  string
	ReconnectInterval    time.Duration
	MaxReconnectAttempts int
	// HeartbeatInterval enables PING frames while open; zero disables them.
	HeartbeatInterval time.Duration
	FrameBuffer       int
	Dialer            Dialer
}

// Connection owns at most one live socket.
type Connection struct {
	opts   Options
	dialer Dialer
	logger *logger.Logger
	frames chan []byte

	mu         sync.Mutex
	state      State
	conn       Conn
	attempts   int
	explicit   bool // Disconnect was called; no retry
	retry      *time.Timer
	generation uint64
	cycleDone  chan struct{}

	writeMu sync.Mutex

	listenersMu sync.RWMutex
	listeners   []func(connected bool)
}

// New creates a disconnected Connection.
func New(opts Options, log *logger.Logger) *Connection {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 3 * time.Second
	}
	if opts.MaxReconnectAttempts < 0 {
		opts.MaxReconnectAttempts = 0
	}
	if opts.FrameBuffer <= 0 {
		opts.FrameBuffer = 256
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = NewGorillaDialer(handshakeTimeout)
	}
	return &Connection{
		opts:   opts,
		dialer: dialer,
		logger: log.WithFields(zap.String("component", "wsclient"), zap.String("url", opts.URL)),
		frames: make(chan []byte, opts.FrameBuffer),
	}
}

// Frames delivers inbound frames in transport order. The channel is never
// closed; it outlives individual sockets.
func (c *Connection) Frames() <-chan []byte {
	return c.frames
}

// OnConnectionChange registers a callback invoked with true on every open
// and false on every close.
func (c *Connection) OnConnectionChange(fn func(connected bool)) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

func (c *Connection) notify(connected bool) {
	c.listenersMu.RLock()
	listeners := append(([]func(bool))(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(connected)
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsOpen reports whether a socket is open.
func (c *Connection) IsOpen() bool {
	return c.State() == StateOpen
}

// Attempts returns the consecutive failed cycles since the last open.
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Connect dials the backend unless a socket is already open or being
// opened. A failed dial is treated like a close: a retry is scheduled if
// attempts remain, and the dial error is returned.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.explicit = false
	c.stopRetryLocked()
	gen := c.beginCycleLocked()
	c.mu.Unlock()

	return c.dial(ctx, gen)
}

// Disconnect closes the socket and cancels any pending retry.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.explicit = true
	c.stopRetryLocked()
	c.generation++
	conn := c.conn
	wasOpen := c.state == StateOpen
	c.conn = nil
	c.state = StateDisconnected
	c.endCycleLocked()
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if wasOpen {
		c.logger.Info("websocket disconnected")
		c.notify(false)
	}
}

// Send writes a frame to the open socket. It returns ErrNotConnected when
// no socket is open.
func (c *Connection) Send(frame *ws.Frame) error {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()
	if state != StateOpen || conn == nil {
		return apperrors.ErrNotConnected
	}

	data, err := frame.Encode()
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", frame.Type, err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write %s frame: %w", frame.Type, err)
	}
	c.logger.Debug("sent frame", zap.String("type", string(frame.Type)))
	return nil
}

func (c *Connection) beginCycleLocked() uint64 {
	c.state = StateConnecting
	c.generation++
	c.cycleDone = make(chan struct{})
	return c.generation
}

func (c *Connection) endCycleLocked() {
	if c.cycleDone != nil {
		close(c.cycleDone)
		c.cycleDone = nil
	}
}

func (c *Connection) stopRetryLocked() {
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Connection) dial(ctx context.Context, gen uint64) error {
	c.logger.Debug("dialing websocket", zap.Int("attempt", c.Attempts()))
	conn, err := c.dialer.Dial(ctx, c.opts.URL)

	c.mu.Lock()
	if c.generation != gen {
		// Disconnect or a newer Connect superseded this cycle.
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return errors.New("connection attempt superseded")
	}
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("websocket dial failed", zap.Error(err))
		c.handleClose(gen)
		return fmt.Errorf("failed to connect to backend: %w", err)
	}
	c.conn = conn
	c.state = StateOpen
	c.attempts = 0
	done := c.cycleDone
	c.mu.Unlock()

	c.logger.Info("websocket connected")
	c.notify(true)

	go c.readLoop(conn, gen, done)
	if c.opts.HeartbeatInterval > 0 {
		go c.heartbeat(done)
	}
	return nil
}

func (c *Connection) readLoop(conn Conn, gen uint64, done <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			_ = conn.Close()
			c.handleClose(gen)
			return
		}
		select {
		case c.frames <- data:
		case <-done:
			return
		}
	}
}

func (c *Connection) heartbeat(done <-chan struct{}) {
	ticker := time.NewTicker(c.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.Send(ws.NewPing()); err != nil {
				c.logger.Debug("heartbeat failed", zap.Error(err))
			}
		}
	}
}

// handleClose ends cycle gen and arms the retry timer when allowed.
func (c *Connection) handleClose(gen uint64) {
	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.state = StateDisconnected
	c.endCycleLocked()

	switch {
	case c.explicit:
	case c.attempts < c.opts.MaxReconnectAttempts:
		c.attempts++
		attempt := c.attempts
		c.retry = time.AfterFunc(c.opts.ReconnectInterval, func() { c.reconnect(gen) })
		c.logger.Info("websocket closed, reconnect scheduled",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.opts.MaxReconnectAttempts),
			zap.Duration("delay", c.opts.ReconnectInterval))
	default:
		c.logger.Warn("websocket reconnect attempts exhausted",
			zap.Int("max_attempts", c.opts.MaxReconnectAttempts))
	}
	c.mu.Unlock()

	c.notify(false)
}

func (c *Connection) reconnect(prev uint64) {
	c.mu.Lock()
	if c.generation != prev || c.explicit || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.retry = nil
	gen := c.beginCycleLocked()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
	defer cancel()
	_ = c.dial(ctx, gen)
}
