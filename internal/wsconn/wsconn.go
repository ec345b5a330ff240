// Package wsconn provides a WebSocket client with automatic reconnection.
package wsconn

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// ErrClosed is returned from Send after Close has been called.
var ErrClosed = errors.New("wsconn: client closed")

// Config holds WebSocket client configuration.
type Config struct {
	URL            string
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite
	PingInterval   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		MaxReconnects:  0, // infinite
		PingInterval:   30 * time.Second,
	}
}

// Client is a reconnecting WebSocket client. Incoming messages are delivered
// on the Messages channel; the read loop reconnects with exponential backoff
// until Close is called or the context given to Connect is cancelled.
type Client struct {
	config Config

	state   State
	stateMu sync.RWMutex

	conn   *websocket.Conn
	connMu sync.RWMutex

	messages chan []byte
	done     chan struct{}
	closeOne sync.Once

	onReconnect func(attempt int)
}

// New creates a new WebSocket client.
func New(config Config) *Client {
	return &Client{
		config:   config,
		state:    StateDisconnected,
		messages: make(chan []byte, 256),
		done:     make(chan struct{}),
	}
}

// OnReconnect registers a callback invoked after each successful reconnect,
// e.g. to replay subscriptions. Must be called before Connect.
func (c *Client) OnReconnect(fn func(attempt int)) {
	c.onReconnect = fn
}

// Connect dials the endpoint and starts the read loop. It returns once the
// first connection attempt succeeds; later disconnects are handled internally.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}
	c.setConn(conn)
	c.setState(StateConnected)

	go c.readLoop(ctx)
	if c.config.PingInterval > 0 {
		go c.pingLoop(ctx)
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(1 << 20)
	return conn, nil
}

// readLoop reads messages and reconnects on failure.
func (c *Client) readLoop(ctx context.Context) {
	attempt := 0
	for {
		conn := c.getConn()
		if conn == nil {
			return
		}

		_, data, err := conn.Read(ctx)
		if err == nil {
			attempt = 0
			select {
			case c.messages <- data:
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		// Connection lost: back off and redial.
		c.setState(StateReconnecting)
		conn.Close(websocket.StatusAbnormalClosure, "read failed")

		attempt++
		if c.config.MaxReconnects > 0 && attempt > c.config.MaxReconnects {
			c.setState(StateDisconnected)
			close(c.messages)
			return
		}

		backoff := c.backoff(attempt)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}

		newConn, err := c.dial(ctx)
		if err != nil {
			continue
		}
		c.setConn(newConn)
		c.setState(StateConnected)
		if c.onReconnect != nil {
			c.onReconnect(attempt)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if conn := c.getConn(); conn != nil && c.State() == StateConnected {
				pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				_ = conn.Ping(pingCtx)
				cancel()
			}
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := time.Duration(float64(c.config.InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if d > c.config.MaxBackoff {
		d = c.config.MaxBackoff
	}
	return d
}

// Send sends a text message through the WebSocket.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	conn := c.getConn()
	if conn == nil {
		return ErrClosed
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}

// Messages returns the channel for receiving messages.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

// State returns the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// Close gracefully closes the WebSocket connection.
func (c *Client) Close() error {
	var err error
	c.closeOne.Do(func() {
		close(c.done)
		if conn := c.getConn(); conn != nil {
			err = conn.Close(websocket.StatusNormalClosure, "client closing")
		}
		c.setState(StateDisconnected)
	})
	return err
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	c.state = state
	c.stateMu.Unlock()
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) getConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}
