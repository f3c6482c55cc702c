// Package stream maintains the market-data WebSocket connection and feeds
// parsed ticks to the coordinator.
//
// Connection lifecycle lives entirely here: dialing, heartbeat, reconnect
// with exponential backoff, and the Connecting → Online → {Error,
// Disconnected} status transitions. The sync core only ever sees parsed
// ticks and status change callbacks.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultPingInterval     = 10 * time.Second
	defaultPongTimeout      = 30 * time.Second
	defaultRetryDelay       = 2 * time.Second
	defaultMaxRetryDelay    = time.Minute
)

// Config configures the stream client.
type Config struct {
	URL string // e.g. "wss://backend-1-mpd2.onrender.com/ws/market/{ws_id}"

	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration

	// Reconnect backoff. MaxRetryAttempts 0 means retry forever.
	RetryDelay       time.Duration
	MaxRetryDelay    time.Duration
	MaxRetryAttempts int
}

// Client is the market stream connection manager.
//
// Callbacks are invoked from the client's single read goroutine, one at a
// time, preserving per-instrument arrival order.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	OnTick    func(tick model.Tick, meta model.InstrumentMetadata)
	OnStatus  func(status model.ConnStatus)
	OnDropped func(err error) // malformed payloads, for instrumentation

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// New creates a stream client. Callbacks must be assigned before Run.
func New(cfg Config) *Client {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = defaultMaxRetryDelay
	}

	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Run connects and pumps ticks until ctx is cancelled, Close is called, or
// the retry budget is exhausted. Each failed connection instance ends in
// Error, each established one in Disconnected; a retry starts a fresh
// instance at Connecting.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	delay := c.cfg.RetryDelay

	for {
		if err := ctx.Err(); err != nil || c.isClosed() {
			return err
		}

		c.setStatus(model.StatusConnecting)
		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.setStatus(model.StatusError)
			attempt++
			if c.cfg.MaxRetryAttempts > 0 && attempt >= c.cfg.MaxRetryAttempts {
				slog.Error("stream: retry budget exhausted", slog.Int("attempts", attempt))
				return err
			}
			slog.Warn("stream: dial failed, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", err))
			if !sleepCtx(ctx, delay) {
				return ctx.Err()
			}
			delay = backoff(delay, c.cfg.MaxRetryDelay)
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return nil
		}
		c.conn = conn
		c.mu.Unlock()

		attempt = 0
		delay = c.cfg.RetryDelay
		c.setStatus(model.StatusOnline)
		slog.Info("stream: connected", slog.String("url", c.cfg.URL))

		c.readPump(ctx, conn)

		c.setStatus(model.StatusDisconnected)
		if c.isClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("stream: connection lost, reconnecting")
		if !sleepCtx(ctx, delay) {
			return ctx.Err()
		}
	}
}

// readPump reads frames until the connection dies. The heartbeat goroutine
// pings on an interval; a missed pong trips the read deadline.
func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}

		tick, meta, err := model.ParseTick(data)
		if err != nil {
			if c.OnDropped != nil {
				c.OnDropped(err)
			}
			slog.Debug("stream: dropped malformed message", slog.Any("error", err))
			continue
		}

		// Re-check under the lock so no tick is delivered once Close
		// has returned.
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			conn.Close()
			return
		}
		if c.OnTick != nil {
			c.OnTick(tick, meta)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// Close shuts the connection down and stops tick delivery: any message not
// yet handed to OnTick when Close is called is discarded, and Run returns
// instead of reconnecting.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) setStatus(s model.ConnStatus) {
	if c.OnStatus != nil {
		c.OnStatus(s)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func backoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
