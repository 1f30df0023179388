// Package transport connects the console to the reservation backend over a
// WebSocket and delivers outbound requests in emit order.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrQueueFull = errors.New("transport queue full")
	ErrClosed    = errors.New("transport closed")
)

// Handler receives inbound frames. It runs on the reader goroutine.
type Handler func(Frame)

// Options tunes a Client.
type Options struct {
	QueueSize  int
	MinBackoff time.Duration
	MaxBackoff time.Duration
	OnFrame    Handler
	OnStatus   func(connected bool)
	Dialer     *websocket.Dialer
	Header     http.Header
}

// Client is a reconnecting WebSocket client. Emit enqueues without blocking;
// a single writer drains the queue so frames leave in Emit order. There is no
// acknowledgement or retry of individual frames.
type Client struct {
	url       string
	opts      Options
	queue     chan []byte
	connected atomic.Bool
	closed    atomic.Bool
	log       zerolog.Logger
}

// NewClient creates a Client for url. Call Run to connect.
func NewClient(url string, opts Options, log zerolog.Logger) *Client {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Client{
		url:   url,
		opts:  opts,
		queue: make(chan []byte, opts.QueueSize),
		log:   log.With().Str("component", "transport").Str("url", url).Logger(),
	}
}

// Connected reports whether the backend socket is currently open.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Emit encodes payload and enqueues it as one frame. The payload is
// serialized before Emit returns, so later changes to it are not sent.
func (c *Client) Emit(event string, payload any) error {
	if c.closed.Load() {
		return ErrClosed
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Frame{Event: event, Payload: raw})
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", event, err)
	}

	select {
	case c.queue <- frame:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run connects and keeps the connection alive until ctx is cancelled.
// It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	defer c.closed.Store(true)

	backoff := c.opts.MinBackoff
	for {
		started := time.Now()
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("Backend connection lost")

		if time.Since(started) > c.opts.MaxBackoff {
			backoff = c.opts.MinBackoff
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.opts.MaxBackoff {
			backoff = c.opts.MaxBackoff
		}
	}
}

// session runs one connection: a reader goroutine for inbound frames and
// the writer loop on the calling goroutine.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)

	c.log.Info().Msg("Backend connected")

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.readLoop(conn)
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return ctx.Err()

		case err := <-readErr:
			return err

		case frame := <-c.queue:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Error().Err(err).Msg("Frame dropped on write")
				return fmt.Errorf("write: %w", err)
			}

		case <-ticker.C:
			if err := writePing(conn); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn) error {
	for {
		data, err := readMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("Unexpected close")
			}
			return err
		}
		frame, err := decodeFrame(data)
		if err != nil {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("Malformed frame ignored")
			continue
		}
		if c.opts.OnFrame != nil {
			c.opts.OnFrame(frame)
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.connected.Swap(v) == v {
		return
	}
	if c.opts.OnStatus != nil {
		c.opts.OnStatus(v)
	}
}
