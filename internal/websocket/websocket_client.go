package websocket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lattesec/log"

	"github.com/luciancaetano/kephasview"
)

var (
	ErrNotOpen        = errors.New(kephasview.ErrConnectionNotOpen)
	ErrClosed         = errors.New(kephasview.ErrConnectionClosed)
	ErrQueueFull      = errors.New(kephasview.ErrSendQueueFull)
	ErrAlreadyStarted = errors.New(kephasview.ErrAlreadyStarted)
)

const (
	pingPeriod   = 54 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
	closeTimeout = time.Second
)

// ConnConfig configures a client connection to a renderer.
type ConnConfig struct {
	// Endpoint is the renderer websocket URL, e.g. "ws://localhost:8080/".
	Endpoint string
	// Name tags log lines; usually the session id.
	Name string
	// Header is sent with the handshake request. May be nil.
	Header http.Header

	HandshakeTimeout time.Duration
	// SendQueueSize is the capacity of the outbound queue. Sends beyond it are rejected.
	SendQueueSize int
	// MaxMessageSize is the read limit for a single frame message. 0 disables the limit.
	MaxMessageSize int64

	Reconnect ReconnectConfig
}

// DefaultConnConfig returns a configuration for endpoint with reconnection disabled.
func DefaultConnConfig(endpoint string) *ConnConfig {
	return &ConnConfig{
		Endpoint:         endpoint,
		HandshakeTimeout: 5 * time.Second,
		SendQueueSize:    256,
		Reconnect:        DefaultReconnectConfig(),
	}
}

// Conn is a client websocket to a renderer implementing kephasview.Conn.
//
// Outbound messages go through a buffered write pump; inbound binary messages
// are handed over on a single-slot channel where a newer frame replaces an
// undelivered older one.
type Conn struct {
	cfg    *ConnConfig
	dialer *websocket.Dialer

	mu      sync.RWMutex
	state   State
	ws      *websocket.Conn
	sendCh  chan []byte
	started bool
	closed  bool
	cancel  context.CancelFunc
	unwatch func() bool

	frames chan []byte
	events chan kephasview.ConnEvent
	done   chan struct{}
}

// NewConn creates an idle connection. Call Start to dial.
func NewConn(cfg *ConnConfig) *Conn {
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = 256
	}
	return &Conn{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		state:  StateIdle,
		frames: make(chan []byte, 1),
		events: make(chan kephasview.ConnEvent, 32),
		done:   make(chan struct{}),
	}
}

// Start dials in the background. The connection lives until ctx is cancelled,
// Close is called, or the link drops without reconnection.
func (c *Conn) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.run(ctx)
	return nil
}

// Send queues payload as a text message. It never blocks.
func (c *Conn) Send(ctx context.Context, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state != StateOpen {
		return ErrNotOpen
	}

	select {
	case c.sendCh <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Frames returns the channel of inbound binary messages.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// Events returns lifecycle transitions. The channel is closed once the
// connection reaches its terminal closed state.
func (c *Conn) Events() <-chan kephasview.ConnEvent {
	return c.events
}

// Done is closed when the connection has terminated.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection with a normal closure and stops reconnection.
func (c *Conn) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	ws := c.ws
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	var err error
	if ws != nil {
		message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		deadline := time.Now().Add(closeTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if werr := ws.WriteControl(websocket.CloseMessage, message, deadline); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) && !errors.Is(werr, net.ErrClosed) {
			err = werr
		}
		ws.Close()
	}

	if !started {
		c.finish()
		return err
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

// IsOpen returns true while sends are accepted.
func (c *Conn) IsOpen() bool {
	return c.State() == StateOpen
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Conn) String() string {
	return fmt.Sprintf("{conn: %s -> %s, state: %s}", c.cfg.Name, c.cfg.Endpoint, c.State())
}

func (c *Conn) run(ctx context.Context) {
	defer c.finish()

	attempt := 0
	for {
		c.setState(StateConnecting)
		c.emit(kephasview.ConnEvent{Kind: kephasview.EventConnecting, Attempt: attempt})

		ws, err := c.dial(ctx)
		if err != nil {
			if c.stopping(ctx) {
				return
			}
			log.Warn().
				WithMeta("scope", "conn").
				WithMeta("conn", c.cfg.Name).
				WithMeta("peer", c.cfg.Endpoint).
				WithMetaf("attempt", "%d", attempt).
				Msgf("failed to dial: %v", err).Send()
			c.emit(kephasview.ConnEvent{Kind: kephasview.EventError, Err: err, Attempt: attempt})

			attempt++
			if !c.backoff(ctx, attempt) {
				return
			}
			continue
		}

		attempt = 0
		if !c.attach(ctx, ws) {
			ws.Close()
			return
		}

		log.Info().
			WithMeta("scope", "conn").
			WithMeta("conn", c.cfg.Name).
			WithMeta("peer", c.cfg.Endpoint).
			Msg("connected").Send()
		c.emit(kephasview.ConnEvent{Kind: kephasview.EventOpen})

		err = c.readLoop(ws)
		c.detach()

		if c.stopping(ctx) {
			return
		}

		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			log.Warn().
				WithMeta("scope", "conn").
				WithMeta("conn", c.cfg.Name).
				WithMeta("peer", c.cfg.Endpoint).
				Msgf("connection error: %v", err).Send()
			c.emit(kephasview.ConnEvent{Kind: kephasview.EventError, Err: err})
		} else {
			log.Info().
				WithMeta("scope", "conn").
				WithMeta("conn", c.cfg.Name).
				WithMeta("peer", c.cfg.Endpoint).
				Msgf("disconnected: %v", err).Send()
		}

		attempt++
		if !c.backoff(ctx, attempt) {
			return
		}
	}
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	ws, resp, err := c.dialer.DialContext(ctx, c.cfg.Endpoint, c.cfg.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.Endpoint, err)
	}
	return ws, nil
}

// backoff waits before retry number attempt. It returns false when the
// connection should give up instead.
func (c *Conn) backoff(ctx context.Context, attempt int) bool {
	if !c.cfg.Reconnect.allows(attempt) {
		return false
	}

	d := c.cfg.Reconnect.delay(attempt)
	c.setState(StateBackoff)
	c.emit(kephasview.ConnEvent{Kind: kephasview.EventBackoff, Attempt: attempt})
	log.Debug().
		WithMeta("scope", "conn").
		WithMeta("conn", c.cfg.Name).
		WithMetaf("attempt", "%d/%d", attempt, c.cfg.Reconnect.MaxAttempts).
		Msgf("reconnecting in %s", d).Send()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !c.stopping(ctx)
	case <-ctx.Done():
		return false
	}
}

// attach makes ws the current socket. Cancelling ctx closes it, which ends
// the read loop.
func (c *Conn) attach(ctx context.Context, ws *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.ws = ws
	c.unwatch = context.AfterFunc(ctx, func() { ws.Close() })
	c.sendCh = make(chan []byte, c.cfg.SendQueueSize)
	c.state = StateOpen
	go c.writePump(ws, c.sendCh)
	return true
}

// detach stops the write pump of the current socket. Holding the write lock
// while closing sendCh keeps Send from writing to a closed channel.
func (c *Conn) detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	if c.sendCh != nil {
		close(c.sendCh)
		c.sendCh = nil
	}
	c.ws = nil
	if !c.closed {
		c.state = StateConnecting
	}
}

func (c *Conn) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Conn) finish() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.closed = true
	c.mu.Unlock()

	log.Info().
		WithMeta("scope", "conn").
		WithMeta("conn", c.cfg.Name).
		WithMeta("peer", c.cfg.Endpoint).
		Msg("closed").Send()
	c.emit(kephasview.ConnEvent{Kind: kephasview.EventClosed})
	close(c.events)
	close(c.done)
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateClosed {
		c.state = s
	}
}

func (c *Conn) emit(ev kephasview.ConnEvent) {
	select {
	case c.events <- ev:
	default:
	}
}

// readLoop delivers binary messages until the socket fails.
func (c *Conn) readLoop(ws *websocket.Conn) error {
	if c.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(c.cfg.MaxMessageSize)
	}
	ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		mt, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		ws.SetReadDeadline(time.Now().Add(readTimeout))

		if mt != websocket.BinaryMessage {
			log.Debug().
				WithMeta("scope", "conn").
				WithMeta("conn", c.cfg.Name).
				Msgf("ignoring non-binary message of %d bytes", len(data)).Send()
			continue
		}
		c.deliver(data)
	}
}

// deliver hands data to the frame consumer, replacing any frame it has not taken yet.
func (c *Conn) deliver(data []byte) {
	select {
	case c.frames <- data:
		return
	default:
	}

	select {
	case <-c.frames:
	default:
	}

	select {
	case c.frames <- data:
	default:
	}
}

// writePump pumps messages from the send channel to the websocket connection
func (c *Conn) writePump(ws *websocket.Conn, sendCh <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()

	for {
		select {
		case message, ok := <-sendCh:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Channel closed
				ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
