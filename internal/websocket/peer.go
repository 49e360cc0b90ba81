package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Peer is one client connected to a Server.
type Peer struct {
	id          string
	conn        *websocket.Conn
	remoteAddr  string
	ctx         context.Context
	cancel      context.CancelFunc
	sendCh      chan []byte
	mu          sync.RWMutex
	closed      bool
	rateLimiter *rate.Limiter // Rate limiter for incoming action messages
}

// NewPeer wraps an accepted connection and starts its write pump.
func NewPeer(conn *websocket.Conn, remoteAddr string, rateLimitConfig *RateLimitConfig) *Peer {
	ctx, cancel := context.WithCancel(context.Background())

	var limiter *rate.Limiter
	if rateLimitConfig != nil && rateLimitConfig.Enabled {
		limiter = rate.NewLimiter(rateLimitConfig.MessagesPerSecond, rateLimitConfig.Burst)
	}

	peer := &Peer{
		id:          uuid.New().String(),
		conn:        conn,
		remoteAddr:  remoteAddr,
		ctx:         ctx,
		cancel:      cancel,
		sendCh:      make(chan []byte, 4),
		closed:      false,
		rateLimiter: limiter,
	}

	go peer.writePump()

	return peer
}

// ID returns a unique identifier for the connected peer
func (p *Peer) ID() string {
	return p.id
}

// RemoteAddr returns the peer's remote network address
func (p *Peer) RemoteAddr() string {
	return p.remoteAddr
}

// Context returns the peer's lifecycle context
func (p *Peer) Context() context.Context {
	return p.ctx
}

// SendFrame queues one binary frame. Frames are large, so the queue is short
// and a full queue rejects the frame instead of blocking the renderer.
func (p *Peer) SendFrame(ctx context.Context, frame []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.sendCh <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Close closes the peer connection
func (p *Peer) Close(ctx context.Context) error {
	return p.CloseWithCode(ctx, websocket.CloseNormalClosure, "")
}

// CloseWithCode closes the connection with a close code and optional reason
func (p *Peer) CloseWithCode(ctx context.Context, code int, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	p.cancel()

	message := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(closeTimeout)
	p.conn.WriteControl(websocket.CloseMessage, message, deadline)

	close(p.sendCh)
	return p.conn.Close()
}

// IsAlive returns true if the connection is still active
func (p *Peer) IsAlive() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// CheckRateLimit reports whether another inbound message is allowed.
func (p *Peer) CheckRateLimit() bool {
	if p.rateLimiter == nil {
		return true
	}
	return p.rateLimiter.Allow()
}

func (p *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case message, ok := <-p.sendCh:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := p.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-p.ctx.Done():
			return
		}
	}
}
