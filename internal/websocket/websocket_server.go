package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lattesec/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/protocol"
)

var ErrServerAlreadyRunning = errors.New("server already running")

// CheckOriginFn validates the origin of a websocket upgrade request.
type CheckOriginFn = func(r *http.Request) bool

// OnConnectFn is called after the handshake and before the read loop starts.
type OnConnectFn = func(peer *Peer)

// OnDisconnectFn is called once when a peer's read loop ends. voluntary is
// true when the peer sent a normal close.
type OnDisconnectFn = func(peer *Peer, voluntary bool)

// OnActionFn receives every valid action message, in arrival order per peer.
type OnActionFn = func(peer *Peer, action kephasview.Action)

type ServerConfig struct {
	Addr            string
	Path            string
	RateLimitConfig *RateLimitConfig
	CheckOrigin     CheckOriginFn
	OnConnect       OnConnectFn
	OnDisconnect    OnDisconnectFn
	OnAction        OnActionFn
}

// RateLimitConfig defines rate limiting configuration for peers
type RateLimitConfig struct {
	// MessagesPerSecond defines how many messages a peer can send per second
	MessagesPerSecond rate.Limit
	// Burst defines the maximum burst size (token bucket capacity)
	Burst int
	// Enabled determines if rate limiting is active
	Enabled bool
}

// DefaultRateLimitConfig returns the default rate limit configuration.
// Six actions at ~60 ticks per second is 360 messages per second, so the
// default allows 1000 per second with a burst of 2000.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		MessagesPerSecond: 1000,
		Burst:             2000,
		Enabled:           true,
	}
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled: false,
	}
}

// Server accepts renderer-side websocket connections.
type Server struct {
	addr   string
	path   string
	server *http.Server
	ln     net.Listener
	peers  sync.Map // map[string]*Peer

	rateLimitConfig *RateLimitConfig

	mu           sync.RWMutex
	running      bool
	upgrader     websocket.Upgrader
	onConnect    OnConnectFn
	onDisconnect OnDisconnectFn
	onAction     OnActionFn
}

// NewServer creates a server. A nil RateLimitConfig selects DefaultRateLimitConfig
// and an empty Path serves the root, which is where browser clients connect.
func NewServer(cfg *ServerConfig) *Server {
	if cfg.RateLimitConfig == nil {
		cfg.RateLimitConfig = DefaultRateLimitConfig()
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Server{
		addr:            cfg.Addr,
		path:            cfg.Path,
		rateLimitConfig: cfg.RateLimitConfig,
		onConnect:       cfg.OnConnect,
		onDisconnect:    cfg.OnDisconnect,
		onAction:        cfg.OnAction,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleWebSocket)
	return mux
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.server = &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	s.running = true

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error().
				WithMeta("scope", "renderer").
				WithMeta("addr", ln.Addr()).
				Msgf("serve failed: %v", err).Send()
		}
	}()

	log.Info().
		WithMeta("scope", "renderer").
		WithMeta("addr", ln.Addr()).
		Msg("listening").Send()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Stop closes every peer and, if Start was called, shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	s.peers.Range(func(key, value interface{}) bool {
		if peer, ok := value.(*Peer); ok {
			peer.CloseWithCode(ctx, websocket.CloseGoingAway, "")
		}
		return true
	})

	if running && s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return
	}

	peer := NewPeer(conn, r.RemoteAddr, s.rateLimitConfig)
	s.peers.Store(peer.ID(), peer)

	go s.handlePeer(peer)
}

func (s *Server) handlePeer(peer *Peer) {
	voluntary := false
	defer func() {
		if s.onDisconnect != nil {
			s.onDisconnect(peer, voluntary)
		}
		s.peers.Delete(peer.ID())
		peer.Close(context.Background())
	}()

	peer.conn.SetReadDeadline(time.Now().Add(readTimeout))
	peer.conn.SetPongHandler(func(string) error {
		peer.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	if s.onConnect != nil {
		s.onConnect(peer)
	}

	for {
		_, data, err := peer.conn.ReadMessage()
		if err != nil {
			voluntary = websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			if !voluntary && peer.IsAlive() {
				log.Debug().
					WithMeta("scope", "renderer").
					WithMeta("peer", peer.ID()).
					Msgf("read ended: %v", err).Send()
			}
			return
		}

		peer.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if !peer.CheckRateLimit() {
			log.Warn().
				WithMeta("scope", "renderer").
				WithMeta("peer", peer.ID()).
				WithMeta("remote_addr", peer.RemoteAddr()).
				Msg("rate limit exceeded").Send()
			peer.CloseWithCode(context.Background(), websocket.ClosePolicyViolation, "Rate limit exceeded")
			return
		}

		action, err := protocol.DecodeAction(data)
		if err != nil {
			// Unknown messages are ignored, as the renderer has always done.
			log.Debug().
				WithMeta("scope", "renderer").
				WithMeta("peer", peer.ID()).
				Msgf("ignored: %v", err).Send()
			continue
		}

		if s.onAction != nil {
			s.onAction(peer, action)
		}
	}
}

// Peer returns a connected peer by ID
func (s *Server) Peer(id string) (*Peer, bool) {
	if peer, ok := s.peers.Load(id); ok {
		return peer.(*Peer), true
	}
	return nil, false
}

// PeerCount returns the number of connected peers.
func (s *Server) PeerCount() int {
	n := 0
	s.peers.Range(func(key, value interface{}) bool {
		n++
		return true
	})
	return n
}
