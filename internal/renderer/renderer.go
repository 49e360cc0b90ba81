package renderer

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/lattesec/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/protocol"
	"github.com/luciancaetano/kephasview/internal/websocket"
)

// Step is how far one action message moves a view, in pixels for the
// planar axes and shade levels for the vertical one.
const Step = 4

// Config configures the test-pattern renderer.
type Config struct {
	Addr      string
	Width     int
	Height    int
	FPS       float64
	Sequenced bool
	RateLimit *websocket.RateLimitConfig

	// CheckOrigin validates browser origins. Nil allows same-origin requests
	// and clients that send no Origin header.
	CheckOrigin websocket.CheckOriginFn
}

// Offset is the camera position of one peer.
type Offset struct {
	X, Y, Z int
}

// Apply moves o by one step in the direction of a. Unknown actions leave it unchanged.
func (o Offset) Apply(a kephasview.Action) Offset {
	switch a {
	case kephasview.MoveForward:
		o.Y -= Step
	case kephasview.MoveBackward:
		o.Y += Step
	case kephasview.MoveLeft:
		o.X -= Step
	case kephasview.MoveRight:
		o.X += Step
	case kephasview.MoveUp:
		o.Z++
	case kephasview.MoveDown:
		o.Z--
	}
	return o
}

// Pattern renders a width x height RGBA gradient shifted by o.
// Red follows the column, green the row, blue the height, alpha is opaque.
func Pattern(width, height int, o Offset) []byte {
	pix := make([]byte, kephasview.FrameSize(width, height))
	blue := uint8(o.Z * 8)
	i := 0
	for y := 0; y < height; y++ {
		g := uint8(y + o.Y)
		for x := 0; x < width; x++ {
			pix[i] = uint8(x + o.X)
			pix[i+1] = g
			pix[i+2] = blue
			pix[i+3] = 0xFF
			i += kephasview.BytesPerPixel
		}
	}
	return pix
}

type view struct {
	mu     sync.Mutex
	offset Offset
	seq    uint32
}

func (v *view) move(a kephasview.Action) {
	v.mu.Lock()
	v.offset = v.offset.Apply(a)
	v.mu.Unlock()
}

func (v *view) next() (Offset, uint32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	return v.offset, v.seq
}

// Renderer streams a test pattern to every connected peer and moves each
// peer's view by the actions it sends.
type Renderer struct {
	cfg    Config
	server *websocket.Server
	views  sync.Map // map[string]*view
}

// New creates a renderer. Zero sizes select the default surface and a
// non-positive FPS selects 30.
func New(cfg Config) *Renderer {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = kephasview.DefaultWidth, kephasview.DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}

	r := &Renderer{cfg: cfg}
	r.server = websocket.NewServer(&websocket.ServerConfig{
		Addr:            cfg.Addr,
		RateLimitConfig: cfg.RateLimit,
		CheckOrigin:     cfg.CheckOrigin,
		OnConnect:       r.onConnect,
		OnDisconnect:    r.onDisconnect,
		OnAction:        r.onAction,
	})
	return r
}

// Handler serves the renderer endpoint without binding a listener.
func (r *Renderer) Handler() http.Handler {
	return r.server.Handler()
}

// Start listens on the configured address.
func (r *Renderer) Start(ctx context.Context) error {
	return r.server.Start(ctx)
}

// Stop disconnects every peer and stops listening.
func (r *Renderer) Stop(ctx context.Context) error {
	return r.server.Stop(ctx)
}

// Addr returns the listen address.
func (r *Renderer) Addr() string {
	return r.server.Addr()
}

// Offset returns the current view of a connected peer.
func (r *Renderer) Offset(peerID string) (Offset, bool) {
	v, ok := r.views.Load(peerID)
	if !ok {
		return Offset{}, false
	}
	vw := v.(*view)
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.offset, true
}

func (r *Renderer) onConnect(peer *websocket.Peer) {
	v := &view{}
	r.views.Store(peer.ID(), v)

	log.Info().
		WithMeta("scope", "renderer").
		WithMeta("peer", peer.ID()).
		WithMeta("remote_addr", peer.RemoteAddr()).
		Msg("peer connected").Send()

	go r.stream(peer, v)
}

func (r *Renderer) onDisconnect(peer *websocket.Peer, voluntary bool) {
	r.views.Delete(peer.ID())
	log.Info().
		WithMeta("scope", "renderer").
		WithMeta("peer", peer.ID()).
		WithMetaf("voluntary", "%t", voluntary).
		Msg("peer disconnected").Send()
}

func (r *Renderer) onAction(peer *websocket.Peer, action kephasview.Action) {
	if v, ok := r.views.Load(peer.ID()); ok {
		v.(*view).move(action)
	}
}

// stream paces frames to one peer until its connection ends.
func (r *Renderer) stream(peer *websocket.Peer, v *view) {
	ctx := peer.Context()
	limiter := rate.NewLimiter(rate.Limit(r.cfg.FPS), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		offset, seq := v.next()
		frame := Pattern(r.cfg.Width, r.cfg.Height, offset)
		if r.cfg.Sequenced {
			var err error
			if frame, err = protocol.EncodeFrame(seq, frame); err != nil {
				log.Error().
					WithMeta("scope", "renderer").
					WithMeta("peer", peer.ID()).
					Msgf("encode frame: %v", err).Send()
				return
			}
		}

		switch err := peer.SendFrame(ctx, frame); {
		case err == nil, errors.Is(err, websocket.ErrQueueFull):
		default:
			return
		}
	}
}
