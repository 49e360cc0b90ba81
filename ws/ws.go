// Package ws is the public entry point: it dials renderers, builds sessions
// and serves the loopback test-pattern renderer.
package ws

import (
	"net/http"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/display"
	"github.com/luciancaetano/kephasview/internal/renderer"
	"github.com/luciancaetano/kephasview/internal/session"
	"github.com/luciancaetano/kephasview/internal/websocket"
)

type ConnConfig = websocket.ConnConfig
type ReconnectConfig = websocket.ReconnectConfig
type RateLimitConfig = websocket.RateLimitConfig
type CheckOriginFn = websocket.CheckOriginFn
type RendererConfig = renderer.Config
type SessionOptions = session.Options

// NewConnConfig returns a connection configuration for endpoint with
// reconnection disabled.
func NewConnConfig(endpoint string) *ConnConfig {
	return websocket.DefaultConnConfig(endpoint)
}

// Dial creates a connection to a renderer. It does not connect until Start,
// which a session calls from Run.
//
// Example:
//
//	cfg := ws.NewConnConfig("ws://localhost:8080/")
//	cfg.Reconnect = ws.ReconnectConfig{Enabled: true, InitialDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 10}
//	conn := ws.Dial(cfg)
func Dial(cfg *ConnConfig) *websocket.Conn {
	return websocket.NewConn(cfg)
}

// NewSession creates a session over conn showing frames on surface.
func NewSession(conn kephasview.Conn, surface kephasview.Surface, opts SessionOptions) *session.Session {
	return session.New(conn, surface, opts)
}

// NewCanvas returns an in-memory surface, for headless clients and tests.
func NewCanvas(width, height int) *display.Canvas {
	return display.NewCanvas(width, height)
}

// NewRenderer creates the loopback test-pattern renderer.
//
// Example:
//
//	r := ws.NewRenderer(ws.RendererConfig{Addr: ":8080", FPS: 30, RateLimit: ws.DefaultRateLimitConfig()})
//	if err := r.Start(ctx); err != nil {
//	    return err
//	}
//	defer r.Stop(ctx)
func NewRenderer(cfg RendererConfig) *renderer.Renderer {
	return renderer.New(cfg)
}

// AllOrigins returns a checkOrigin function that allows all origins
func AllOrigins() CheckOriginFn {
	return func(r *http.Request) bool {
		return true
	}
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return websocket.DefaultRateLimitConfig()
}

// NoRateLimit returns a configuration with rate limiting disabled
func NoRateLimit() *RateLimitConfig {
	return websocket.NoRateLimit()
}
