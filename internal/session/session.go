// Package session runs one client: it feeds key events into the input
// multiplexer, flushes the action set on every tick and displays the frames
// that come back.
package session

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lattesec/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/display"
	"github.com/luciancaetano/kephasview/internal/input"
)

var (
	ErrDisconnected = errors.New("connection closed")
	ErrStopped      = errors.New("session stopped")
)

const (
	keyQueueSize = 64
	closeTimeout = 2 * time.Second
)

// Options tune a session. The zero value is valid.
type Options struct {
	// TickPeriod is the action flush interval. Zero selects kephasview.DefaultTickPeriod.
	TickPeriod time.Duration
	// Sequenced expects a sequence prefix on every frame and drops stale ones.
	Sequenced bool
	// ExitOnClose makes Run return ErrDisconnected once the connection is
	// terminally closed. Otherwise the session keeps showing the last frame
	// and processing input until its context ends.
	ExitOnClose bool
}

// Stats are running counters, safe to read from any goroutine.
type Stats struct {
	Ticks          uint64
	Sent           uint64
	Frames         uint64
	RejectedFrames uint64
}

// Session owns the action set, the display sink and the connection of one
// client. All of them are touched only by the goroutine running Run.
type Session struct {
	id   string
	conn kephasview.Conn
	mux  *input.Multiplexer
	sink *display.Sink
	opts Options

	keys      chan kephasview.KeyEvent
	done      chan struct{}
	malformed rate.Sometimes
	running   atomic.Bool

	ticks    atomic.Uint64
	sent     atomic.Uint64
	frames   atomic.Uint64
	rejected atomic.Uint64
}

// New creates a session sending over conn and displaying on surface.
// Run starts the connection; callers must not start it themselves.
func New(conn kephasview.Conn, surface kephasview.Surface, opts Options) *Session {
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = kephasview.DefaultTickPeriod
	}

	id := uuid.New().String()
	return &Session{
		id:        id,
		conn:      conn,
		mux:       input.NewMultiplexer(conn, id),
		sink:      display.NewSink(surface, opts.Sequenced),
		opts:      opts,
		keys:      make(chan kephasview.KeyEvent, keyQueueSize),
		done:      make(chan struct{}),
		malformed: rate.Sometimes{First: 3, Interval: 5 * time.Second},
	}
}

// ID returns the session id used in log lines.
func (s *Session) ID() string {
	return s.id
}

// Key queues a key transition for the session loop. It is safe to call from
// any goroutine and is a no-op once Run has returned.
func (s *Session) Key(ev kephasview.KeyEvent) {
	select {
	case s.keys <- ev:
	case <-s.done:
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Ticks:          s.ticks.Load(),
		Sent:           s.sent.Load(),
		Frames:         s.frames.Load(),
		RejectedFrames: s.rejected.Load(),
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Run starts the connection and drives the session until ctx is cancelled,
// or until the connection closes when Options.ExitOnClose is set. The
// connection is closed on return.
func (s *Session) Run(ctx context.Context) (err error) {
	if !s.running.CompareAndSwap(false, true) {
		return ErrStopped
	}
	defer close(s.done)

	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := s.conn.Close(closeCtx); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := s.conn.Start(ctx); err != nil {
		return err
	}

	log.Info().
		WithMeta("scope", "session").
		WithMeta("session", s.id).
		WithMeta("tick", s.opts.TickPeriod).
		WithMetaf("sequenced", "%t", s.opts.Sequenced).
		Msg("started").Send()

	ticker := time.NewTicker(s.opts.TickPeriod)
	defer ticker.Stop()

	frames := s.conn.Frames()
	events := s.conn.Events()

	for {
		select {
		case <-ctx.Done():
			log.Info().
				WithMeta("scope", "session").
				WithMeta("session", s.id).
				Msg("stopped").Send()
			return nil

		case ev := <-s.keys:
			s.mux.Handle(ev)

		case <-ticker.C:
			s.ticks.Add(1)
			s.sent.Add(uint64(s.mux.Tick(ctx)))

		case frame := <-frames:
			s.display(frame)

		case ev, ok := <-events:
			if !ok {
				events = nil
				if s.opts.ExitOnClose {
					return ErrDisconnected
				}
				continue
			}
			s.logEvent(ev)
		}
	}
}

func (s *Session) display(frame []byte) {
	if err := s.sink.OnMessage(frame); err != nil {
		s.rejected.Add(1)
		s.malformed.Do(func() {
			log.Warn().
				WithMeta("scope", "session").
				WithMeta("session", s.id).
				Msgf("frame rejected: %v", err).Send()
		})
		return
	}
	s.frames.Add(1)
}

func (s *Session) logEvent(ev kephasview.ConnEvent) {
	switch ev.Kind {
	case kephasview.EventError:
		log.Warn().
			WithMeta("scope", "session").
			WithMeta("session", s.id).
			Msgf("connection error: %v", ev.Err).Send()
	case kephasview.EventBackoff:
		log.Info().
			WithMeta("scope", "session").
			WithMeta("session", s.id).
			WithMetaf("attempt", "%d", ev.Attempt).
			Msg("connection lost, retrying").Send()
	default:
		log.Debug().
			WithMeta("scope", "session").
			WithMeta("session", s.id).
			Msgf("connection %s", ev.Kind).Send()
	}
}
