// kephasview is the remote-display client. It reads kephasview.yml, connects
// to the renderer and either opens a window or, with input: evdev, runs
// headless reading keys from the local keyboard devices.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lattesec/log"
	"golang.org/x/sync/errgroup"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/config"
	"github.com/luciancaetano/kephasview/internal/display"
	"github.com/luciancaetano/kephasview/internal/keyboard"
	"github.com/luciancaetano/kephasview/internal/screen"
	"github.com/luciancaetano/kephasview/internal/session"
	"github.com/luciancaetano/kephasview/internal/websocket"
)

const statsInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error().
			WithMeta("scope", "main").
			Msgf("config: %v", err).Send()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		WithMeta("scope", "main").
		WithMeta("endpoint", cfg.Endpoint).
		WithMeta("input", cfg.Input).
		WithMetaf("size", "%dx%d", cfg.Width, cfg.Height).
		Msg("starting kephasview").Send()

	switch cfg.Input {
	case config.InputEvdev:
		err = runHeadless(ctx, cfg)
	default:
		err = runWindow(ctx, cfg)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().
			WithMeta("scope", "main").
			Msgf("exited: %v", err).Send()
		os.Exit(1)
	}
}

func newSession(cfg *config.Config, surface kephasview.Surface, exitOnClose bool) *session.Session {
	return session.New(
		websocket.NewConn(cfg.ConnConfig("client")),
		surface,
		session.Options{
			TickPeriod:  cfg.TickPeriod,
			Sequenced:   cfg.FrameSequencing,
			ExitOnClose: exitOnClose,
		},
	)
}

// runWindow shows frames in a window. ebiten needs the main goroutine, so the
// session runs alongside and the window decides when the program ends.
func runWindow(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	window := screen.NewWindow(cfg.Width, cfg.Height, cfg.WindowTitle)
	sess := newSession(cfg, window, false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		return window.Run(gctx, sess.Key)
	})
	g.Go(func() error {
		<-gctx.Done()
		window.Close()
		return nil
	})

	showErr := window.Show()
	cancel()
	return errors.Join(showErr, g.Wait())
}

// runHeadless keeps the latest frame in memory and reads keys from evdev.
// The process exits when the connection is gone.
func runHeadless(ctx context.Context, cfg *config.Config) error {
	canvas := display.NewCanvas(cfg.Width, cfg.Height)
	sess := newSession(cfg, canvas, true)
	keys := keyboard.NewEvdev(cfg.EvdevDevice)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sess.Run(gctx)
	})
	g.Go(func() error {
		return keys.Run(gctx, sess.Key)
	})
	g.Go(func() error {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				st := sess.Stats()
				log.Info().
					WithMeta("scope", "main").
					WithMeta("session", sess.ID()).
					WithMetaf("frames", "%d", st.Frames).
					WithMetaf("rejected", "%d", st.RejectedFrames).
					WithMetaf("sent", "%d", st.Sent).
					Msg("stats").Send()
			}
		}
	})

	return g.Wait()
}
