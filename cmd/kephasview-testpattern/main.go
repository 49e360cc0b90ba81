// kephasview-testpattern serves a moving gradient to kephasview clients for
// development. It reads the renderer section of kephasview.yml.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lattesec/log"

	"github.com/luciancaetano/kephasview/internal/config"
	"github.com/luciancaetano/kephasview/internal/renderer"
)

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

	rcfg := cfg.RendererConfig()
	r := renderer.New(rcfg)
	if err := r.Start(ctx); err != nil {
		log.Error().
			WithMeta("scope", "main").
			WithMeta("addr", rcfg.Addr).
			Msgf("failed to start: %v", err).Send()
		os.Exit(1)
	}

	log.Info().
		WithMeta("scope", "main").
		WithMeta("addr", r.Addr()).
		WithMetaf("size", "%dx%d", rcfg.Width, rcfg.Height).
		WithMetaf("sequenced", "%t", rcfg.Sequenced).
		Msg("test pattern running").Send()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(shutdownCtx); err != nil {
		log.Warn().
			WithMeta("scope", "main").
			Msgf("shutdown: %v", err).Send()
	}
}
