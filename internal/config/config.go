// Package config loads client and renderer settings from YAML files.
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	conn := websocket.NewConn(cfg.ConnConfig())
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/lattesec/log"
	"golang.org/x/time/rate"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/renderer"
	"github.com/luciancaetano/kephasview/internal/websocket"
)

var (
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	ErrInvalidSize     = errors.New("invalid surface size")
	ErrInvalidInput    = errors.New("invalid input kind")
	ErrInvalidTick     = errors.New("invalid tick period")

	validConfigExtensions = []string{".yml", ".yaml"}
)

// Input kinds.
const (
	InputWindow = "window"
	InputEvdev  = "evdev"
)

type Reconnect struct {
	Enabled      bool          `yaml:"enabled"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type RateLimit struct {
	MessagesPerSecond float64 `yaml:"messages_per_second"`
	Burst             int     `yaml:"burst"`
	Enabled           bool    `yaml:"enabled"`
}

type Renderer struct {
	Addr      string    `yaml:"addr"`
	FPS       float64   `yaml:"fps"`
	RateLimit RateLimit `yaml:"rate_limit"`
}

type Config struct {
	Endpoint         string        `yaml:"endpoint"`
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	TickPeriod       time.Duration `yaml:"tick_period"`
	FrameSequencing  bool          `yaml:"frame_sequencing"`
	Input            string        `yaml:"input"`
	EvdevDevice      string        `yaml:"evdev_device"`
	WindowTitle      string        `yaml:"window_title"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	Reconnect        Reconnect     `yaml:"reconnect"`
	Renderer         Renderer      `yaml:"renderer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	rc := websocket.DefaultReconnectConfig()
	return &Config{
		Endpoint:         kephasview.DefaultEndpoint,
		Width:            kephasview.DefaultWidth,
		Height:           kephasview.DefaultHeight,
		TickPeriod:       kephasview.DefaultTickPeriod,
		Input:            InputWindow,
		WindowTitle:      "kephasview",
		HandshakeTimeout: 5 * time.Second,
		Reconnect: Reconnect{
			Enabled:      rc.Enabled,
			InitialDelay: rc.InitialDelay,
			MaxDelay:     rc.MaxDelay,
			MaxAttempts:  rc.MaxAttempts,
		},
		Renderer: Renderer{
			Addr: ":8080",
			FPS:  30,
			RateLimit: RateLimit{
				MessagesPerSecond: 1000,
				Burst:             2000,
				Enabled:           true,
			},
		},
	}
}

// Load merges every config file found on the search path over the defaults.
func Load() (*Config, error) {
	paths := resolvePaths()

	log.Debug().
		WithMeta("scope", "config").
		Msgf("using config paths: %s", strings.Join(paths, ", ")).Send()

	return LoadFrom(paths...)
}

// LoadFrom merges kephasview.yml and kephasview.yaml from each dir, in order,
// over the defaults and validates the result.
func LoadFrom(dirs ...string) (*Config, error) {
	cfg := Default()

	for _, dir := range dirs {
		for _, ext := range validConfigExtensions {
			cfgPath := filepath.Join(dir, FileName+ext)
			if err := mergeFile(cfg, cfgPath); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().WithMeta("scope", "config").Msgf("config loaded: %#v", cfg).Send()
	return cfg, nil
}

func mergeFile(cfg *Config, cfgPath string) error {
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().
				WithMeta("scope", "config").
				WithMeta("path", cfgPath).
				Msg("not found").Send()
			return nil
		}

		log.Error().
			WithMeta("scope", "config").
			WithMeta("path", cfgPath).
			Msgf("failed to read config file: %v", err).Send()
		return err
	}

	// Keys absent from the file keep the value of the layers below it.
	tmp := *cfg
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		log.Warn().
			WithMeta("scope", "config").
			WithMeta("path", cfgPath).
			Msgf("failed to parse: %v", err).Send()
		return fmt.Errorf("failed to parse config from %s: %w", cfgPath, err)
	}

	if err := mergo.Merge(cfg, tmp, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
		log.Warn().
			WithMeta("scope", "config").
			WithMeta("path", cfgPath).
			Msgf("failed to merge config: %v", err).Send()
		return fmt.Errorf("failed to merge config from %s: %w", cfgPath, err)
	}

	log.Info().
		WithMeta("scope", "config").
		WithMeta("path", cfgPath).
		Msgf("loaded config from %s", cfgPath).Send()
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("%w: scheme must be ws or wss, got %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}

	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, c.Width, c.Height)
	}

	if c.TickPeriod <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTick, c.TickPeriod)
	}

	switch c.Input {
	case InputWindow, InputEvdev:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidInput, c.Input)
	}
	return nil
}

// ConnConfig returns the client connection settings.
func (c *Config) ConnConfig(name string) *websocket.ConnConfig {
	cc := websocket.DefaultConnConfig(c.Endpoint)
	cc.Name = name
	cc.HandshakeTimeout = c.HandshakeTimeout
	cc.Reconnect = websocket.ReconnectConfig{
		Enabled:      c.Reconnect.Enabled,
		InitialDelay: c.Reconnect.InitialDelay,
		MaxDelay:     c.Reconnect.MaxDelay,
		MaxAttempts:  c.Reconnect.MaxAttempts,
	}
	return cc
}

// RendererConfig returns the loopback renderer settings for the same surface.
func (c *Config) RendererConfig() renderer.Config {
	rl := websocket.NoRateLimit()
	if c.Renderer.RateLimit.Enabled {
		rl = &websocket.RateLimitConfig{
			MessagesPerSecond: rate.Limit(c.Renderer.RateLimit.MessagesPerSecond),
			Burst:             c.Renderer.RateLimit.Burst,
			Enabled:           true,
		}
	}
	return renderer.Config{
		Addr:      c.Renderer.Addr,
		Width:     c.Width,
		Height:    c.Height,
		FPS:       c.Renderer.FPS,
		Sequenced: c.FrameSequencing,
		RateLimit: rl,
	}
}
