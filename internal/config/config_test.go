package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/kephasview"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, kephasview.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, kephasview.DefaultTickPeriod, cfg.TickPeriod)
	assert.False(t, cfg.FrameSequencing)
	assert.False(t, cfg.Reconnect.Enabled)
}

func TestLoadFromNoFiles(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromMergesInOrder(t *testing.T) {
	t.Parallel()

	low, high := t.TempDir(), t.TempDir()
	writeConfig(t, low, "kephasview.yml", `
endpoint: ws://render.local:9000/
width: 640
height: 480
reconnect:
  enabled: true
  max_attempts: 3
`)
	writeConfig(t, high, "kephasview.yaml", `
width: 800
tick_period: 20ms
frame_sequencing: true
renderer:
  fps: 60
`)

	cfg, err := LoadFrom(low, high)
	require.NoError(t, err)

	assert.Equal(t, "ws://render.local:9000/", cfg.Endpoint)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 480, cfg.Height)
	assert.Equal(t, 20*time.Millisecond, cfg.TickPeriod)
	assert.True(t, cfg.FrameSequencing)
	assert.True(t, cfg.Reconnect.Enabled)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, Default().Reconnect.InitialDelay, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 60.0, cfg.Renderer.FPS)
	assert.Equal(t, ":8080", cfg.Renderer.Addr)
}

func TestLoadFromDisablesRateLimit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "kephasview.yml", `
renderer:
  rate_limit:
    enabled: false
`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.False(t, cfg.RendererConfig().RateLimit.Enabled)
	assert.True(t, Default().RendererConfig().RateLimit.Enabled)
}

func TestLoadFromHigherLayerTurnsSwitchesOff(t *testing.T) {
	t.Parallel()

	low, high := t.TempDir(), t.TempDir()
	writeConfig(t, low, "kephasview.yml", `
frame_sequencing: true
reconnect:
  enabled: true
  max_attempts: 5
renderer:
  fps: 60
`)
	writeConfig(t, high, "kephasview.yml", `
frame_sequencing: false
reconnect:
  enabled: false
  max_attempts: 0
renderer:
  rate_limit:
    enabled: false
`)

	cfg, err := LoadFrom(low, high)
	require.NoError(t, err)

	assert.False(t, cfg.FrameSequencing)
	assert.False(t, cfg.Reconnect.Enabled)
	assert.Zero(t, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, Default().Reconnect.MaxDelay, cfg.Reconnect.MaxDelay)
	assert.Equal(t, 60.0, cfg.Renderer.FPS)
	assert.False(t, cfg.Renderer.RateLimit.Enabled)
	assert.Equal(t, 1000.0, cfg.Renderer.RateLimit.MessagesPerSecond)
	assert.False(t, cfg.RendererConfig().Sequenced)
}

func TestLoadFromParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "kephasview.yml", "width: [not, a, number\n")

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestLoadFromRejectsInvalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "kephasview.yml", "input: gamepad\n")

	_, err := LoadFrom(dir)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLoadUsesEnvDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "kephasview.yml", "window_title: from-env\n")
	t.Setenv(KEPHASVIEW_CONFIG_DIR_ENV, dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.WindowTitle)
}

func TestResolvePathsOrder(t *testing.T) {
	t.Setenv(KEPHASVIEW_CONFIG_DIR_ENV, "/tmp/override")

	paths := resolvePaths()
	require.NotEmpty(t, paths)
	assert.Equal(t, "/etc/kephasview", paths[0])
	assert.Equal(t, "/tmp/override", paths[len(paths)-1])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"http scheme", func(c *Config) { c.Endpoint = "http://localhost:8080/" }, ErrInvalidEndpoint},
		{"no host", func(c *Config) { c.Endpoint = "ws:///" }, ErrInvalidEndpoint},
		{"zero width", func(c *Config) { c.Width = 0 }, ErrInvalidSize},
		{"negative height", func(c *Config) { c.Height = -1 }, ErrInvalidSize},
		{"zero tick", func(c *Config) { c.TickPeriod = 0 }, ErrInvalidTick},
		{"unknown input", func(c *Config) { c.Input = "joystick" }, ErrInvalidInput},
		{"evdev", func(c *Config) { c.Input = InputEvdev }, nil},
		{"wss", func(c *Config) { c.Endpoint = "wss://example.com/stream" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConnConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Reconnect.Enabled = true
	cc := cfg.ConnConfig("session-1")

	assert.Equal(t, cfg.Endpoint, cc.Endpoint)
	assert.Equal(t, "session-1", cc.Name)
	assert.True(t, cc.Reconnect.Enabled)
	assert.Equal(t, cfg.Reconnect.MaxAttempts, cc.Reconnect.MaxAttempts)

	rc := cfg.RendererConfig()
	assert.Equal(t, cfg.Width, rc.Width)
	assert.Equal(t, cfg.Height, rc.Height)
	assert.EqualValues(t, 1000, rc.RateLimit.MessagesPerSecond)
}
