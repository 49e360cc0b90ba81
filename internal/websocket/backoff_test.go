package websocket

import (
	"testing"
	"time"
)

func TestReconnectDelay(t *testing.T) {
	t.Parallel()

	cfg := ReconnectConfig{
		Enabled:      true,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		MaxAttempts:  10,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		if got := cfg.delay(tt.attempt); got != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestReconnectDelayDefaults(t *testing.T) {
	t.Parallel()

	var cfg ReconnectConfig
	if got := cfg.delay(1); got != 250*time.Millisecond {
		t.Errorf("delay(1) with zero config = %v, want 250ms", got)
	}
	if got := cfg.delay(3); got != time.Second {
		t.Errorf("delay(3) without cap = %v, want 1s", got)
	}
}

func TestReconnectDelayWithoutCapNeverWraps(t *testing.T) {
	t.Parallel()

	cfg := ReconnectConfig{Enabled: true}
	prev := cfg.delay(1)
	for attempt := 2; attempt <= 200; attempt++ {
		got := cfg.delay(attempt)
		if got < prev {
			t.Fatalf("delay(%d) = %v, shorter than delay(%d) = %v", attempt, got, attempt-1, prev)
		}
		prev = got
	}
	if prev <= time.Hour {
		t.Errorf("delay(200) = %v, want it to keep growing past an hour", prev)
	}
}

func TestReconnectAllows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     ReconnectConfig
		attempt int
		want    bool
	}{
		{"disabled", ReconnectConfig{Enabled: false, MaxAttempts: 3}, 1, false},
		{"within bound", ReconnectConfig{Enabled: true, MaxAttempts: 3}, 3, true},
		{"past bound", ReconnectConfig{Enabled: true, MaxAttempts: 3}, 4, false},
		{"unbounded", ReconnectConfig{Enabled: true}, 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cfg.allows(tt.attempt); got != tt.want {
				t.Errorf("allows(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestDefaultReconnectConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultReconnectConfig()
	if cfg.Enabled {
		t.Error("reconnection must be disabled by default")
	}
	if cfg.MaxAttempts <= 0 || cfg.InitialDelay <= 0 || cfg.MaxDelay < cfg.InitialDelay {
		t.Errorf("unexpected default bounds: %+v", cfg)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		StateIdle:       "idle",
		StateConnecting: "connecting",
		StateOpen:       "open",
		StateBackoff:    "backoff",
		StateClosed:     "closed",
		State(99):       "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
