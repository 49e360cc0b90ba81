package websocket

import (
	"math"
	"time"
)

// ReconnectConfig controls reconnection after the connection drops or a dial fails.
type ReconnectConfig struct {
	// Enabled turns on reconnection. When false a closed connection stays closed.
	Enabled bool
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential growth of the wait.
	MaxDelay time.Duration
	// MaxAttempts bounds consecutive failed attempts. 0 means unbounded.
	MaxAttempts int
}

// DefaultReconnectConfig returns reconnection disabled with sane bounds for when it is enabled.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		Enabled:      false,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		MaxAttempts:  8,
	}
}

// delay returns the wait before retry number attempt (1-based), doubling from
// InitialDelay and capped at MaxDelay. Without a cap it stops doubling
// before the duration overflows.
func (r ReconnectConfig) delay(attempt int) time.Duration {
	d := r.InitialDelay
	if d <= 0 {
		d = 250 * time.Millisecond
	}
	for i := 1; i < attempt && d <= math.MaxInt64/2; i++ {
		d *= 2
		if r.MaxDelay > 0 && d >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// allows reports whether retry number attempt may proceed.
func (r ReconnectConfig) allows(attempt int) bool {
	if !r.Enabled {
		return false
	}
	return r.MaxAttempts <= 0 || attempt <= r.MaxAttempts
}
