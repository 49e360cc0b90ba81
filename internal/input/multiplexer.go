package input

import (
	"context"

	"github.com/lattesec/log"

	"github.com/luciancaetano/kephasview"
)

// Sender is the outbound half of a connection.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Multiplexer turns key transitions into a live action set and flushes it on every tick.
type Multiplexer struct {
	set    ActionSet
	sender Sender
	scope  string
}

// NewMultiplexer creates a multiplexer with an empty action set.
// scope tags diagnostic log lines, typically with the session id.
func NewMultiplexer(sender Sender, scope string) *Multiplexer {
	return &Multiplexer{sender: sender, scope: scope}
}

// OnKeyDown adds the mapped action. Unmapped keys are ignored.
func (m *Multiplexer) OnKeyDown(code, key string) bool {
	a, ok := Lookup(code, key)
	if !ok {
		return false
	}
	return m.set.Add(a)
}

// OnKeyUp removes the mapped action. Unmapped keys are ignored.
func (m *Multiplexer) OnKeyUp(code, key string) bool {
	a, ok := Lookup(code, key)
	if !ok {
		return false
	}
	return m.set.Remove(a)
}

// Handle dispatches a key event to OnKeyDown or OnKeyUp.
func (m *Multiplexer) Handle(ev kephasview.KeyEvent) bool {
	if ev.Down {
		return m.OnKeyDown(ev.Code, ev.Key)
	}
	return m.OnKeyUp(ev.Code, ev.Key)
}

// Tick sends every active action once and returns how many sends were accepted.
// Rejected sends are dropped: the next tick retransmits the full set anyway.
func (m *Multiplexer) Tick(ctx context.Context) int {
	sent := 0
	m.set.Each(func(a kephasview.Action) {
		// Members are always vocabulary actions, so the wire form is the bare identifier.
		if err := m.sender.Send(ctx, []byte(a)); err != nil {
			log.Debug().
				WithMeta("scope", "input").
				WithMeta("session", m.scope).
				WithMeta("action", a).
				Msgf("dropped: %v", err).Send()
			return
		}
		sent++
	})
	return sent
}

// Active returns the current action set in vocabulary order.
func (m *Multiplexer) Active() []kephasview.Action {
	return m.set.Slice()
}
