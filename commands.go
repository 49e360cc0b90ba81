package kephasview

import "time"

// Action is a semantic unit of player intent sent to the renderer.
type Action string

// The closed action vocabulary understood by the renderer.
const (
	MoveForward  Action = "move_forward"
	MoveBackward Action = "move_backward"
	MoveLeft     Action = "move_left"
	MoveRight    Action = "move_right"
	MoveUp       Action = "move_up"
	MoveDown     Action = "move_down"
)

var actions = [...]Action{MoveForward, MoveBackward, MoveLeft, MoveRight, MoveUp, MoveDown}

// Actions returns every valid action in declaration order.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions[:])
	return out
}

// Valid reports whether a belongs to the action vocabulary.
func (a Action) Valid() bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// Session defaults
const (
	// DefaultTickPeriod is the nominal interval between action flushes (~60 Hz).
	DefaultTickPeriod = 16 * time.Millisecond

	// DefaultEndpoint is the renderer address used when none is configured.
	DefaultEndpoint = "ws://localhost:8080/"

	// Default surface size, agreed with the renderer out of band.
	DefaultWidth  = 1024
	DefaultHeight = 768

	// BytesPerPixel is the RGBA8 pixel stride.
	BytesPerPixel = 4
)

// Standard error messages
const (
	// Frame errors
	ErrFrameSize  = "frame size does not match surface"
	ErrStaleFrame = "stale frame"

	// Connection errors
	ErrConnectionNotOpen = "connection is not open"
	ErrConnectionClosed  = "connection is closed"
	ErrSendQueueFull     = "send queue is full"
	ErrAlreadyStarted    = "connection already started"
)

// FrameSize returns the byte length of one RGBA frame for the given surface.
func FrameSize(width, height int) int {
	return width * height * BytesPerPixel
}
