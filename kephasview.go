package kephasview

import (
	"context"
	"image"
)

// KeyEvent is a single key transition using DOM KeyboardEvent naming.
//
// Code is the physical key ("KeyW", "Space", "ShiftLeft"), Key is the logical
// key value ("w", "ArrowUp"). Sources fill whichever they know; the input
// table matches on either.
type KeyEvent struct {
	Code string
	Key  string
	Down bool
}

// KeySource produces key transitions until ctx is cancelled or the source fails.
//
// Example:
//
//	src := keyboard.NewEvdev("")
//	go src.Run(ctx, func(ev kephasview.KeyEvent) {
//	    sess.Key(ev)
//	})
type KeySource interface {
	// Run blocks, invoking emit for every key press and release.
	// emit may be called from a goroutine other than the caller's.
	Run(ctx context.Context, emit func(KeyEvent)) error
}

// Surface is a fixed-size pixel target that receives whole frames.
//
// Implementations must copy the image if they retain it past Put; the
// caller reuses nothing, but the backing bytes belong to the transport.
type Surface interface {
	// Size returns the fixed width and height of the surface in pixels.
	Size() (width, height int)

	// Put replaces the entire surface content with img, anchored at (0,0).
	Put(img *image.RGBA)
}

// Conn is the duplex channel to the renderer as seen by a session.
//
// Example usage:
//
//	conn := ws.Dial(ws.NewConnConfig("ws://localhost:8080/"))
//	if err := conn.Start(ctx); err != nil {
//	    return err
//	}
//	defer conn.Close(ctx)
//
//	conn.Send(ctx, []byte(kephasview.MoveForward))
//	frame := <-conn.Frames()
type Conn interface {
	// Start begins connecting in the background. It does not wait for the
	// handshake; lifecycle changes are reported on Events.
	Start(ctx context.Context) error

	// Send queues one text message without blocking.
	//
	// Returns an error if the connection is not open or the queue is full.
	// Callers on the tick path are expected to drop these errors.
	Send(ctx context.Context, payload []byte) error

	// Frames delivers binary messages from the renderer. Only the latest
	// undelivered frame is kept.
	Frames() <-chan []byte

	// Events delivers lifecycle transitions for diagnostics.
	Events() <-chan ConnEvent

	// Close closes the connection with a normal closure.
	Close(ctx context.Context) error

	// IsOpen reports whether sends are currently accepted.
	IsOpen() bool
}

// ConnEventKind classifies a connection lifecycle transition.
type ConnEventKind uint8

const (
	EventUnknown ConnEventKind = iota
	EventConnecting
	EventOpen
	EventError
	EventBackoff
	EventClosed
)

func (k ConnEventKind) String() string {
	switch k {
	case EventConnecting:
		return "connecting"
	case EventOpen:
		return "open"
	case EventError:
		return "error"
	case EventBackoff:
		return "backoff"
	case EventClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnEvent is a lifecycle transition reported by a Conn.
type ConnEvent struct {
	Kind ConnEventKind
	Err  error

	// Attempt is the reconnect attempt number for EventBackoff and EventConnecting.
	Attempt int
}
