// Package kephasview provides a thin remote-display client for interactive renderers.
//
// The client captures keyboard input, multiplexes it into a small set of named
// actions, flushes the active set to a remote renderer over a websocket at a fixed
// tick rate, and blits the raw RGBA frames streamed back onto a fixed-size surface.
// It owns no simulation state: only the transient set of pressed actions and the
// most recently received frame.
//
// # Architecture
//
// A session owns three pieces and drives them from a single goroutine:
//
//   - Input multiplexer: key press/release events add or remove actions from a
//     deduplicated set; every tick sends each active action once.
//   - Frame sink: every binary message becomes the new content of the surface.
//   - Connection: one websocket to the renderer.
//
// Because all handlers run on the session goroutine, the action set and the sink
// need no locking. Key sources, the websocket read loop and the write pump talk to
// the session only through channels.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/kephasview/ws"
//	)
//
//	conn := ws.Dial(ws.NewConnConfig("ws://localhost:8080/"))
//	surface := ws.NewCanvas(1024, 768)
//	sess := ws.NewSession(conn, surface, ws.SessionOptions{})
//
//	go keySource.Run(ctx, sess.Key)
//	if err := sess.Run(ctx); err != nil {
//	    log.Printf("session ended: %v", err)
//	}
//
// The kephasview command wires the same pieces to a desktop window or to
// evdev keyboards, configured from kephasview.yml.
//
// # Protocol Format
//
// Client to renderer, one text message per active action per tick:
//
//	move_forward
//
// Renderer to client, one binary message per frame:
//
//	[width*height*4 bytes: RGBA8, row-major, top-to-bottom]
//
// With frame sequencing enabled on both ends the frame carries a prefix:
//
//	[4 bytes: sequence (uint32, big-endian)][width*height*4 bytes: RGBA8]
//
// and frames that are not newer than the last displayed one are discarded.
//
// # Actions
//
//	KeyW / ArrowUp     move_forward
//	KeyS / ArrowDown   move_backward
//	KeyA / ArrowLeft   move_left
//	KeyD / ArrowRight  move_right
//	Space              move_up
//	ShiftLeft          move_down
//
// Any other key is ignored.
//
// # Failure Model
//
//   - Sends while the connection is not open are dropped, never queued.
//   - Malformed frames are logged and discarded; the session keeps running.
//   - Connection errors and closes are logged. Reconnection is opt-in with
//     bounded exponential backoff.
//
// # Important
//
//   - Surface dimensions are fixed for the session and must match the renderer.
//   - The tick resends the full action set, so a lost message only matters for
//     one tick period.
//   - Intended for trusted local or LAN deployments.
package kephasview
