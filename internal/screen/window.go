// Package screen shows frames in a desktop window and reads its keyboard.
package screen

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/lattesec/log"

	"github.com/luciancaetano/kephasview"
)

// Window is an ebiten game that acts as both the frame surface and the key
// source of a session. Show must run on the main goroutine.
type Window struct {
	width  int
	height int
	title  string

	mu    sync.Mutex
	pix   []byte
	dirty bool
	emit  func(kephasview.KeyEvent)

	img     *ebiten.Image
	keys    []ebiten.Key
	closing atomic.Bool
	closed  chan struct{}
}

// NewWindow creates a window for a width x height surface.
func NewWindow(width, height int, title string) *Window {
	return &Window{
		width:  width,
		height: height,
		title:  title,
		pix:    make([]byte, kephasview.FrameSize(width, height)),
		closed: make(chan struct{}),
	}
}

// Size implements kephasview.Surface.
func (w *Window) Size() (int, int) {
	return w.width, w.height
}

// Put implements kephasview.Surface. The pixels are copied and uploaded on
// the next draw.
func (w *Window) Put(img *image.RGBA) {
	w.mu.Lock()
	defer w.mu.Unlock()
	copy(w.pix, img.Pix)
	w.dirty = true
}

// Run implements kephasview.KeySource. It returns when ctx is cancelled or
// the window is closed.
func (w *Window) Run(ctx context.Context, emit func(kephasview.KeyEvent)) error {
	w.mu.Lock()
	w.emit = emit
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.emit = nil
		w.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
	case <-w.closed:
	}
	return nil
}

// Show opens the window and blocks until it is closed by the user or by Close.
func (w *Window) Show() error {
	defer close(w.closed)

	ebiten.SetWindowSize(w.width, w.height)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Info().
		WithMeta("scope", "screen").
		WithMetaf("size", "%dx%d", w.width, w.height).
		Msg("opening window").Send()

	return ebiten.RunGame(w)
}

// Close asks the window to shut down on its next update.
func (w *Window) Close() {
	w.closing.Store(true)
}

// Closed is closed once Show has returned.
func (w *Window) Closed() <-chan struct{} {
	return w.closed
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	if w.closing.Load() {
		return ebiten.Termination
	}

	w.mu.Lock()
	emit := w.emit
	w.mu.Unlock()
	if emit == nil {
		return nil
	}

	w.keys = inpututil.AppendJustPressedKeys(w.keys[:0])
	for _, k := range w.keys {
		if code, key, ok := translateKey(k); ok {
			emit(kephasview.KeyEvent{Code: code, Key: key, Down: true})
		}
	}

	w.keys = inpututil.AppendJustReleasedKeys(w.keys[:0])
	for _, k := range w.keys {
		if code, key, ok := translateKey(k); ok {
			emit(kephasview.KeyEvent{Code: code, Key: key, Down: false})
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	if w.img == nil {
		w.img = ebiten.NewImage(w.width, w.height)
	}

	w.mu.Lock()
	if w.dirty {
		w.img.WritePixels(w.pix)
		w.dirty = false
	}
	w.mu.Unlock()

	screen.DrawImage(w.img, nil)
}

// Layout implements ebiten.Game. The logical screen always matches the
// surface; ebiten scales it to the window.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.width, w.height
}
