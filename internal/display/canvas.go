package display

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Canvas is an in-memory Surface, used headless and in tests.
type Canvas struct {
	mu  sync.RWMutex
	img *image.RGBA
}

// NewCanvas creates a transparent black canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

func (c *Canvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Put copies img into the canvas at the origin, replacing all prior content.
func (c *Canvas) Put(img *image.RGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, c.img.Bounds(), img, image.Point{}, draw.Src)
}

// At returns the pixel at (x, y).
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.img.RGBAAt(x, y)
}

// Snapshot returns a copy of the current canvas content.
func (c *Canvas) Snapshot() *image.RGBA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := image.NewRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	return out
}
