package display

import (
	"errors"
	"fmt"
	"image"

	"github.com/luciancaetano/kephasview"
	"github.com/luciancaetano/kephasview/internal/helpers/nopanic"
	"github.com/luciancaetano/kephasview/internal/protocol"
)

var (
	ErrFrameSize  = errors.New(kephasview.ErrFrameSize)
	ErrStaleFrame = errors.New(kephasview.ErrStaleFrame)
)

// Sink writes every well-formed frame onto a fixed-size surface.
//
// A Sink is driven by one goroutine; it keeps only the sequence number of the
// last displayed frame, never the pixels.
type Sink struct {
	surface   kephasview.Surface
	width     int
	height    int
	sequenced bool

	last   uint32
	seen   bool
	frames uint64
}

// NewSink binds a sink to surface. When sequenced is true every message must
// carry a sequence prefix and frames older than the last displayed are dropped.
func NewSink(surface kephasview.Surface, sequenced bool) *Sink {
	w, h := surface.Size()
	return &Sink{
		surface:   surface,
		width:     w,
		height:    h,
		sequenced: sequenced,
	}
}

// OnMessage displays payload as the new surface content.
// On error the surface is left untouched and the sink accepts the next payload.
func (s *Sink) OnMessage(payload []byte) error {
	pixels := payload

	var seq uint32
	if s.sequenced {
		var err error
		seq, pixels, err = protocol.DecodeFrame(payload)
		if err != nil {
			return fmt.Errorf("decode frame: %w", err)
		}
		if s.seen && !protocol.Newer(seq, s.last) {
			return fmt.Errorf("%w: seq %d, last %d", ErrStaleFrame, seq, s.last)
		}
	}

	if want := kephasview.FrameSize(s.width, s.height); len(pixels) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(pixels), want)
	}

	img := &image.RGBA{
		Pix:    pixels,
		Stride: s.width * kephasview.BytesPerPixel,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
	if err := nopanic.RunVoid("surface put", func() { s.surface.Put(img) }); err != nil {
		return err
	}

	s.last, s.seen = seq, true
	s.frames++
	return nil
}

// Frames returns how many frames have been displayed.
func (s *Sink) Frames() uint64 {
	return s.frames
}
