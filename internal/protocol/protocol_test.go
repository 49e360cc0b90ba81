package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/luciancaetano/kephasview"
)

// TestEncodeFrame tests the EncodeFrame function with various inputs
func TestEncodeFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		seq       uint32
		pixels    []byte
		wantError bool
	}{
		{
			name:      "single pixel",
			seq:       0x01,
			pixels:    []byte{0x10, 0x20, 0x30, 0xFF},
			wantError: false,
		},
		{
			name:      "empty pixels",
			seq:       0x100,
			pixels:    []byte{},
			wantError: false,
		},
		{
			name:      "nil pixels",
			seq:       0x200,
			pixels:    nil,
			wantError: false,
		},
		{
			name:      "max sequence",
			seq:       0xFFFFFFFF,
			pixels:    []byte{1, 2, 3, 4},
			wantError: false,
		},
		{
			name:      "payload at max size",
			seq:       0x01,
			pixels:    make([]byte, maxPayloadSize),
			wantError: false,
		},
		{
			name:      "payload exceeds max size",
			seq:       0x01,
			pixels:    make([]byte, maxPayloadSize+1),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := EncodeFrame(tt.seq, tt.pixels)

			if (err != nil) != tt.wantError {
				t.Errorf("EncodeFrame() error = %v, wantError %v", err, tt.wantError)
				return
			}

			if tt.wantError {
				return
			}

			if len(result) != headerSize+len(tt.pixels) {
				t.Errorf("result length = %d, want %d", len(result), headerSize+len(tt.pixels))
			}

			if got := binary.BigEndian.Uint32(result[:headerSize]); got != tt.seq {
				t.Errorf("encoded sequence = %v, want %v", got, tt.seq)
			}

			if !bytes.Equal(result[headerSize:], tt.pixels) {
				t.Errorf("encoded pixels = %v, want %v", result[headerSize:], tt.pixels)
			}
		})
	}
}

// TestDecodeFrame tests the DecodeFrame function with various inputs
func TestDecodeFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		data       []byte
		wantSeq    uint32
		wantPixels []byte
		wantError  bool
	}{
		{
			name:       "valid frame",
			data:       []byte{0x00, 0x00, 0x00, 0x07, 0x80, 0x80, 0x80, 0x80},
			wantSeq:    7,
			wantPixels: []byte{0x80, 0x80, 0x80, 0x80},
		},
		{
			name:       "exactly header size",
			data:       []byte{0x00, 0x00, 0x01, 0x00},
			wantSeq:    0x0100,
			wantPixels: []byte{},
		},
		{
			name:      "empty",
			data:      []byte{},
			wantError: true,
		},
		{
			name:      "3 bytes",
			data:      []byte{0x00, 0x00, 0x01},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gotSeq, gotPixels, err := DecodeFrame(tt.data)

			if (err != nil) != tt.wantError {
				t.Errorf("DecodeFrame() error = %v, wantError %v", err, tt.wantError)
				return
			}

			if tt.wantError {
				if !errors.Is(err, ErrShortFrame) {
					t.Errorf("DecodeFrame() error = %v, want ErrShortFrame", err)
				}
				return
			}

			if gotSeq != tt.wantSeq {
				t.Errorf("DecodeFrame() sequence = %v, want %v", gotSeq, tt.wantSeq)
			}

			if !bytes.Equal(gotPixels, tt.wantPixels) {
				t.Errorf("DecodeFrame() pixels = %v, want %v", gotPixels, tt.wantPixels)
			}
		})
	}
}

// TestEncodePreservesInput tests that EncodeFrame doesn't modify the input pixels
func TestEncodePreservesInput(t *testing.T) {
	t.Parallel()

	pixels := []byte{0x01, 0x02, 0x03, 0x04}
	pixelsCopy := make([]byte, len(pixels))
	copy(pixelsCopy, pixels)

	out, err := EncodeFrame(0x42, pixels)
	if err != nil {
		t.Fatalf("EncodeFrame() failed: %v", err)
	}
	out[headerSize] = 0xFF

	if !bytes.Equal(pixels, pixelsCopy) {
		t.Errorf("EncodeFrame() aliased input pixels: got %v, want %v", pixels, pixelsCopy)
	}
}

func TestActionCodec(t *testing.T) {
	t.Parallel()

	for _, a := range kephasview.Actions() {
		data, err := EncodeAction(a)
		if err != nil {
			t.Fatalf("EncodeAction(%q) failed: %v", a, err)
		}
		if string(data) != string(a) {
			t.Errorf("EncodeAction(%q) = %q, want bare identifier", a, data)
		}

		got, err := DecodeAction(data)
		if err != nil {
			t.Fatalf("DecodeAction(%q) failed: %v", data, err)
		}
		if got != a {
			t.Errorf("DecodeAction(%q) = %q, want %q", data, got, a)
		}
	}
}

func TestActionCodecRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := EncodeAction("jump"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("EncodeAction(jump) error = %v, want ErrUnknownAction", err)
	}

	for _, data := range [][]byte{nil, []byte(""), []byte("MOVE_UP"), []byte("move_up\n")} {
		if _, err := DecodeAction(data); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("DecodeAction(%q) error = %v, want ErrUnknownAction", data, err)
		}
	}
}

func TestNewer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		seq, last uint32
		want      bool
	}{
		{2, 1, true},
		{1, 1, false},
		{1, 2, false},
		{0, 0xFFFFFFFF, true},
		{0xFFFFFFFF, 0, false},
		{0x80000001, 1, false},
	}

	for _, tt := range tests {
		if got := Newer(tt.seq, tt.last); got != tt.want {
			t.Errorf("Newer(%d, %d) = %v, want %v", tt.seq, tt.last, got, tt.want)
		}
	}
}

// BenchmarkDecodeFrame benchmarks decoding a full 1024x768 frame
func BenchmarkDecodeFrame(b *testing.B) {
	data, _ := EncodeFrame(1, make([]byte, kephasview.FrameSize(1024, 768)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = DecodeFrame(data)
	}
}
