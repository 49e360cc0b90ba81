package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luciancaetano/kephasview"
)

const (
	headerSize     = 4
	maxPayloadSize = 64 * 1024 * 1024 // 64MB, well above a 4K RGBA frame
)

var (
	ErrShortFrame    = errors.New("data too short")
	ErrUnknownAction = errors.New("unknown action")
)

// EncodeFrame prefixes the pixel payload with seq as 4 big-endian bytes.
func EncodeFrame(seq uint32, pixels []byte) ([]byte, error) {
	if len(pixels) > maxPayloadSize {
		return nil, fmt.Errorf("payload size %d exceeds maximum %d bytes", len(pixels), maxPayloadSize)
	}

	out := make([]byte, headerSize+len(pixels))
	binary.BigEndian.PutUint32(out[:headerSize], seq)
	copy(out[headerSize:], pixels)
	return out, nil
}

// DecodeFrame splits a sequenced frame into its sequence number and pixels.
// The pixel slice references the input data - do not modify it.
func DecodeFrame(data []byte) (uint32, []byte, error) {
	if len(data) < headerSize {
		return 0, nil, ErrShortFrame
	}

	payloadSize := len(data) - headerSize
	if payloadSize > maxPayloadSize {
		return 0, nil, fmt.Errorf("payload size %d exceeds maximum %d bytes", payloadSize, maxPayloadSize)
	}

	seq := binary.BigEndian.Uint32(data[:headerSize])
	return seq, data[headerSize:], nil
}

// EncodeAction returns the wire form of a: the bare identifier.
func EncodeAction(a kephasview.Action) ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
	return []byte(a), nil
}

// DecodeAction parses an action message received by a renderer.
func DecodeAction(data []byte) (kephasview.Action, error) {
	a := kephasview.Action(data)
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, string(data))
	}
	return a, nil
}

// Newer reports whether seq is more recent than last, tolerating uint32 wraparound.
func Newer(seq, last uint32) bool {
	return int32(seq-last) > 0
}
