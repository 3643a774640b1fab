package processing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("width and height must be positive")

	// ErrSizeMismatch is returned when a buffer's length does not equal
	// width*height*Channels.
	ErrSizeMismatch = errors.New("buffer length does not match declared dimensions")

	// ErrDimensionMismatch is returned when a constructed frame does not
	// report the dimensions it was built with.
	ErrDimensionMismatch = errors.New("frame dimensions do not match requested dimensions")

	// ErrFrameTooLarge is returned when a frame exceeds the processor's
	// configured pixel limit.
	ErrFrameTooLarge = errors.New("frame exceeds configured pixel limit")

	// ErrNotSupported is returned by the legacy bitmap entry point.
	ErrNotSupported = errors.New("bitmap-object processing is not supported")
)

// Frame is a rectangular 4-channel RGBA image backed by a flat row-major
// byte slice, 4 bytes per pixel, channel order R, G, B, A, no stride
// padding and no header.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// NewFrameView wraps pix as a Frame without copying. The returned frame
// aliases pix, so it must be treated as read-only and must not outlive
// the caller's ownership of the buffer.
func NewFrameView(pix []byte, width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidDimensions
	}
	expected := width * height * Channels
	if len(pix) != expected {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(pix), expected)
	}
	return &Frame{Width: width, Height: height, Pix: pix}, nil
}

// NewFrame allocates a zeroed frame of the given dimensions.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Clone returns a deep copy of the frame backed by independent memory.
func (f *Frame) Clone() *Frame {
	out := &Frame{Width: f.Width, Height: f.Height, Pix: make([]byte, len(f.Pix))}
	copy(out.Pix, f.Pix)
	return out
}

// Bytes serializes the frame into a freshly allocated buffer. The result
// never aliases the frame's backing memory.
func (f *Frame) Bytes() []byte {
	out := make([]byte, len(f.Pix))
	copy(out, f.Pix)
	return out
}

// Gray is a single-channel 8-bit image. It only exists as an
// intermediate inside the edge-detection recipe and never crosses the
// gateway boundary.
type Gray struct {
	Width  int
	Height int
	Pix    []byte
}

func newGray(width, height int) *Gray {
	return &Gray{Width: width, Height: height, Pix: make([]byte, width*height)}
}
