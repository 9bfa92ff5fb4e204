// Package encoder converts raw captured frames into JPEG.
package encoder

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// DefaultQuality is the JPEG quality used for raw frames.
const DefaultQuality = 80

// Sentinel errors for encode conditions.
var (
	// ErrUnsupportedFormat is returned for pixel formats the encoder cannot read.
	ErrUnsupportedFormat = errors.New("encoder: unsupported pixel format")

	// ErrEncodeFailed is returned when compression produced no data.
	ErrEncodeFailed = errors.New("encoder: encode failed")
)

// Encoder compresses a raw frame to JPEG. It keeps no state across calls.
// The returned buffer is owned by the caller and must be freed once.
type Encoder interface {
	Encode(f *frame.Frame, quality int) (frame.Buffer, error)
	Name() string
}

// New returns the encoder registered under name: "gocv", "native", or
// "auto" (gocv when built with OpenCV, native otherwise).
func New(name string) (Encoder, error) {
	switch name {
	case "", "auto":
		if gocvAvailable {
			return newGoCV()
		}
		return NewNative(), nil
	case "gocv":
		return newGoCV()
	case "native":
		return NewNative(), nil
	default:
		return nil, fmt.Errorf("unknown encoder %q", name)
	}
}

// checkFrame validates the raw buffer against the frame geometry.
func checkFrame(f *frame.Frame) error {
	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f.Format)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", ErrEncodeFailed, f.Width, f.Height)
	}
	if want := f.Width * f.Height * bpp; len(f.Data) < want {
		return fmt.Errorf("%w: buffer has %d bytes, %dx%d %s needs %d",
			ErrEncodeFailed, len(f.Data), f.Width, f.Height, f.Format, want)
	}
	return nil
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
