package frame

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Sentinel errors for capture conditions.
var (
	// ErrCaptureFailed is returned when the sensor produced no frame.
	ErrCaptureFailed = errors.New("frame: capture failed")

	// ErrSourceClosed is returned when acquiring from a closed source.
	ErrSourceClosed = errors.New("frame: source closed")
)

// PixelFormat tags the layout of a frame's buffer.
type PixelFormat int

const (
	FormatJPEG PixelFormat = iota
	FormatRGB24
	FormatBGR24
	FormatGray8
)

// String returns the format name.
func (p PixelFormat) String() string {
	switch p {
	case FormatJPEG:
		return "jpeg"
	case FormatRGB24:
		return "rgb24"
	case FormatBGR24:
		return "bgr24"
	case FormatGray8:
		return "gray8"
	default:
		return fmt.Sprintf("format(%d)", int(p))
	}
}

// BytesPerPixel returns the bytes per pixel of a raw format, or 0 for
// compressed formats.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case FormatRGB24, FormatBGR24:
		return 3
	case FormatGray8:
		return 1
	default:
		return 0
	}
}

var timeNow = time.Now

// Timestamp is a capture time split into seconds and microseconds, as
// reported by the device clock.
type Timestamp struct {
	Sec  int64
	Usec int64
}

// TimestampOf converts t into a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Sec: t.Unix(), Usec: int64(t.Nanosecond() / 1000)}
}

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Sec, t.Usec*1000)
}

// Frame is one captured image. A frame is owned by whoever currently holds
// it and must be handed back to its Source exactly once.
type Frame struct {
	// Data is the raw sensor output.
	Data []byte

	// Format is the pixel layout of Data.
	Format PixelFormat

	// Width and Height in pixels. Zero for JPEG sources that do not decode.
	Width  int
	Height int

	// Timestamp is when the sensor captured the frame.
	Timestamp Timestamp

	// Seq is the source-local capture sequence number.
	Seq uint64

	// handle is backend state released with the frame.
	handle   any
	released bool
}

// Len returns the byte length of the frame buffer.
func (f *Frame) Len() int {
	return len(f.Data)
}

// markReleased flags the frame as handed back. It reports false when the
// frame is nil or was already released.
func (f *Frame) markReleased() bool {
	if f == nil || f.released {
		return false
	}
	f.released = true
	return true
}

// Source yields captured frames from a sensor.
type Source interface {
	// Acquire captures the next frame. It may be called without bound.
	// On failure no frame is returned and nothing needs releasing.
	Acquire(ctx context.Context) (*Frame, error)

	// Release hands a frame's buffer back to the source.
	// Releasing nil or an already released frame is a no-op.
	Release(f *Frame)

	// Name returns the backend name (e.g., "gocv", "dir", "mock").
	Name() string

	// Close releases the sensor. After Close, Acquire returns ErrSourceClosed.
	io.Closer
}

// Sensor accepts property assignments. Sources that drive real hardware
// implement it so camera settings can be applied before streaming.
type Sensor interface {
	// Set assigns one named property. Unsupported properties return an
	// error wrapping ErrUnsupportedProperty.
	Set(name string, value int) error

	// PixelFormat reports the format frames are produced in.
	PixelFormat() PixelFormat
}

// ErrUnsupportedProperty is returned by Sensor.Set for unknown properties.
var ErrUnsupportedProperty = errors.New("frame: unsupported sensor property")

// SourceStats contains statistics about a frame source.
type SourceStats struct {
	// FramesAcquired is the total number of frames handed out.
	FramesAcquired int64 `json:"frames_acquired"`

	// FramesReleased is the total number of frames handed back.
	FramesReleased int64 `json:"frames_released"`

	// CaptureErrors is the number of failed captures.
	CaptureErrors int64 `json:"capture_errors"`

	// Open indicates the sensor has not been closed.
	Open bool `json:"open"`

	// Backend is the name of the capture backend.
	Backend string `json:"backend"`
}

// SourceWithStats extends Source with statistics.
type SourceWithStats interface {
	Source
	Stats() SourceStats
}
