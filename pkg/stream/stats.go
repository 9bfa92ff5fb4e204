package stream

import (
	"sync/atomic"
	"time"
)

// Stats counts driver activity. It is safe to read while the driver runs.
type Stats struct {
	framesSent      atomic.Uint64
	bytesSent       atomic.Uint64
	captureFailures atomic.Uint64
	encodeFailures  atomic.Uint64
	writeFailures   atomic.Uint64
	encodedFrames   atomic.Uint64
	lastFrameNanos  atomic.Int64
	lastFrameBytes  atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	// FramesSent is the number of parts fully written.
	FramesSent uint64 `json:"frames_sent"`

	// BytesSent counts payload bytes of sent frames.
	BytesSent uint64 `json:"bytes_sent"`

	// EncodedFrames is how many sent frames needed JPEG compression.
	EncodedFrames uint64 `json:"encoded_frames"`

	CaptureFailures uint64 `json:"capture_failures"`
	EncodeFailures  uint64 `json:"encode_failures"`
	WriteFailures   uint64 `json:"write_failures"`

	// LastFrameMS is the time between the last two successful sends.
	LastFrameMS int64 `json:"last_frame_ms"`

	// LastFrameBytes is the payload size of the last sent frame.
	LastFrameBytes int64 `json:"last_frame_bytes"`

	// FPS is derived from LastFrameMS.
	FPS float64 `json:"fps"`
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) recordSent(size int, encoded bool, frameTime time.Duration) {
	s.framesSent.Add(1)
	s.bytesSent.Add(uint64(size))
	if encoded {
		s.encodedFrames.Add(1)
	}
	s.lastFrameNanos.Store(int64(frameTime))
	s.lastFrameBytes.Store(int64(size))
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	frameTime := time.Duration(s.lastFrameNanos.Load())
	return Snapshot{
		FramesSent:      s.framesSent.Load(),
		BytesSent:       s.bytesSent.Load(),
		EncodedFrames:   s.encodedFrames.Load(),
		CaptureFailures: s.captureFailures.Load(),
		EncodeFailures:  s.encodeFailures.Load(),
		WriteFailures:   s.writeFailures.Load(),
		LastFrameMS:     frameTime.Milliseconds(),
		LastFrameBytes:  s.lastFrameBytes.Load(),
		FPS:             fps(frameTime),
	}
}

func fps(frameTime time.Duration) float64 {
	if frameTime <= 0 {
		return 0
	}
	return float64(time.Second) / float64(frameTime)
}
