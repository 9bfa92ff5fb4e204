//go:build !nogocv

package frame

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// GoCVSource captures raw frames through an OpenCV VideoCapture device.
// Frames alias the Mat they were read into; Release closes the Mat.
type GoCVSource struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	props  *sensorProps
	closed bool
	seq    uint64

	acquired atomic.Int64
	released atomic.Int64
	failures atomic.Int64
}

// NewGoCVSource opens the camera at cfg.Device.
func NewGoCVSource(cfg Config, logger *slog.Logger) (*GoCVSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}

	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	logger.Info("camera opened",
		"device", cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
	)

	return &GoCVSource{
		cfg:    cfg,
		logger: logger,
		cap:    vc,
		props:  newSensorProps(videoCaptureProps{vc}),
	}, nil
}

func newGoCVSource(cfg Config, logger *slog.Logger) (Source, error) {
	return NewGoCVSource(cfg, logger)
}

// videoCaptureProps adapts a VideoCapture to propertyDevice.
type videoCaptureProps struct {
	vc *gocv.VideoCapture
}

var videoCaptureProperties = map[captureProperty]gocv.VideoCaptureProperties{
	propFrameWidth:   gocv.VideoCaptureFrameWidth,
	propFrameHeight:  gocv.VideoCaptureFrameHeight,
	propBrightness:   gocv.VideoCaptureBrightness,
	propContrast:     gocv.VideoCaptureContrast,
	propSaturation:   gocv.VideoCaptureSaturation,
	propAutoExposure: gocv.VideoCaptureAutoExposure,
	propAutoWB:       gocv.VideoCaptureAutoWB,
}

func (p videoCaptureProps) Get(prop captureProperty) float64 {
	return p.vc.Get(videoCaptureProperties[prop])
}

func (p videoCaptureProps) Set(prop captureProperty, v float64) {
	p.vc.Set(videoCaptureProperties[prop], v)
}

// Acquire reads one frame from the camera.
func (s *GoCVSource) Acquire(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}

	mat := gocv.NewMat()
	if ok := s.cap.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		s.failures.Add(1)
		return nil, fmt.Errorf("%w: device %d returned no image", ErrCaptureFailed, s.cfg.Device)
	}

	data, err := mat.DataPtrUint8()
	if err != nil {
		// Non-continuous Mats cannot be aliased.
		data = mat.ToBytes()
	}

	format := FormatBGR24
	if mat.Channels() == 1 {
		format = FormatGray8
	}

	s.seq++
	s.acquired.Add(1)
	return &Frame{
		Data:      data,
		Format:    format,
		Width:     mat.Cols(),
		Height:    mat.Rows(),
		Timestamp: TimestampOf(timeNow()),
		Seq:       s.seq,
		handle:    mat,
	}, nil
}

// Release closes the frame's Mat.
func (s *GoCVSource) Release(f *Frame) {
	if !f.markReleased() {
		return
	}
	if mat, ok := f.handle.(gocv.Mat); ok {
		mat.Close()
	}
	f.handle = nil
	f.Data = nil
	s.released.Add(1)
}

// MatOf returns the Mat backing a frame captured by a GoCVSource.
func MatOf(f *Frame) (gocv.Mat, bool) {
	if f == nil || f.released {
		return gocv.Mat{}, false
	}
	mat, ok := f.handle.(gocv.Mat)
	return mat, ok
}

// Set maps a sensor property onto the matching capture property.
// Properties without a faithful capture equivalent return
// ErrUnsupportedProperty.
func (s *GoCVSource) Set(name string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	return s.props.set(name, value)
}

// PixelFormat returns the raw format delivered by OpenCV.
func (s *GoCVSource) PixelFormat() PixelFormat {
	return FormatBGR24
}

// Name returns "gocv".
func (s *GoCVSource) Name() string {
	return "gocv"
}

// Close releases the camera. Outstanding frames stay valid until released.
func (s *GoCVSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.cap.Close()
}

// Stats returns source statistics.
func (s *GoCVSource) Stats() SourceStats {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	return SourceStats{
		FramesAcquired: s.acquired.Load(),
		FramesReleased: s.released.Load(),
		CaptureErrors:  s.failures.Load(),
		Open:           !closed,
		Backend:        "gocv",
	}
}

const gocvAvailable = true

var (
	_ SourceWithStats = (*GoCVSource)(nil)
	_ Sensor          = (*GoCVSource)(nil)
)
