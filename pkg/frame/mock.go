package frame

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// MockSource is a synthetic frame source for testing.
// It counts acquisitions and releases so leaks and double releases show up.
type MockSource struct {
	logger *slog.Logger

	mu       sync.Mutex
	closed   bool
	seq      uint64
	failLeft int
	settings []Assignment

	format      PixelFormat
	size        int
	width       int
	height      int
	timestamp   *Timestamp
	unsupported map[string]bool

	// Stats
	acquired atomic.Int64
	released atomic.Int64
	failures atomic.Int64
}

// Assignment is one property assignment recorded by MockSource.
type Assignment struct {
	Name  string
	Value int
}

// MockSourceOption configures a MockSource.
type MockSourceOption func(*MockSource)

// WithMockFormat sets the pixel format of produced frames.
func WithMockFormat(format PixelFormat) MockSourceOption {
	return func(m *MockSource) {
		m.format = format
	}
}

// WithMockSize sets the frame dimensions. For JPEG frames only the byte
// length matters and is width*height.
func WithMockSize(width, height int) MockSourceOption {
	return func(m *MockSource) {
		m.width = width
		m.height = height
	}
}

// WithMockLength sets the byte length of JPEG frames.
func WithMockLength(n int) MockSourceOption {
	return func(m *MockSource) {
		m.size = n
	}
}

// WithMockTimestamp pins the capture timestamp of every frame.
func WithMockTimestamp(ts Timestamp) MockSourceOption {
	return func(m *MockSource) {
		m.timestamp = &ts
	}
}

// WithMockFailures makes the first n Acquire calls fail.
func WithMockFailures(n int) MockSourceOption {
	return func(m *MockSource) {
		m.failLeft = n
	}
}

// WithMockUnsupported makes Set reject the named properties.
func WithMockUnsupported(names ...string) MockSourceOption {
	return func(m *MockSource) {
		for _, n := range names {
			m.unsupported[n] = true
		}
	}
}

// NewMockSource creates a mock source producing 2 KiB JPEG frames.
func NewMockSource(logger *slog.Logger, opts ...MockSourceOption) *MockSource {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockSource{
		logger:      logger,
		format:      FormatJPEG,
		size:        2048,
		width:       32,
		height:      32,
		unsupported: make(map[string]bool),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Acquire produces the next synthetic frame.
func (m *MockSource) Acquire(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrSourceClosed
	}
	if m.failLeft > 0 {
		m.failLeft--
		m.failures.Add(1)
		return nil, fmt.Errorf("%w: mock failure", ErrCaptureFailed)
	}

	m.seq++
	f := &Frame{
		Format: m.format,
		Width:  m.width,
		Height: m.height,
		Seq:    m.seq,
	}
	if m.timestamp != nil {
		f.Timestamp = *m.timestamp
	} else {
		f.Timestamp = TimestampOf(time.Now())
	}

	n := m.size
	if bpp := m.format.BytesPerPixel(); bpp > 0 {
		n = m.width * m.height * bpp
	}
	f.Data = make([]byte, n)
	for i := range f.Data {
		f.Data[i] = byte(int(m.seq) + i)
	}

	m.acquired.Add(1)
	return f, nil
}

// Release counts the frame as handed back.
func (m *MockSource) Release(f *Frame) {
	if !f.markReleased() {
		return
	}
	m.released.Add(1)
}

// Set records a property assignment.
func (m *MockSource) Set(name string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unsupported[name] {
		return fmt.Errorf("%w: %s", ErrUnsupportedProperty, name)
	}
	m.settings = append(m.settings, Assignment{Name: name, Value: value})
	return nil
}

// PixelFormat returns the format of produced frames.
func (m *MockSource) PixelFormat() PixelFormat {
	return m.format
}

// Assignments returns the property assignments applied so far.
func (m *MockSource) Assignments() []Assignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Assignment, len(m.settings))
	copy(out, m.settings)
	return out
}

// Acquired returns the number of frames handed out.
func (m *MockSource) Acquired() int64 {
	return m.acquired.Load()
}

// Released returns the number of frames handed back.
func (m *MockSource) Released() int64 {
	return m.released.Load()
}

// Failures returns the number of failed captures.
func (m *MockSource) Failures() int64 {
	return m.failures.Load()
}

// Name returns "mock".
func (m *MockSource) Name() string {
	return "mock"
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Stats returns source statistics.
func (m *MockSource) Stats() SourceStats {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()

	return SourceStats{
		FramesAcquired: m.acquired.Load(),
		FramesReleased: m.released.Load(),
		CaptureErrors:  m.failures.Load(),
		Open:           !closed,
		Backend:        "mock",
	}
}

// Ensure MockSource implements SourceWithStats and Sensor.
var (
	_ SourceWithStats = (*MockSource)(nil)
	_ Sensor          = (*MockSource)(nil)
)
