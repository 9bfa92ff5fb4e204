// Package stream drives the capture → encode → frame → write loop that
// feeds one live connection.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-camstream/pkg/encoder"
	"github.com/teslashibe/go-camstream/pkg/frame"
	"github.com/teslashibe/go-camstream/pkg/protocol"
)

// Driver pulls frames from a Source and writes them to a transport, one
// frame fully in flight at a time. A Driver is not safe for concurrent Run
// calls; State and Stats may be read from other goroutines.
type Driver struct {
	src     frame.Source
	enc     encoder.Encoder
	quality int
	logger  *slog.Logger
	stats   *Stats

	captureRetryDelay time.Duration
	now               func() time.Time

	state atomic.Int32
}

// Option configures a Driver.
type Option func(*Driver)

// WithQuality sets the JPEG quality for raw frames.
func WithQuality(q int) Option {
	return func(d *Driver) {
		d.quality = q
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithStats shares a Stats across drivers (e.g. across sessions).
func WithStats(s *Stats) Option {
	return func(d *Driver) {
		d.stats = s
	}
}

// WithCaptureRetryDelay pauses between failed capture or encode attempts.
// Zero retries immediately.
func WithCaptureRetryDelay(delay time.Duration) Option {
	return func(d *Driver) {
		d.captureRetryDelay = delay
	}
}

// WithClock replaces time.Now for frame timing.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

// NewDriver creates a driver reading from src and encoding with enc.
func NewDriver(src frame.Source, enc encoder.Encoder, opts ...Option) *Driver {
	d := &Driver{
		src:     src,
		enc:     enc,
		quality: encoder.DefaultQuality,
		logger:  slog.Default(),
		stats:   NewStats(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "stream")
	return d
}

// State returns the current cycle state.
func (d *Driver) State() State {
	return State(d.state.Load())
}

// Stats returns the driver's counters.
func (d *Driver) Stats() *Stats {
	return d.stats
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
}

// Run streams frames to w until a write fails or ctx is done.
// The returned error wraps ErrWrite, or is ctx.Err().
func (d *Driver) Run(ctx context.Context, w io.Writer) error {
	lastFrame := d.now()

	for {
		d.setState(StateIdle)
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, ts, err := d.next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err := d.pause(ctx); err != nil {
				return err
			}
			continue
		}

		d.setState(StateFraming)
		part := protocol.NewPart(payload.Bytes(), ts)

		d.setState(StateSending)
		_, werr := part.WriteTo(w)

		size := payload.Len()
		encoded := payload.Mode() == frame.Owned
		payload.Release()

		if werr != nil {
			// A write aborted by shutdown is not a transport failure.
			if ctxErr := ctx.Err(); ctxErr != nil {
				d.setState(StateIdle)
				return ctxErr
			}
			d.setState(StateFailed)
			d.stats.writeFailures.Add(1)
			d.logger.Error("send frame failed", "error", werr)
			return fmt.Errorf("%w: %w", ErrWrite, werr)
		}

		end := d.now()
		frameTime := end.Sub(lastFrame)
		lastFrame = end
		d.stats.recordSent(size, encoded, frameTime)

		d.logger.Debug("mjpg frame",
			"bytes", size,
			"frame_ms", frameTime.Milliseconds(),
			"fps", fmt.Sprintf("%.1f", fps(frameTime)),
		)
	}
}

// next captures one frame and turns it into a JPEG payload. On error no
// frame resources are left outstanding.
func (d *Driver) next(ctx context.Context) (*frame.Payload, frame.Timestamp, error) {
	d.setState(StateCapturing)
	f, err := d.src.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.stats.captureFailures.Add(1)
			d.logger.Error("camera capture failed", "error", err)
		}
		return nil, frame.Timestamp{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	ts := f.Timestamp

	if f.Format == frame.FormatJPEG {
		return frame.Borrow(d.src, f), ts, nil
	}

	d.setState(StateEncoding)
	buf, err := d.enc.Encode(f, d.quality)
	d.src.Release(f)
	if err != nil {
		d.stats.encodeFailures.Add(1)
		d.logger.Error("JPEG compression failed", "format", f.Format, "error", err)
		return nil, frame.Timestamp{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return frame.Own(buf), ts, nil
}

// pause waits out the capture retry delay, if any.
func (d *Driver) pause(ctx context.Context) error {
	if d.captureRetryDelay <= 0 {
		return nil
	}
	t := time.NewTimer(d.captureRetryDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable reports whether err is a stage-local failure the driver
// recovers from by itself.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrCapture) || errors.Is(err, ErrEncode)
}
