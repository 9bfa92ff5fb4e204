package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-camstream/pkg/encoder"
	"github.com/teslashibe/go-camstream/pkg/frame"
	"github.com/teslashibe/go-camstream/pkg/protocol"
)

// scriptedWriter records writes and can fail one of them or stop the test
// after a number of writes.
type scriptedWriter struct {
	mu     sync.Mutex
	writes [][]byte
	failAt int // 1-based write index returning (0, nil)
	stopAt int // 1-based write index after which cancel is called
	cancel context.CancelFunc
}

func (w *scriptedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writes = append(w.writes, append([]byte(nil), p...))
	n := len(w.writes)
	if n == w.failAt {
		return 0, nil
	}
	if n == w.stopAt && w.cancel != nil {
		w.cancel()
	}
	return len(p), nil
}

func (w *scriptedWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

// flakyEncoder fails the first failures calls and cancels after calls.
type flakyEncoder struct {
	inner    *encoder.Mock
	failures int
	calls    int
}

func (e *flakyEncoder) Encode(f *frame.Frame, q int) (frame.Buffer, error) {
	e.calls++
	if e.calls <= e.failures {
		return nil, encoder.ErrEncodeFailed
	}
	return e.inner.Encode(f, q)
}

func (e *flakyEncoder) Name() string { return "flaky" }

func TestDriver_JPEGFrame(t *testing.T) {
	src := frame.NewMockSource(nil,
		frame.WithMockLength(2048),
		frame.WithMockTimestamp(frame.Timestamp{Sec: 10, Usec: 500000}),
	)
	enc := encoder.NewMock([]byte("unused"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWriter{stopAt: 3, cancel: cancel}

	d := NewDriver(src, enc)
	err := d.Run(ctx, w)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}

	if w.count() != 3 {
		t.Fatalf("writes = %d, want 3", w.count())
	}
	if string(w.writes[0]) != protocol.BoundaryMarker {
		t.Errorf("write 1 = %q, want boundary", w.writes[0])
	}
	wantHeader := "Content-Type: image/jpeg\r\nContent-Length: 2048\r\nX-Timestamp: 10.500000\r\n\r\n"
	if string(w.writes[1]) != wantHeader {
		t.Errorf("write 2 = %q, want %q", w.writes[1], wantHeader)
	}
	if len(w.writes[2]) != 2048 {
		t.Errorf("payload = %d bytes, want 2048", len(w.writes[2]))
	}

	if enc.Calls() != 0 {
		t.Errorf("encoder called %d times for a JPEG frame", enc.Calls())
	}
	if src.Acquired() != 1 || src.Released() != 1 {
		t.Errorf("acquired=%d released=%d, want 1/1", src.Acquired(), src.Released())
	}

	snap := d.Stats().Snapshot()
	if snap.FramesSent != 1 || snap.BytesSent != 2048 || snap.EncodedFrames != 0 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestDriver_CaptureRetry(t *testing.T) {
	src := frame.NewMockSource(nil, frame.WithMockFailures(3))
	enc := encoder.NewMock(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWriter{stopAt: 3, cancel: cancel}

	d := NewDriver(src, enc)
	if err := d.Run(ctx, w); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}

	if src.Failures() != 3 {
		t.Errorf("failures = %d, want 3", src.Failures())
	}
	if src.Acquired() != 1 || src.Released() != 1 {
		t.Errorf("acquired=%d released=%d, want 1/1", src.Acquired(), src.Released())
	}
	if w.count() != 3 {
		t.Errorf("writes = %d, want 3 (one frame)", w.count())
	}
	if got := d.Stats().Snapshot().CaptureFailures; got != 3 {
		t.Errorf("CaptureFailures = %d, want 3", got)
	}
}

func TestDriver_RawFrameEncoded(t *testing.T) {
	src := frame.NewMockSource(nil,
		frame.WithMockFormat(frame.FormatRGB24),
		frame.WithMockSize(8, 8),
		frame.WithMockTimestamp(frame.Timestamp{Sec: 3, Usec: 7}),
	)
	jpeg := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}
	enc := encoder.NewMock(jpeg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWriter{stopAt: 6, cancel: cancel}

	d := NewDriver(src, enc, WithQuality(55))
	if err := d.Run(ctx, w); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}

	if enc.Calls() != 2 || enc.Frees() != 2 {
		t.Errorf("encode calls=%d frees=%d, want 2/2", enc.Calls(), enc.Frees())
	}
	if src.Released() != 2 {
		t.Errorf("released = %d, want 2", src.Released())
	}
	for _, q := range enc.Qualities() {
		if q != 55 {
			t.Errorf("quality = %d, want 55", q)
		}
	}
	if !bytes.Equal(w.writes[2], jpeg) {
		t.Errorf("payload = %x, want %x", w.writes[2], jpeg)
	}
	if !bytes.Contains(w.writes[1], []byte("Content-Length: 6\r\nX-Timestamp: 3.000007\r\n")) {
		t.Errorf("header = %q", w.writes[1])
	}
	if got := d.Stats().Snapshot().EncodedFrames; got != 2 {
		t.Errorf("EncodedFrames = %d, want 2", got)
	}
}

func TestDriver_EncodeFailureReleasesFrame(t *testing.T) {
	src := frame.NewMockSource(nil,
		frame.WithMockFormat(frame.FormatGray8),
		frame.WithMockSize(4, 4),
	)
	enc := &flakyEncoder{inner: encoder.NewMock([]byte{0xff, 0xd8}), failures: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWriter{stopAt: 3, cancel: cancel}

	d := NewDriver(src, enc)
	if err := d.Run(ctx, w); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}

	if src.Acquired() != 3 || src.Released() != 3 {
		t.Errorf("acquired=%d released=%d, want 3/3", src.Acquired(), src.Released())
	}
	if w.count() != 3 {
		t.Errorf("writes = %d, want 3 (only the third frame)", w.count())
	}
	if got := d.Stats().Snapshot().EncodeFailures; got != 2 {
		t.Errorf("EncodeFailures = %d, want 2", got)
	}
	if enc.inner.Frees() != 1 {
		t.Errorf("frees = %d, want 1", enc.inner.Frees())
	}
}

func TestDriver_WriteFailureReleases(t *testing.T) {
	tests := []struct {
		name   string
		format frame.PixelFormat
		failAt int
	}{
		{"jpeg boundary", frame.FormatJPEG, 1},
		{"jpeg header", frame.FormatJPEG, 2},
		{"jpeg payload", frame.FormatJPEG, 3},
		{"raw boundary", frame.FormatBGR24, 1},
		{"raw header", frame.FormatBGR24, 2},
		{"raw payload", frame.FormatBGR24, 3},
		{"second frame payload", frame.FormatJPEG, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := frame.NewMockSource(nil, frame.WithMockFormat(tt.format), frame.WithMockSize(4, 4))
			enc := encoder.NewMock([]byte{0xff, 0xd8, 0xff, 0xd9})
			w := &scriptedWriter{failAt: tt.failAt}

			d := NewDriver(src, enc)
			err := d.Run(context.Background(), w)

			if !errors.Is(err, ErrWrite) {
				t.Fatalf("Run err = %v, want ErrWrite", err)
			}
			if !errors.Is(err, protocol.ErrZeroWrite) {
				t.Errorf("Run err = %v, want wrapped ErrZeroWrite", err)
			}
			if src.Acquired() != src.Released() {
				t.Errorf("acquired=%d released=%d", src.Acquired(), src.Released())
			}
			if enc.Calls() != enc.Frees() {
				t.Errorf("encode calls=%d frees=%d", enc.Calls(), enc.Frees())
			}
			if w.count() != tt.failAt {
				t.Errorf("writes = %d, want %d", w.count(), tt.failAt)
			}
			if d.State() != StateFailed {
				t.Errorf("State = %v, want failed", d.State())
			}
			if got := d.Stats().Snapshot().WriteFailures; got != 1 {
				t.Errorf("WriteFailures = %d, want 1", got)
			}
		})
	}
}

func TestDriver_FrameTiming(t *testing.T) {
	src := frame.NewMockSource(nil)
	base := time.Unix(1000, 0)
	var ticks int
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 50 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &scriptedWriter{stopAt: 6, cancel: cancel}

	d := NewDriver(src, encoder.NewMock(nil), WithClock(clock))
	d.Run(ctx, w)

	snap := d.Stats().Snapshot()
	if snap.FramesSent != 2 {
		t.Fatalf("FramesSent = %d, want 2", snap.FramesSent)
	}
	if snap.LastFrameMS != 50 {
		t.Errorf("LastFrameMS = %d, want 50", snap.LastFrameMS)
	}
	if snap.FPS != 20 {
		t.Errorf("FPS = %v, want 20", snap.FPS)
	}
}

func TestDriver_CancelledBeforeStart(t *testing.T) {
	src := frame.NewMockSource(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &scriptedWriter{}
	if err := NewDriver(src, encoder.NewMock(nil)).Run(ctx, w); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if src.Acquired() != 0 || w.count() != 0 {
		t.Errorf("acquired=%d writes=%d, want 0/0", src.Acquired(), w.count())
	}
}

// closingWriter fails its write the way a connection closed on shutdown
// does, cancelling ctx first.
type closingWriter struct {
	cancel context.CancelFunc
	writes int
}

func (w *closingWriter) Write(p []byte) (int, error) {
	w.writes++
	w.cancel()
	return 0, io.ErrClosedPipe
}

func TestDriver_CancelDuringWriteIsNotAFailure(t *testing.T) {
	src := frame.NewMockSource(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDriver(src, encoder.NewMock(nil))
	w := &closingWriter{cancel: cancel}

	err := d.Run(ctx, w)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrWrite) {
		t.Error("shutdown reported as a write failure")
	}
	if d.State() == StateFailed {
		t.Error("state = failed after clean shutdown")
	}
	if n := d.Stats().Snapshot().WriteFailures; n != 0 {
		t.Errorf("write_failures = %d, want 0", n)
	}
	if src.Acquired() != 1 || src.Released() != 1 {
		t.Errorf("acquired=%d released=%d, want 1/1", src.Acquired(), src.Released())
	}
}

func TestDriver_CaptureRetryDelayHonorsContext(t *testing.T) {
	src := frame.NewMockSource(nil, frame.WithMockFailures(1000))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	d := NewDriver(src, encoder.NewMock(nil), WithCaptureRetryDelay(20*time.Millisecond))

	start := time.Now()
	err := d.Run(ctx, &scriptedWriter{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Run took %v after cancellation", elapsed)
	}
	if f := src.Failures(); f < 1 || f > 5 {
		t.Errorf("failures = %d, want a handful with a 20ms delay", f)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrCapture) || !IsRetryable(ErrEncode) {
		t.Error("capture and encode failures are retryable")
	}
	if IsRetryable(ErrWrite) {
		t.Error("write failures are not retryable")
	}
}

func TestStateString(t *testing.T) {
	if StateSending.String() != "sending" || State(42).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
