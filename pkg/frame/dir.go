package frame

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
)

// DirSource replays the *.jpg files of a directory in name order, looping
// forever. Frames are already JPEG, so they are sent without re-encoding.
type DirSource struct {
	logger *slog.Logger

	mu     sync.Mutex
	files  []string
	next   int
	seq    uint64
	closed bool

	acquired atomic.Int64
	released atomic.Int64
	failures atomic.Int64
}

// NewDirSource lists dir and returns a source over its JPEG files.
func NewDirSource(dir string, logger *slog.Logger) (*DirSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var files []string
	for _, pattern := range []string{"*.jpg", "*.jpeg"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no jpeg files in %s", dir)
	}
	sort.Strings(files)

	logger.Info("replaying frames from directory", "dir", dir, "files", len(files))

	return &DirSource{logger: logger, files: files}, nil
}

// Acquire reads the next file.
func (s *DirSource) Acquire(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSourceClosed
	}

	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)

	data, err := os.ReadFile(path)
	if err != nil {
		s.failures.Add(1)
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if len(data) == 0 {
		s.failures.Add(1)
		return nil, fmt.Errorf("%w: %s is empty", ErrCaptureFailed, filepath.Base(path))
	}

	s.seq++
	s.acquired.Add(1)
	return &Frame{
		Data:      data,
		Format:    FormatJPEG,
		Timestamp: TimestampOf(timeNow()),
		Seq:       s.seq,
		handle:    path,
	}, nil
}

// Release drops the file contents.
func (s *DirSource) Release(f *Frame) {
	if !f.markReleased() {
		return
	}
	f.Data = nil
	s.released.Add(1)
}

// Name returns "dir".
func (s *DirSource) Name() string {
	return "dir"
}

// Close stops the replay.
func (s *DirSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Stats returns source statistics.
func (s *DirSource) Stats() SourceStats {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	return SourceStats{
		FramesAcquired: s.acquired.Load(),
		FramesReleased: s.released.Load(),
		CaptureErrors:  s.failures.Load(),
		Open:           !closed,
		Backend:        "dir",
	}
}

var _ SourceWithStats = (*DirSource)(nil)
