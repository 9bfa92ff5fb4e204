package encoder

import (
	"sync"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// Mock is a test encoder that returns fixed data and counts calls and frees.
type Mock struct {
	mu      sync.Mutex
	data    []byte
	err     error
	calls   int
	frees   int
	quality []int
}

// NewMock creates a mock encoder returning data on every call.
func NewMock(data []byte) *Mock {
	return &Mock{data: data}
}

// WithError creates a mock encoder that always fails with err.
func WithError(err error) *Mock {
	return &Mock{err: err}
}

type mockBuffer struct {
	m    *Mock
	data []byte
	done bool
}

func (b *mockBuffer) Bytes() []byte { return b.data }

func (b *mockBuffer) Free() {
	if b.done {
		return
	}
	b.done = true
	b.m.mu.Lock()
	b.m.frees++
	b.m.mu.Unlock()
}

// Encode records the call and returns a copy of the configured data.
func (m *Mock) Encode(f *frame.Frame, quality int) (frame.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.quality = append(m.quality, quality)
	if m.err != nil {
		return nil, m.err
	}
	data := make([]byte, len(m.data))
	copy(data, m.data)
	return &mockBuffer{m: m, data: data}, nil
}

// Name returns "mock".
func (m *Mock) Name() string {
	return "mock"
}

// Calls returns the number of Encode calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Frees returns the number of buffers freed.
func (m *Mock) Frees() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frees
}

// Qualities returns the quality passed to each call.
func (m *Mock) Qualities() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.quality))
	copy(out, m.quality)
	return out
}
