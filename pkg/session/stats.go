package session

import (
	"sync"
	"time"
)

// Stats tracks session activity. A session counts as connected once its
// handshake has been written.
type Stats struct {
	mu sync.RWMutex

	attempts        uint64
	connectFailures uint64
	sessions        uint64
	current         string
	connected       bool
	connectedAt     time.Time
	lastError       string
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Attempts        uint64    `json:"attempts"`
	ConnectFailures uint64    `json:"connect_failures"`
	Sessions        uint64    `json:"sessions"`
	SessionID       string    `json:"session_id,omitempty"`
	Connected       bool      `json:"connected"`
	ConnectedAt     time.Time `json:"connected_at"`
	LastError       string    `json:"last_error,omitempty"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Attempts:        s.attempts,
		ConnectFailures: s.connectFailures,
		Sessions:        s.sessions,
		SessionID:       s.current,
		Connected:       s.connected,
		ConnectedAt:     s.connectedAt,
		LastError:       s.lastError,
	}
}

func (s *Stats) attempt(id string) {
	s.mu.Lock()
	s.attempts++
	s.current = id
	s.mu.Unlock()
}

func (s *Stats) connectFailed(err error) {
	s.mu.Lock()
	s.connectFailures++
	s.current = ""
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Stats) connect(at time.Time) {
	s.mu.Lock()
	s.connected = true
	s.connectedAt = at
	s.mu.Unlock()
}

func (s *Stats) close(err error) {
	s.mu.Lock()
	if s.connected {
		s.sessions++
	}
	s.connected = false
	s.current = ""
	s.connectedAt = time.Time{}
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()
}
