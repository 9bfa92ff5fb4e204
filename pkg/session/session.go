// Package session owns the connection to the relay server: connect,
// handshake, configure the sensor, stream until the transport fails, close
// and wait before the next attempt.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-camstream/pkg/protocol"
)

// Dialer opens transport connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Streamer writes the frame stream to a connection until it fails.
// *stream.Driver satisfies it.
type Streamer interface {
	Run(ctx context.Context, w io.Writer) error
}

// ConfigureFunc applies sensor settings once per session, after the
// handshake and before streaming. Errors are logged and streaming proceeds.
type ConfigureFunc func(ctx context.Context) error

// Manager runs sessions against one relay server. Only one session is
// ever live.
type Manager struct {
	cfg       Config
	dialer    Dialer
	streamer  Streamer
	configure ConfigureFunc
	logger    *slog.Logger
	stats     *Stats
	wait      func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithConfigure sets the per-session sensor configuration hook.
func WithConfigure(fn ConfigureFunc) Option {
	return func(m *Manager) {
		m.configure = fn
	}
}

// WithWait replaces the retry delay wait (tests).
func WithWait(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		m.wait = fn
	}
}

// New creates a session manager. A nil dialer uses a net.Dialer.
func New(cfg Config, dialer Dialer, streamer Streamer, opts ...Option) *Manager {
	if dialer == nil {
		dialer = &net.Dialer{KeepAlive: 30 * time.Second}
	}
	m := &Manager{
		cfg:      cfg,
		dialer:   dialer,
		streamer: streamer,
		logger:   slog.Default(),
		stats:    &Stats{},
		wait:     sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Stats returns the session counters.
func (m *Manager) Stats() *Stats {
	return m.stats
}

// Run repeats RunOnce until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	for {
		if err := m.RunOnce(ctx); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// RunOnce performs one session followed by the retry delay. It returns
// the error that ended the session: ErrConnect or ErrHandshake wrapped
// with the cause, the streamer's error, or ctx.Err() once ctx is done.
// Cancelling ctx closes the live connection and skips the delay.
func (m *Manager) RunOnce(ctx context.Context) error {
	err := m.session(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if werr := m.wait(ctx, m.cfg.RetryDelay); werr != nil {
		return werr
	}
	return err
}

func (m *Manager) session(ctx context.Context) error {
	id := uuid.NewString()
	logger := m.logger.With("session", id)
	m.stats.attempt(id)

	logger.Info("connecting", "addr", m.cfg.Addr)

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	conn, err := m.dialer.DialContext(dialCtx, "tcp", m.cfg.Addr)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConnect, err)
		m.stats.connectFailed(err)
		if ctx.Err() == nil {
			logger.Warn("connect failed", "addr", m.cfg.Addr, "error", err)
		}
		return err
	}

	closeConn := sync.OnceValue(conn.Close)
	stop := context.AfterFunc(ctx, func() { closeConn() })

	err = m.stream(ctx, conn, logger)

	stop()
	if cerr := closeConn(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		logger.Debug("close failed", "error", cerr)
	}

	if ctx.Err() != nil {
		m.stats.close(nil)
		logger.Info("session closed", "reason", "shutdown")
		return err
	}
	m.stats.close(err)
	logger.Info("session closed", "error", err)
	return err
}

func (m *Manager) stream(ctx context.Context, conn net.Conn, logger *slog.Logger) error {
	// The dial timeout must not carry over to frame writes.
	if err := conn.SetDeadline(time.Time{}); err != nil {
		logger.Debug("clear deadline failed", "error", err)
	}

	if err := protocol.WriteHandshake(conn); err != nil {
		logger.Error("handshake failed", "error", err)
		return fmt.Errorf("%w: %w", ErrHandshake, err)
	}
	m.stats.connect(m.now())

	if m.configure != nil {
		if err := m.configure(ctx); err != nil {
			logger.Warn("camera configuration failed", "error", err)
		}
	}

	logger.Info("sending camera stream")
	return m.streamer.Run(ctx, conn)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
