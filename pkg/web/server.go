// Package web serves the device's local status API: stream and session
// counters, camera settings, and a websocket status feed.
package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/teslashibe/go-camstream/pkg/camera"
	"github.com/teslashibe/go-camstream/pkg/frame"
	"github.com/teslashibe/go-camstream/pkg/hub"
	"github.com/teslashibe/go-camstream/pkg/session"
	"github.com/teslashibe/go-camstream/pkg/stream"
)

// DefaultInterval is how often /ws/status clients receive a status update.
const DefaultInterval = time.Second

// Status is the device status served at /api/status and /ws/status.
type Status struct {
	State   string             `json:"state"`
	Uptime  string             `json:"uptime"`
	Session session.Snapshot   `json:"session"`
	Stream  stream.Snapshot    `json:"stream"`
	Source  *frame.SourceStats `json:"source,omitempty"`
}

// StatusFunc reports the current status.
type StatusFunc func() Status

// Server is the local status API server
type Server struct {
	app      *fiber.App
	logger   *slog.Logger
	status   StatusFunc
	camera   *camera.Manager
	interval time.Duration
	started  time.Time

	// Hub for websocket broadcast
	statusHub *hub.Hub
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithInterval sets the status broadcast interval.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		s.interval = d
	}
}

// NewServer creates a status API server. cam may be nil, which disables
// the camera routes.
func NewServer(status StatusFunc, cam *camera.Manager, opts ...Option) *Server {
	s := &Server{
		logger:   slog.Default(),
		status:   status,
		camera:   cam,
		interval: DefaultInterval,
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")
	s.statusHub = hub.New("status", s.logger)

	app := fiber.New(fiber.Config{
		AppName:               "camstream",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	s.RegisterAPIRoutes(app.Group("/api"))
	s.RegisterRoutes(app)

	s.app = app
	return s
}

// RegisterAPIRoutes registers the REST routes on api.
func (s *Server) RegisterAPIRoutes(api fiber.Router) {
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	if s.camera != nil {
		api.Get("/camera", s.handleGetCamera)
		api.Put("/camera", s.handleUpdateCamera)
		api.Get("/camera/presets", s.handlePresets)
	}
}

// RegisterRoutes registers the websocket routes on app.
func (s *Server) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/status", websocket.New(s.handleStatusWS))
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the status hub.
func (s *Server) Hub() *hub.Hub {
	return s.statusHub
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.statusHub.Run(ctx)
	go s.broadcastLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status API listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.statusHub.ClientCount() == 0 {
				continue
			}
			if err := s.statusHub.BroadcastJSON(s.currentStatus()); err != nil {
				s.logger.Warn("encode status failed", "error", err)
			}
		}
	}
}

func (s *Server) currentStatus() Status {
	var st Status
	if s.status != nil {
		st = s.status()
	}
	st.Uptime = time.Since(s.started).Round(time.Second).String()
	return st
}
