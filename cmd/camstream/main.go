// camstream - streams camera frames to a relay server as multipart JPEG
// over a raw TCP connection, reconnecting forever.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-camstream/internal/config"
	"github.com/teslashibe/go-camstream/internal/log"
	"github.com/teslashibe/go-camstream/pkg/camera"
	"github.com/teslashibe/go-camstream/pkg/encoder"
	"github.com/teslashibe/go-camstream/pkg/frame"
	"github.com/teslashibe/go-camstream/pkg/session"
	"github.com/teslashibe/go-camstream/pkg/stream"
	"github.com/teslashibe/go-camstream/pkg/web"
)

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}

	log.Init(cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("camstream stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags loads the config file and applies flag overrides.
func parseFlags() (config.Config, error) {
	configPath := flag.String("config", "", "Path to YAML config file")
	server := flag.String("server", "", "Relay server host:port (overrides config and CAMSTREAM_SERVER)")
	backend := flag.String("backend", "", "Capture backend: auto, gocv, dir, mock")
	device := flag.Int("device", 0, "Camera device index for the gocv backend")
	dir := flag.String("dir", "", "Directory of JPEG files for the dir backend")
	webAddr := flag.String("web", "", "Serve the status API on this address (e.g. :8080)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.Server.Address = *server
		case "backend":
			cfg.Source.Backend = frame.Backend(*backend)
		case "device":
			cfg.Source.Device = *device
		case "dir":
			cfg.Source.Dir = *dir
			if !isFlagSet("backend") {
				cfg.Source.Backend = frame.BackendDir
			}
		case "web":
			cfg.Web.Enabled = *webAddr != ""
			cfg.Web.Addr = *webAddr
		case "debug":
			if *debug {
				cfg.Log.Level = "debug"
			}
		}
	})

	return cfg, cfg.Validate()
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) { set = set || f.Name == name })
	return set
}

// run wires source → driver → session and the optional status API, and
// blocks until ctx is done.
func run(ctx context.Context, cfg config.Config) error {
	logger := log.L()

	src, err := frame.NewSource(cfg.Source, log.Component("frame"))
	if err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}
	defer src.Close()

	enc, err := encoder.New(cfg.Stream.Encoder)
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}

	cam, err := cfg.CameraManager()
	if err != nil {
		return err
	}
	cam.OnChange = func(s camera.Settings) {
		logger.Info("camera settings changed, applying at next session", "framesize", s.FrameSize)
	}

	driver := stream.NewDriver(src, enc,
		stream.WithQuality(cfg.Stream.Quality),
		stream.WithCaptureRetryDelay(cfg.Stream.CaptureRetryDelay),
		stream.WithLogger(logger),
	)

	opts := []session.Option{session.WithLogger(logger)}
	if sensor, ok := src.(frame.Sensor); ok {
		opts = append(opts, session.WithConfigure(func(context.Context) error {
			_, err := cam.ApplyTo(sensor, log.Component("camera"))
			return err
		}))
	}
	sessions := session.New(session.Config{
		Addr:           cfg.Server.Address,
		ConnectTimeout: cfg.Server.ConnectTimeout,
		RetryDelay:     cfg.Session.RetryDelay,
	}, nil, driver, opts...)

	logger.Info("camstream starting",
		"server", cfg.Server.Address,
		"source", src.Name(),
		"encoder", enc.Name(),
		"quality", cfg.Stream.Quality,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sessions.Run(gctx)
	})

	if cfg.Web.Enabled {
		status := func() web.Status {
			st := web.Status{
				State:   driver.State().String(),
				Session: sessions.Stats().Snapshot(),
				Stream:  driver.Stats().Snapshot(),
			}
			if ss, ok := src.(frame.SourceWithStats); ok {
				stats := ss.Stats()
				st.Source = &stats
			}
			return st
		}
		srv := web.NewServer(status, cam, web.WithLogger(logger))
		g.Go(func() error {
			return srv.Run(gctx, cfg.Web.Addr)
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		logger.Info("camstream shut down")
		return nil
	}
	return err
}
