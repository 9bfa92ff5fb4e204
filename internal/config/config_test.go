package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "camstream.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv(EnvServer, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvWebAddr, "")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.ConnectTimeout != 5*time.Second {
		t.Errorf("ConnectTimeout = %v, want 5s", cfg.Server.ConnectTimeout)
	}
	if cfg.Session.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.Session.RetryDelay)
	}
	if cfg.Stream.Quality != 80 {
		t.Errorf("Quality = %d, want 80", cfg.Stream.Quality)
	}
	if cfg.Stream.CaptureRetryDelay != 0 {
		t.Errorf("CaptureRetryDelay = %v, want 0", cfg.Stream.CaptureRetryDelay)
	}
	if cfg.Web.Enabled {
		t.Error("web should be disabled by default")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, `
server:
  address: relay.local:40001
  connect_timeout: 2s
session:
  retry_delay: 500ms
stream:
  quality: 60
  encoder: native
  capture_retry_delay: 10ms
source:
  backend: dir
  dir: /var/lib/frames
camera:
  preset: night
  overrides:
    hmirror: true
    framesize: vga
log:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Server.Address != "relay.local:40001" || cfg.Server.ConnectTimeout != 2*time.Second {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Session.RetryDelay != 500*time.Millisecond {
		t.Errorf("retry_delay = %v", cfg.Session.RetryDelay)
	}
	if cfg.Stream.Quality != 60 || cfg.Stream.Encoder != "native" || cfg.Stream.CaptureRetryDelay != 10*time.Millisecond {
		t.Errorf("stream = %+v", cfg.Stream)
	}
	if cfg.Source.Backend != frame.BackendDir || cfg.Source.Dir != "/var/lib/frames" {
		t.Errorf("source = %+v", cfg.Source)
	}
	// Unset fields keep their defaults.
	if cfg.Source.Width != 1024 {
		t.Errorf("source.width = %d, want default 1024", cfg.Source.Width)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q", cfg.Log.Level)
	}

	m, err := cfg.CameraManager()
	if err != nil {
		t.Fatalf("CameraManager failed: %v", err)
	}
	s := m.Settings()
	if !s.HMirror || s.FrameSize != frame.FrameVGA || s.AELevel != 2 {
		t.Errorf("camera settings = %+v", s)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv(EnvServer, "10.0.0.9:40001")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvWebAddr, ":9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != "10.0.0.9:40001" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
	if !cfg.Web.Enabled || cfg.Web.Addr != ":9090" {
		t.Errorf("web = %+v", cfg.Web)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "server: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"zero timeout", func(c *Config) { c.Server.ConnectTimeout = 0 }, "connect_timeout"},
		{"negative retry", func(c *Config) { c.Session.RetryDelay = -time.Second }, "retry_delay"},
		{"quality", func(c *Config) { c.Stream.Quality = 0 }, "stream.quality"},
		{"encoder", func(c *Config) { c.Stream.Encoder = "webp" }, "stream.encoder"},
		{"backend", func(c *Config) { c.Source.Backend = "v4l" }, "source"},
		{"preset", func(c *Config) { c.Camera.Preset = "sunset" }, "camera.preset"},
		{"web addr", func(c *Config) { c.Web.Enabled = true; c.Web.Addr = "" }, "web.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCameraManager_BadOverride(t *testing.T) {
	cfg := Default()
	cfg.Camera.Overrides = map[string]interface{}{"quality": 200}
	if _, err := cfg.CameraManager(); err == nil {
		t.Error("expected error for out-of-range override")
	}
}
