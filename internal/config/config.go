// Package config loads go-camstream configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-camstream/pkg/camera"
	"github.com/teslashibe/go-camstream/pkg/encoder"
	"github.com/teslashibe/go-camstream/pkg/frame"
)

// Defaults.
const (
	DefaultServerAddr     = "127.0.0.1:40001"
	DefaultConnectTimeout = 5 * time.Second
	DefaultRetryDelay     = time.Second
	DefaultWebAddr        = ":8080"
	DefaultLogLevel       = "info"
)

// Environment variables overriding the file.
const (
	EnvServer   = "CAMSTREAM_SERVER"
	EnvLogLevel = "CAMSTREAM_LOG_LEVEL"
	EnvWebAddr  = "CAMSTREAM_WEB_ADDR"
)

// Config is the full device configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Stream  StreamConfig  `yaml:"stream"`
	Source  frame.Config  `yaml:"source"`
	Camera  CameraConfig  `yaml:"camera"`
	Web     WebConfig     `yaml:"web"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig locates the relay server.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// SessionConfig controls the reconnect cadence.
type SessionConfig struct {
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// StreamConfig controls the stream driver.
type StreamConfig struct {
	// Quality is the JPEG quality used for raw frames (1-100).
	Quality int `yaml:"quality"`

	// Encoder selects the JPEG encoder: "auto", "gocv" or "native".
	Encoder string `yaml:"encoder"`

	// CaptureRetryDelay pauses after a failed capture or encode.
	// Zero retries immediately.
	CaptureRetryDelay time.Duration `yaml:"capture_retry_delay"`
}

// CameraConfig selects sensor settings.
type CameraConfig struct {
	Preset    string                 `yaml:"preset"`
	Overrides map[string]interface{} `yaml:"overrides"`
}

// WebConfig controls the local status API.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:        DefaultServerAddr,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Session: SessionConfig{
			RetryDelay: DefaultRetryDelay,
		},
		Stream: StreamConfig{
			Quality: encoder.DefaultQuality,
			Encoder: "auto",
		},
		Source: frame.DefaultConfig(),
		Camera: CameraConfig{
			Preset: "default",
		},
		Web: WebConfig{
			Addr: DefaultWebAddr,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load reads path on top of the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides fields from CAMSTREAM_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvWebAddr); v != "" {
		c.Web.Addr = v
		c.Web.Enabled = true
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Server.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("server.connect_timeout must be positive"))
	}
	if c.Session.RetryDelay < 0 {
		errs = append(errs, errors.New("session.retry_delay must not be negative"))
	}
	if c.Stream.Quality < 1 || c.Stream.Quality > 100 {
		errs = append(errs, fmt.Errorf("stream.quality %d out of range [1, 100]", c.Stream.Quality))
	}
	switch c.Stream.Encoder {
	case "", "auto", "gocv", "native":
	default:
		errs = append(errs, fmt.Errorf("stream.encoder: unknown encoder %q", c.Stream.Encoder))
	}
	if c.Stream.CaptureRetryDelay < 0 {
		errs = append(errs, errors.New("stream.capture_retry_delay must not be negative"))
	}
	if err := c.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if c.Camera.Preset != "" && camera.GetPreset(c.Camera.Preset) == nil {
		errs = append(errs, fmt.Errorf("camera.preset: unknown preset %q", c.Camera.Preset))
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		errs = append(errs, errors.New("web.addr is required when web is enabled"))
	}

	return errors.Join(errs...)
}

// CameraManager builds a camera manager from the preset and overrides.
func (c *Config) CameraManager() (*camera.Manager, error) {
	m := camera.NewManager()

	params := make(map[string]interface{}, len(c.Camera.Overrides)+1)
	for k, v := range c.Camera.Overrides {
		params[k] = v
	}
	if c.Camera.Preset != "" {
		params["preset"] = c.Camera.Preset
	}
	if len(params) == 0 {
		return m, nil
	}
	if err := m.UpdateSettings(params); err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}
	return m, nil
}
