// Package frame provides frame capture from image sensors.
//
// This package supports multiple backends:
//   - GoCV (OpenCV VideoCapture) - USB/CSI cameras on the device
//   - Dir - replays JPEG files from a directory, for bench setups
//   - Mock - CI/Testing without hardware
//
// Frames are handed out by Acquire and must be handed back with Release
// exactly once. Encoded data ready for the wire is carried as a Payload,
// which remembers whether it borrows the frame or owns its own buffer.
package frame

import (
	"fmt"
)

// Backend represents the capture backend type.
type Backend string

const (
	// BackendAuto selects the best available backend.
	BackendAuto Backend = "auto"
	// BackendGoCV captures through OpenCV.
	BackendGoCV Backend = "gocv"
	// BackendDir replays JPEG files from a directory.
	BackendDir Backend = "dir"
	// BackendMock uses a synthetic source for testing.
	BackendMock Backend = "mock"
)

// Config holds frame source configuration.
type Config struct {
	// Backend specifies which capture backend to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// Device is the camera index for the gocv backend.
	Device int `yaml:"device" json:"device"`

	// Dir is the directory of *.jpg files for the dir backend.
	Dir string `yaml:"dir" json:"dir"`

	// Width and Height request a capture resolution. Zero keeps the
	// driver default.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend: BackendAuto,
		Device:  0,
		Width:   1024, // XGA
		Height:  768,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAuto, BackendGoCV, BackendMock:
	case BackendDir:
		if c.Dir == "" {
			return fmt.Errorf("dir backend requires a directory")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Device < 0 {
		return fmt.Errorf("device must not be negative, got %d", c.Device)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("resolution must not be negative, got %dx%d", c.Width, c.Height)
	}
	return nil
}
