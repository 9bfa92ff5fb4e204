//go:build nogocv

package frame

import (
	"fmt"
	"log/slog"
)

const gocvAvailable = false

// newGoCVSource returns an error when built without OpenCV.
func newGoCVSource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, fmt.Errorf("gocv backend not available: built with the nogocv tag")
}
