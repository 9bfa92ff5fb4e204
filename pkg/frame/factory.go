package frame

import (
	"fmt"
	"log/slog"
)

// NewSource creates a frame source with the given configuration.
// If cfg.Backend is BackendAuto, the gocv backend is selected.
func NewSource(cfg Config, logger *slog.Logger) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	backend := cfg.Backend
	if backend == BackendAuto {
		backend = BackendGoCV
		if !gocvAvailable {
			return nil, fmt.Errorf("no camera backend available: built with the nogocv tag, use the dir or mock backend")
		}
	}

	logger.Info("creating frame source",
		"backend", backend,
		"device", cfg.Device,
		"width", cfg.Width,
		"height", cfg.Height,
	)

	switch backend {
	case BackendMock:
		return NewMockSource(logger), nil
	case BackendGoCV:
		return newGoCVSource(cfg, logger)
	case BackendDir:
		return NewDirSource(cfg.Dir, logger)
	default:
		return nil, fmt.Errorf("unsupported backend: %s", backend)
	}
}

// AvailableBackends returns the list of selectable backends.
func AvailableBackends() []Backend {
	if !gocvAvailable {
		return []Backend{BackendDir, BackendMock}
	}
	return []Backend{BackendGoCV, BackendDir, BackendMock}
}
