package camera

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// Manager holds the current sensor settings and handles updates.
// Updates are picked up by the next ApplyTo, which the session manager
// calls once per session, so the sensor is only touched by the pipeline.
type Manager struct {
	settings Settings
	mu       sync.RWMutex

	// Callback when settings change
	OnChange func(s Settings)
}

// NewManager creates a new camera manager with default settings.
func NewManager() *Manager {
	return &Manager{
		settings: DefaultSettings(),
	}
}

// NewManagerWith creates a manager starting from s.
func NewManagerWith(s Settings) (*Manager, error) {
	if errs := s.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errs)
	}
	return &Manager{settings: s}, nil
}

// Settings returns the current sensor settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings replaces the sensor settings.
func (m *Manager) SetSettings(s Settings) error {
	if errs := s.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	m.mu.Lock()
	m.settings = s
	callback := m.OnChange
	m.mu.Unlock()

	if callback != nil {
		callback(s)
	}

	return nil
}

// UpdateSettings updates specific fields of the settings.
// Accepts a map of property names to values, plus an optional "preset"
// applied before the other fields. params is not modified.
func (m *Manager) UpdateSettings(params map[string]interface{}) error {
	m.mu.Lock()
	s := m.settings

	// Check for preset first
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			m.mu.Unlock()
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		s = *preset
	}

	for key, value := range params {
		if key == "preset" {
			if _, ok := value.(string); !ok {
				m.mu.Unlock()
				return fmt.Errorf("preset: expected a name, got %v", value)
			}
			continue
		}
		if err := s.set(key, value); err != nil {
			m.mu.Unlock()
			return err
		}
	}

	if errs := s.Validate(); len(errs) > 0 {
		m.mu.Unlock()
		return fmt.Errorf("validation failed: %v", errs)
	}

	m.settings = s
	callback := m.OnChange
	m.mu.Unlock()

	if callback != nil {
		callback(s)
	}
	return nil
}

// ApplyTo assigns the current settings to sensor.
func (m *Manager) ApplyTo(sensor frame.Sensor, logger *slog.Logger) (int, error) {
	return Apply(sensor, m.Settings(), logger)
}

// SettingsJSON returns the current settings as a map for JSON serialization.
func (m *Manager) SettingsJSON() map[string]interface{} {
	s := m.Settings()

	// Convert to map via JSON for consistent serialization
	data, _ := json.Marshal(s)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// set assigns one property by its wire name.
func (s *Settings) set(key string, value interface{}) error {
	ints := map[string]*int{
		"quality":        &s.Quality,
		"contrast":       &s.Contrast,
		"brightness":     &s.Brightness,
		"saturation":     &s.Saturation,
		"gainceiling":    &s.GainCeiling,
		"agc_gain":       &s.AGCGain,
		"ae_level":       &s.AELevel,
		"wb_mode":        &s.WBMode,
		"special_effect": &s.SpecialEffect,
	}
	bools := map[string]*bool{
		"gain_ctrl":     &s.GainCtrl,
		"exposure_ctrl": &s.ExposureCtrl,
		"whitebal":      &s.WhiteBalance,
		"awb_gain":      &s.AWBGain,
		"hmirror":       &s.HMirror,
		"vflip":         &s.VFlip,
		"dcw":           &s.DCW,
		"bpc":           &s.BPC,
		"wpc":           &s.WPC,
		"raw_gma":       &s.RawGMA,
		"lenc":          &s.LensCorrection,
		"colorbar":      &s.ColorBar,
	}

	if key == "framesize" {
		switch v := value.(type) {
		case string:
			fs, err := frame.ParseFrameSize(v)
			if err != nil {
				return err
			}
			s.FrameSize = fs
		default:
			n, ok := toInt(v)
			if !ok {
				return fmt.Errorf("framesize: invalid value %v", value)
			}
			s.FrameSize = frame.FrameSize(n)
		}
		return nil
	}
	if p, ok := ints[key]; ok {
		n, ok := toInt(value)
		if !ok {
			return fmt.Errorf("%s: expected a number, got %v", key, value)
		}
		*p = n
		return nil
	}
	if p, ok := bools[key]; ok {
		b, ok := toBool(value)
		if !ok {
			return fmt.Errorf("%s: expected a boolean, got %v", key, value)
		}
		*p = b
		return nil
	}
	return fmt.Errorf("unknown setting: %s", key)
}

// Helper functions for type conversion

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toBool(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		return val != 0, true
	case int:
		return val != 0, true
	}
	return false, false
}
