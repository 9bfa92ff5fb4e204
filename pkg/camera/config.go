// Package camera provides the sensor settings applied before each session.
// This follows the same pattern as pkg/frame for backend configuration.
package camera

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// Settings holds every sensor property assigned at session start.
// These can be modified via the camera API at runtime.
type Settings struct {
	// === Image format ===
	// FrameSize only takes effect when the sensor outputs JPEG.
	FrameSize frame.FrameSize `json:"framesize" yaml:"framesize"`
	// Quality is the sensor's JPEG quality, 0-63 (lower is better).
	Quality int `json:"quality" yaml:"quality"`

	// === Tone ===
	Contrast   int `json:"contrast" yaml:"contrast"`     // -2 to 2
	Brightness int `json:"brightness" yaml:"brightness"` // -2 to 2
	Saturation int `json:"saturation" yaml:"saturation"` // -2 to 2

	// === Gain & exposure ===
	// GainCeiling is 0 (2x) to 6 (128x).
	GainCeiling  int  `json:"gainceiling" yaml:"gainceiling"`
	GainCtrl     bool `json:"gain_ctrl" yaml:"gain_ctrl"`
	ExposureCtrl bool `json:"exposure_ctrl" yaml:"exposure_ctrl"`
	// AGCGain is the manual gain, 0-30, used when GainCtrl is off.
	AGCGain int `json:"agc_gain" yaml:"agc_gain"`
	// AELevel is exposure compensation, -2 to 2.
	AELevel int `json:"ae_level" yaml:"ae_level"`

	// === White balance ===
	WhiteBalance bool `json:"whitebal" yaml:"whitebal"`
	AWBGain      bool `json:"awb_gain" yaml:"awb_gain"`
	// WBMode is 0 (auto), 1 (sunny), 2 (cloudy), 3 (office), 4 (home).
	WBMode int `json:"wb_mode" yaml:"wb_mode"`

	// === Orientation ===
	HMirror bool `json:"hmirror" yaml:"hmirror"`
	VFlip   bool `json:"vflip" yaml:"vflip"`

	// === Corrections ===
	DCW            bool `json:"dcw" yaml:"dcw"` // downsize
	BPC            bool `json:"bpc" yaml:"bpc"` // black pixel
	WPC            bool `json:"wpc" yaml:"wpc"` // white pixel
	RawGMA         bool `json:"raw_gma" yaml:"raw_gma"`
	LensCorrection bool `json:"lenc" yaml:"lenc"`

	// === Effects ===
	ColorBar bool `json:"colorbar" yaml:"colorbar"`
	// SpecialEffect is 0 (none) to 6 (sepia).
	SpecialEffect int `json:"special_effect" yaml:"special_effect"`
}

// Sensor limits for the OV2640-class sensor the firmware targets.
const (
	MaxQuality       = 63
	MaxGainCeiling   = 6
	MaxAGCGain       = 30
	MaxSpecialEffect = 6
	MaxWBMode        = 4
)

// DefaultSettings returns the settings the device streams with.
func DefaultSettings() Settings {
	return Settings{
		FrameSize:  frame.FrameXGA,
		Quality:    10,
		Contrast:   0,
		Brightness: 0,
		Saturation: 0,

		GainCeiling:  0, // 2x
		GainCtrl:     true,
		ExposureCtrl: true,
		AGCGain:      0,
		AELevel:      0,

		WhiteBalance: true,
		AWBGain:      true,
		WBMode:       0,

		HMirror: false,
		VFlip:   false,

		DCW:            true,
		BPC:            false,
		WPC:            true,
		RawGMA:         true,
		LensCorrection: true,

		ColorBar:      false,
		SpecialEffect: 0,
	}
}

// Validate checks if the settings are within sensor ranges.
// Returns a list of validation errors, or nil if valid.
func (s *Settings) Validate() []string {
	var errors []string

	if !s.FrameSize.Valid() {
		errors = append(errors, "framesize is not a known resolution")
	}
	if s.Quality < 0 || s.Quality > MaxQuality {
		errors = append(errors, "quality must be between 0 and 63")
	}

	tones := []struct {
		name  string
		value int
	}{
		{"contrast", s.Contrast},
		{"brightness", s.Brightness},
		{"saturation", s.Saturation},
		{"ae_level", s.AELevel},
	}
	for _, tone := range tones {
		if tone.value < -2 || tone.value > 2 {
			errors = append(errors, tone.name+" must be between -2 and 2")
		}
	}

	if s.GainCeiling < 0 || s.GainCeiling > MaxGainCeiling {
		errors = append(errors, "gainceiling must be between 0 and 6")
	}
	if s.AGCGain < 0 || s.AGCGain > MaxAGCGain {
		errors = append(errors, "agc_gain must be between 0 and 30")
	}
	if s.WBMode < 0 || s.WBMode > MaxWBMode {
		errors = append(errors, "wb_mode must be between 0 and 4")
	}
	if s.SpecialEffect < 0 || s.SpecialEffect > MaxSpecialEffect {
		errors = append(errors, "special_effect must be between 0 and 6")
	}

	return errors
}

// Assignments renders the settings as the ordered property list the
// sensor is configured with. framesize is only assigned to JPEG sensors.
func (s *Settings) Assignments(format frame.PixelFormat) []frame.Assignment {
	var out []frame.Assignment
	add := func(name string, v int) {
		out = append(out, frame.Assignment{Name: name, Value: v})
	}

	if format == frame.FormatJPEG {
		add("framesize", int(s.FrameSize))
	}
	add("quality", s.Quality)
	add("contrast", s.Contrast)
	add("brightness", s.Brightness)
	add("saturation", s.Saturation)
	add("gainceiling", s.GainCeiling)
	add("colorbar", b2i(s.ColorBar))
	add("whitebal", b2i(s.WhiteBalance))
	add("gain_ctrl", b2i(s.GainCtrl))
	add("exposure_ctrl", b2i(s.ExposureCtrl))
	add("hmirror", b2i(s.HMirror))
	add("vflip", b2i(s.VFlip))
	add("awb_gain", b2i(s.AWBGain))
	add("agc_gain", s.AGCGain)
	add("dcw", b2i(s.DCW))
	add("bpc", b2i(s.BPC))
	add("wpc", b2i(s.WPC))
	add("raw_gma", b2i(s.RawGMA))
	add("lenc", b2i(s.LensCorrection))
	add("special_effect", s.SpecialEffect)
	add("wb_mode", s.WBMode)
	add("ae_level", s.AELevel)

	return out
}

// Apply assigns every property to the sensor. Properties the sensor does
// not support are skipped. It returns the number of properties applied.
func Apply(sensor frame.Sensor, s Settings, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}

	applied := 0
	for _, a := range s.Assignments(sensor.PixelFormat()) {
		err := sensor.Set(a.Name, a.Value)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, frame.ErrUnsupportedProperty):
			logger.Debug("sensor property not supported", "property", a.Name)
		default:
			return applied, fmt.Errorf("set %s=%d: %w", a.Name, a.Value, err)
		}
	}
	return applied, nil
}

// Capabilities returns the sensor setting ranges.
func Capabilities() map[string]interface{} {
	sizes := make([]string, 0, 9)
	for fs := frame.FrameQQVGA; fs.Valid(); fs++ {
		sizes = append(sizes, fs.String())
	}
	return map[string]interface{}{
		"framesizes":         sizes,
		"max_quality":        MaxQuality,
		"max_gainceiling":    MaxGainCeiling,
		"max_agc_gain":       MaxAGCGain,
		"max_special_effect": MaxSpecialEffect,
		"max_wb_mode":        MaxWBMode,
		"tone_range":         []int{-2, 2},
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
