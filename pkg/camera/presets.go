package camera

import "github.com/teslashibe/go-camstream/pkg/frame"

// Preset names for common configurations
const (
	PresetDefault   = "default"
	PresetVGA       = "vga"
	PresetSVGA      = "svga"
	PresetHD        = "hd"
	PresetNight     = "night"
	PresetBright    = "bright"
	PresetMirror    = "mirror"
	PresetGrayscale = "grayscale"
)

// Presets returns all available preset settings.
func Presets() map[string]Settings {
	return map[string]Settings{
		PresetDefault:   DefaultSettings(),
		PresetVGA:       VGASettings(),
		PresetSVGA:      SVGASettings(),
		PresetHD:        HDSettings(),
		PresetNight:     NightSettings(),
		PresetBright:    BrightSettings(),
		PresetMirror:    MirrorSettings(),
		PresetGrayscale: GrayscaleSettings(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetVGA,
		PresetSVGA,
		PresetHD,
		PresetNight,
		PresetBright,
		PresetMirror,
		PresetGrayscale,
	}
}

// GetPreset returns a preset by name, or nil if not found.
func GetPreset(name string) *Settings {
	presets := Presets()
	if s, ok := presets[name]; ok {
		return &s
	}
	return nil
}

// VGASettings trades resolution for frame rate on weak uplinks.
func VGASettings() Settings {
	s := DefaultSettings()
	s.FrameSize = frame.FrameVGA
	return s
}

// SVGASettings returns 800x600.
func SVGASettings() Settings {
	s := DefaultSettings()
	s.FrameSize = frame.FrameSVGA
	return s
}

// HDSettings returns 1280x720 with slightly stronger compression.
func HDSettings() Settings {
	s := DefaultSettings()
	s.FrameSize = frame.FrameHD
	s.Quality = 12
	return s
}

// NightSettings raises the gain ceiling and exposure for low light.
func NightSettings() Settings {
	s := DefaultSettings()
	s.FrameSize = frame.FrameSVGA // smaller frames keep fps up at long exposure
	s.GainCeiling = 4             // 32x
	s.AELevel = 2
	return s
}

// BrightSettings darkens slightly to keep highlights.
func BrightSettings() Settings {
	s := DefaultSettings()
	s.AELevel = -1
	s.Brightness = -1
	return s
}

// MirrorSettings flips the image for upside-down mounts.
func MirrorSettings() Settings {
	s := DefaultSettings()
	s.HMirror = true
	s.VFlip = true
	return s
}

// GrayscaleSettings uses the sensor's grayscale effect.
func GrayscaleSettings() Settings {
	s := DefaultSettings()
	s.SpecialEffect = 2
	return s
}
