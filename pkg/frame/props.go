package frame

import (
	"fmt"
	"math"
)

// captureProperty names a capture device property independent of the
// capture library.
type captureProperty int

const (
	propFrameWidth captureProperty = iota
	propFrameHeight
	propBrightness
	propContrast
	propSaturation
	propAutoExposure
	propAutoWB
)

// V4L2 auto exposure modes as exposed through OpenCV.
const (
	autoExposureManual   = 1
	autoExposureAperture = 3
)

// propertyDevice reads and writes capture device properties.
type propertyDevice interface {
	Get(p captureProperty) float64
	Set(p captureProperty, v float64)
}

// sensorProps maps firmware-style sensor assignments onto a capture
// device. Tone values (-2..2) are steps of a quarter of the driver's
// baseline, read once when the device opens; 0 restores the baseline.
type sensorProps struct {
	dev      propertyDevice
	baseline map[captureProperty]float64
}

func newSensorProps(dev propertyDevice) *sensorProps {
	sp := &sensorProps{dev: dev, baseline: make(map[captureProperty]float64)}
	for _, p := range []captureProperty{propBrightness, propContrast, propSaturation} {
		sp.baseline[p] = dev.Get(p)
	}
	return sp
}

func (sp *sensorProps) set(name string, value int) error {
	switch name {
	case "framesize":
		w, h := FrameSize(value).Dimensions()
		if w == 0 {
			return fmt.Errorf("invalid framesize %d", value)
		}
		sp.dev.Set(propFrameWidth, float64(w))
		sp.dev.Set(propFrameHeight, float64(h))
	case "brightness":
		return sp.setTone(propBrightness, name, value)
	case "contrast":
		return sp.setTone(propContrast, name, value)
	case "saturation":
		return sp.setTone(propSaturation, name, value)
	case "exposure_ctrl":
		mode := autoExposureManual
		if value != 0 {
			mode = autoExposureAperture
		}
		sp.dev.Set(propAutoExposure, float64(mode))
	case "whitebal":
		on := 0.0
		if value != 0 {
			on = 1
		}
		sp.dev.Set(propAutoWB, on)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProperty, name)
	}
	return nil
}

// setTone applies a -2..2 step around the baseline. Devices that report
// no usable baseline do not support the property.
func (sp *sensorProps) setTone(p captureProperty, name string, value int) error {
	base := sp.baseline[p]
	if base <= 0 {
		return fmt.Errorf("%w: %s (no driver baseline)", ErrUnsupportedProperty, name)
	}
	if value < -2 || value > 2 {
		return fmt.Errorf("%s %d out of range [-2, 2]", name, value)
	}
	sp.dev.Set(p, math.Round(base*(1+float64(value)/4)))
	return nil
}
