package frame

import (
	"errors"
	"testing"
)

type fakeDevice struct {
	values map[captureProperty]float64
	sets   int
}

func newFakeDevice(baseline map[captureProperty]float64) *fakeDevice {
	values := make(map[captureProperty]float64, len(baseline))
	for p, v := range baseline {
		values[p] = v
	}
	return &fakeDevice{values: values}
}

func (d *fakeDevice) Get(p captureProperty) float64 { return d.values[p] }

func (d *fakeDevice) Set(p captureProperty, v float64) {
	d.sets++
	d.values[p] = v
}

func TestSensorProps_Set(t *testing.T) {
	uvc := map[captureProperty]float64{
		propBrightness: 128,
		propContrast:   32,
		propSaturation: 64,
	}

	tests := []struct {
		name    string
		prop    string
		value   int
		base    map[captureProperty]float64
		want    map[captureProperty]float64
		wantErr error
	}{
		{"brightness default keeps baseline", "brightness", 0, uvc, map[captureProperty]float64{propBrightness: 128}, nil},
		{"brightness +2", "brightness", 2, uvc, map[captureProperty]float64{propBrightness: 192}, nil},
		{"brightness -2", "brightness", -2, uvc, map[captureProperty]float64{propBrightness: 64}, nil},
		{"contrast +1", "contrast", 1, uvc, map[captureProperty]float64{propContrast: 40}, nil},
		{"saturation default keeps color", "saturation", 0, uvc, map[captureProperty]float64{propSaturation: 64}, nil},
		{"saturation without baseline", "saturation", 0, map[captureProperty]float64{}, nil, ErrUnsupportedProperty},
		{"unreadable baseline", "contrast", 1, map[captureProperty]float64{propContrast: -1}, nil, ErrUnsupportedProperty},
		{"exposure auto", "exposure_ctrl", 1, uvc, map[captureProperty]float64{propAutoExposure: 3}, nil},
		{"exposure manual", "exposure_ctrl", 0, uvc, map[captureProperty]float64{propAutoExposure: 1}, nil},
		{"white balance on", "whitebal", 1, uvc, map[captureProperty]float64{propAutoWB: 1}, nil},
		{"white balance off", "whitebal", 0, uvc, map[captureProperty]float64{propAutoWB: 0}, nil},
		{"framesize", "framesize", int(FrameVGA), uvc, map[captureProperty]float64{propFrameWidth: 640, propFrameHeight: 480}, nil},
		{"agc_gain has no absolute mapping", "agc_gain", 0, uvc, nil, ErrUnsupportedProperty},
		{"gain_ctrl", "gain_ctrl", 1, uvc, nil, ErrUnsupportedProperty},
		{"unknown", "lenc", 1, uvc, nil, ErrUnsupportedProperty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(tt.base)
			sp := newSensorProps(dev)

			err := sp.set(tt.prop, tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				if dev.sets != 0 {
					t.Errorf("device written %d times on error", dev.sets)
				}
				return
			}
			if err != nil {
				t.Fatalf("set failed: %v", err)
			}
			for p, want := range tt.want {
				if got := dev.values[p]; got != want {
					t.Errorf("property %d = %v, want %v", p, got, want)
				}
			}
		})
	}
}

func TestSensorProps_Errors(t *testing.T) {
	sp := newSensorProps(newFakeDevice(map[captureProperty]float64{propBrightness: 128}))

	if err := sp.set("brightness", 3); err == nil || errors.Is(err, ErrUnsupportedProperty) {
		t.Errorf("out-of-range tone: err = %v", err)
	}
	if err := sp.set("framesize", 99); err == nil {
		t.Error("expected error for invalid framesize")
	}
}

func TestSensorProps_BaselineReadOnce(t *testing.T) {
	dev := newFakeDevice(map[captureProperty]float64{propBrightness: 100})
	sp := newSensorProps(dev)

	if err := sp.set("brightness", 2); err != nil {
		t.Fatal(err)
	}
	if err := sp.set("brightness", 0); err != nil {
		t.Fatal(err)
	}
	if got := dev.values[propBrightness]; got != 100 {
		t.Errorf("brightness = %v, want baseline 100 restored", got)
	}
}
