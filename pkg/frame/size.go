package frame

import "fmt"

// FrameSize is a named sensor resolution.
type FrameSize int

const (
	FrameQQVGA FrameSize = iota // 160x120
	FrameQVGA                   // 320x240
	FrameCIF                    // 400x296
	FrameVGA                    // 640x480
	FrameSVGA                   // 800x600
	FrameXGA                    // 1024x768
	FrameHD                     // 1280x720
	FrameSXGA                   // 1280x1024
	FrameUXGA                   // 1600x1200
)

var frameSizes = []struct {
	name string
	w, h int
}{
	{"qqvga", 160, 120},
	{"qvga", 320, 240},
	{"cif", 400, 296},
	{"vga", 640, 480},
	{"svga", 800, 600},
	{"xga", 1024, 768},
	{"hd", 1280, 720},
	{"sxga", 1280, 1024},
	{"uxga", 1600, 1200},
}

// Dimensions returns the width and height of the frame size.
func (s FrameSize) Dimensions() (width, height int) {
	if !s.Valid() {
		return 0, 0
	}
	return frameSizes[s].w, frameSizes[s].h
}

// Valid reports whether s names a known resolution.
func (s FrameSize) Valid() bool {
	return s >= 0 && int(s) < len(frameSizes)
}

// String returns the lowercase resolution name.
func (s FrameSize) String() string {
	if !s.Valid() {
		return fmt.Sprintf("framesize(%d)", int(s))
	}
	return frameSizes[s].name
}

// ParseFrameSize looks up a frame size by name (e.g. "xga").
func ParseFrameSize(name string) (FrameSize, error) {
	for i, fs := range frameSizes {
		if fs.name == name {
			return FrameSize(i), nil
		}
	}
	return 0, fmt.Errorf("unknown frame size %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s FrameSize) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid frame size %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *FrameSize) UnmarshalText(text []byte) error {
	v, err := ParseFrameSize(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
