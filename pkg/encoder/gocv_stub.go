//go:build nogocv

package encoder

import "fmt"

const gocvAvailable = false

// newGoCV returns an error when built without OpenCV.
func newGoCV() (Encoder, error) {
	return nil, fmt.Errorf("gocv encoder not available: built with the nogocv tag")
}
