//go:build !nogocv

package encoder

import (
	"fmt"

	"github.com/teslashibe/go-camstream/pkg/frame"
	"gocv.io/x/gocv"
)

// GoCV encodes with OpenCV's imencode. Frames captured by a GoCVSource
// are encoded straight from their Mat.
type GoCV struct{}

const gocvAvailable = true

// NewGoCV creates an OpenCV encoder.
func NewGoCV() *GoCV {
	return &GoCV{}
}

func newGoCV() (Encoder, error) {
	return NewGoCV(), nil
}

// nativeBuffer wraps memory allocated by OpenCV.
type nativeBuffer struct {
	nb *gocv.NativeByteBuffer
}

func (b *nativeBuffer) Bytes() []byte {
	if b.nb == nil {
		return nil
	}
	return b.nb.GetBytes()
}

func (b *nativeBuffer) Free() {
	if b.nb == nil {
		return
	}
	b.nb.Close()
	b.nb = nil
}

// Encode converts f to JPEG at the given quality.
func (g *GoCV) Encode(f *frame.Frame, quality int) (frame.Buffer, error) {
	if err := checkFrame(f); err != nil {
		return nil, err
	}

	mat, owned, err := matFor(f)
	if err != nil {
		return nil, err
	}
	if owned {
		defer mat.Close()
	}

	params := []int{gocv.IMWriteJpegQuality, clampQuality(quality)}
	nb, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if nb.Len() == 0 {
		nb.Close()
		return nil, ErrEncodeFailed
	}

	return &nativeBuffer{nb: nb}, nil
}

// Name returns "gocv".
func (g *GoCV) Name() string {
	return "gocv"
}

// matFor returns a BGR or gray Mat for f. owned reports whether the caller
// must close it.
func matFor(f *frame.Frame) (mat gocv.Mat, owned bool, err error) {
	if m, ok := frame.MatOf(f); ok {
		return m, false, nil
	}

	mt := gocv.MatTypeCV8UC3
	if f.Format == frame.FormatGray8 {
		mt = gocv.MatTypeCV8UC1
	}

	m, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Data)
	if err != nil {
		return gocv.Mat{}, false, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}

	if f.Format == frame.FormatRGB24 {
		bgr := gocv.NewMat()
		gocv.CvtColor(m, &bgr, gocv.ColorRGBToBGR)
		m.Close()
		return bgr, true, nil
	}
	return m, true, nil
}
