package encoder

import (
	"fmt"
	"image"
	"image/jpeg"

	"github.com/teslashibe/go-camstream/pkg/frame"
	"github.com/valyala/bytebufferpool"
)

// Native encodes with image/jpeg into pooled buffers. It needs no cgo.
type Native struct {
	pool bytebufferpool.Pool
}

// NewNative creates a pure-Go encoder.
func NewNative() *Native {
	return &Native{}
}

// pooledBuffer returns its storage to the pool on Free.
type pooledBuffer struct {
	pool *bytebufferpool.Pool
	bb   *bytebufferpool.ByteBuffer
}

func (b *pooledBuffer) Bytes() []byte {
	if b.bb == nil {
		return nil
	}
	return b.bb.B
}

func (b *pooledBuffer) Free() {
	if b.bb == nil {
		return
	}
	b.pool.Put(b.bb)
	b.bb = nil
}

// Encode converts f to JPEG at the given quality.
func (n *Native) Encode(f *frame.Frame, quality int) (frame.Buffer, error) {
	if err := checkFrame(f); err != nil {
		return nil, err
	}

	img := toImage(f)

	bb := n.pool.Get()
	if err := jpeg.Encode(bb, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		n.pool.Put(bb)
		return nil, fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if bb.Len() == 0 {
		n.pool.Put(bb)
		return nil, ErrEncodeFailed
	}

	return &pooledBuffer{pool: &n.pool, bb: bb}, nil
}

// Name returns "native".
func (n *Native) Name() string {
	return "native"
}

// toImage wraps or converts the raw buffer into an image.Image.
func toImage(f *frame.Frame) image.Image {
	rect := image.Rect(0, 0, f.Width, f.Height)

	switch f.Format {
	case frame.FormatGray8:
		return &image.Gray{Pix: f.Data, Stride: f.Width, Rect: rect}
	default:
		img := image.NewRGBA(rect)
		src := f.Data
		bgr := f.Format == frame.FormatBGR24
		for i, j := 0, 0; i < f.Width*f.Height; i, j = i+1, j+3 {
			r, g, b := src[j], src[j+1], src[j+2]
			if bgr {
				r, b = b, r
			}
			img.Pix[i*4] = r
			img.Pix[i*4+1] = g
			img.Pix[i*4+2] = b
			img.Pix[i*4+3] = 0xff
		}
		return img
	}
}
