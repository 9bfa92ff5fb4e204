package protocol

import (
	"strconv"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// HeaderCapacity bounds the formatted part header in bytes.
const HeaderCapacity = 128

// PartHeader is a formatted part header held in a fixed-size array.
// Formatting truncates at HeaderCapacity instead of growing.
type PartHeader struct {
	buf [HeaderCapacity]byte
	n   int
}

// FormatHeader renders the header for a payload of length n captured at ts.
func FormatHeader(n int, ts frame.Timestamp) PartHeader {
	var h PartHeader
	var num [24]byte

	h.appendString("Content-Type: image/jpeg\r\nContent-Length: ")
	h.append(strconv.AppendUint(num[:0], uint64(n), 10))
	h.appendString("\r\nX-Timestamp: ")
	h.append(strconv.AppendInt(num[:0], ts.Sec, 10))
	h.appendString(".")
	h.append(appendPadded(num[:0], ts.Usec, 6))
	h.appendString("\r\n\r\n")

	return h
}

// Bytes returns the formatted header. The slice aliases h.
func (h *PartHeader) Bytes() []byte {
	return h.buf[:h.n]
}

// Len returns the formatted length.
func (h *PartHeader) Len() int {
	return h.n
}

// String returns the header as a string.
func (h *PartHeader) String() string {
	return string(h.buf[:h.n])
}

func (h *PartHeader) append(p []byte) {
	h.n += copy(h.buf[h.n:], p)
}

func (h *PartHeader) appendString(s string) {
	h.n += copy(h.buf[h.n:], s)
}

// appendPadded appends v zero-padded to width characters, sign included.
func appendPadded(dst []byte, v int64, width int) []byte {
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
		dst = append(dst, '-')
		width--
	}

	var digits [20]byte
	d := strconv.AppendUint(digits[:0], u, 10)
	for i := len(d); i < width; i++ {
		dst = append(dst, '0')
	}
	return append(dst, d...)
}
