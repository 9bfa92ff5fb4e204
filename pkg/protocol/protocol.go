// Package protocol defines the camera push stream wire format.
//
// A session starts with a fixed 32-byte handshake token, followed by an
// unbounded sequence of parts. Every part is boundary-prefixed:
//
//	\r\n--<Boundary>\r\n
//	Content-Type: image/jpeg\r\n
//	Content-Length: <N>\r\n
//	X-Timestamp: <sec>.<usec>\r\n
//	\r\n
//	<N bytes of JPEG>
//
// No closing boundary is ever written; the next part's boundary ends the
// previous one, as in multipart/x-mixed-replace.
package protocol

import (
	"io"
)

// Boundary is the multipart boundary token.
const Boundary = "123456789000000000000987654321"

// ContentType is the MIME type receivers advertise for the relayed stream.
// It is not written by the sender.
const ContentType = "multipart/x-mixed-replace;boundary=" + Boundary

// BoundaryMarker precedes every part on the wire.
const BoundaryMarker = "\r\n--" + Boundary + "\r\n"

// HandshakeSize is the length of the handshake token.
const HandshakeSize = 32

// Handshake is sent once, as a single write, right after connecting.
var Handshake = [HandshakeSize]byte{
	0xa6, 0xf6, 0xa0, 0x7b, 0xe9, 0xb6, 0xd0, 0xe5,
	0x73, 0x4e, 0x06, 0x59, 0xcf, 0xc7, 0xa3, 0xe9,
	0xda, 0xca, 0xb5, 0x82, 0xf9, 0x11, 0xfe, 0xc7,
	0x7f, 0xc0, 0xc4, 0x16, 0x57, 0x7d, 0xea, 0x06,
}

var boundaryMarker = []byte(BoundaryMarker)

// WriteHandshake writes the handshake token in one write.
func WriteHandshake(w io.Writer) error {
	_, err := writeStep(w, StepHandshake, Handshake[:])
	return err
}
