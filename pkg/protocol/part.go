package protocol

import (
	"io"

	"github.com/teslashibe/go-camstream/pkg/frame"
)

// Part is one framed frame: boundary, header, and payload.
type Part struct {
	Header  PartHeader
	Payload []byte
}

// NewPart frames payload captured at ts. The payload is not copied.
func NewPart(payload []byte, ts frame.Timestamp) Part {
	return Part{
		Header:  FormatHeader(len(payload), ts),
		Payload: payload,
	}
}

// WriteTo writes the boundary, the header, and the payload as three
// separate writes. A write that fails or accepts zero bytes stops the
// sequence and is reported as a *WriteError.
func (p *Part) WriteTo(w io.Writer) (int64, error) {
	var total int64

	n, err := writeStep(w, StepBoundary, boundaryMarker)
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeStep(w, StepHeader, p.Header.Bytes())
	total += int64(n)
	if err != nil {
		return total, err
	}

	n, err = writeStep(w, StepPayload, p.Payload)
	total += int64(n)
	return total, err
}

// writeStep performs one transport write.
func writeStep(w io.Writer, step Step, b []byte) (int, error) {
	n, err := w.Write(b)
	if err != nil {
		return n, &WriteError{Step: step, N: n, Err: err}
	}
	if n <= 0 {
		return n, &WriteError{Step: step, N: n, Err: ErrZeroWrite}
	}
	return n, nil
}
