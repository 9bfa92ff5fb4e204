package stream

import "errors"

// Sentinel errors for the pipeline stages. Capture and encode failures are
// retried inside Run; only ErrWrite is ever returned by it.
var (
	// ErrCapture marks a frame source failure.
	ErrCapture = errors.New("stream: capture failed")

	// ErrEncode marks a JPEG compression failure.
	ErrEncode = errors.New("stream: encode failed")

	// ErrWrite marks a transport write failure. It ends the session.
	ErrWrite = errors.New("stream: write failed")
)
