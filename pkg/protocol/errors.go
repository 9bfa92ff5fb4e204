package protocol

import (
	"errors"
	"fmt"
)

// ErrZeroWrite is returned when a transport write accepted no bytes.
var ErrZeroWrite = errors.New("protocol: zero-byte write")

// Step names one transport write of the protocol.
type Step string

const (
	StepHandshake Step = "handshake"
	StepBoundary  Step = "boundary"
	StepHeader    Step = "header"
	StepPayload   Step = "payload"
)

// WriteError reports which write failed and how many bytes it accepted.
type WriteError struct {
	Step Step
	N    int
	Err  error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("protocol: %s write failed after %d bytes: %v", e.Step, e.N, e.Err)
}

// Unwrap returns the underlying error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
