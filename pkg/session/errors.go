package session

import "errors"

var (
	// ErrConnect is returned when the transport could not be established.
	ErrConnect = errors.New("session: connect failed")

	// ErrHandshake is returned when the handshake token could not be sent.
	ErrHandshake = errors.New("session: handshake failed")
)
