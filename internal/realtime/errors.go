package realtime

import "errors"

// Handshake and delivery errors.
var (
	// ErrMissingCredential indicates the upgrade request carried no bearer token.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential covers every token verification failure.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNotAuthenticated indicates a request arrived on a session that is not active.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConnectionClosed is returned when sending on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrSendBufferFull is returned when a slow client has not drained its queue.
	ErrSendBufferFull = errors.New("send buffer full")
)
