package modem

import "errors"

var (
	// ErrAlreadyOpen is returned by Open when the connection is already
	// open. The existing connection is left untouched; opening is never
	// a reopen.
	ErrAlreadyOpen = errors.New("port already open")

	// ErrAlreadyClosed is returned by Close when the connection is
	// already closed.
	ErrAlreadyClosed = errors.New("port already closed")

	// ErrNotOpen is returned by Send when the connection is closed.
	ErrNotOpen = errors.New("port not open")

	// ErrPortUnavailable is returned by Open when the requested device
	// is not present in the current OS enumeration.
	ErrPortUnavailable = errors.New("port not available")

	// ErrPortLost is returned when the open device has disappeared from
	// the OS enumeration. The connection is forced closed; the caller
	// must reopen explicitly.
	ErrPortLost = errors.New("port no longer available")

	// ErrWriteFailed is returned by Send when the transport write fails
	// while the device is still enumerated. The connection stays open:
	// a transient write hiccup does not tear down an otherwise valid
	// session.
	ErrWriteFailed = errors.New("write to port failed")
)
