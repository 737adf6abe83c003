package modem

import "io"

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// Transport is an established, bidirectional byte stream to the modem.
//
// A Transport is assumed to be already connected and ready for use.
// Typical implementations are serial ports opened at the fixed Swarm line
// parameters, or in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to the device at the given system location.
//
// Dialer abstracts how the connection is created (serial port, emulator,
// test double). Implementations must not leak a handle on failure: when
// Dial returns an error, no Transport is held open.
type Dialer interface {
	Dial(systemLocation string) (Transport, error)
}

// Enumerator reports the system locations of the serial devices currently
// visible to the OS. It is consulted before every open and send, and on
// every availability-monitor tick: a port identifier is only usable while
// it still appears in the enumeration.
type Enumerator interface {
	SystemLocations() ([]string, error)
}
