// Package frame builds the checksummed command frames understood by the
// Swarm M138 modem.
//
// A frame wraps a caller-supplied payload in NMEA-style framing:
//
//	'$' + payload + '*' + checksum as two uppercase hex digits + '\n'
//
// The payload is opaque to this package; no semantic validation is
// performed beyond rejecting empty input. There is no decode counterpart:
// inbound traffic is treated as plain display text and is never
// re-validated against this framing.
package frame

import (
	"errors"
	"fmt"
)

// ErrEmptyPayload is returned by Encode when the payload is empty.
// An empty payload has nothing to transmit and would produce a frame
// the modem rejects.
var ErrEmptyPayload = errors.New("empty payload")

// Checksum computes the 8-bit running exclusive-or of every byte of
// payload. It is defined as 0 for empty input. The checksum covers the
// payload only, never the framing characters.
func Checksum(payload string) byte {
	var sum byte
	for i := 0; i < len(payload); i++ {
		sum ^= payload[i]
	}
	return sum
}

// Encode returns the complete wire frame for payload. It fails with
// ErrEmptyPayload when payload is empty; any non-empty payload encodes
// deterministically.
func Encode(payload string) ([]byte, error) {
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	return []byte(fmt.Sprintf("$%s*%02X\n", payload, Checksum(payload))), nil
}
