package modem

import (
	swarmserial "swarm-terminal/pkg/serial"
)

// SerialDialer opens real serial ports at the fixed Swarm M138 line
// parameters (115200 8N1).
type SerialDialer struct{}

// Dial opens the serial device at systemLocation.
func (SerialDialer) Dial(systemLocation string) (Transport, error) {
	port, err := swarmserial.Open(systemLocation)
	if err != nil {
		return nil, err
	}
	return port, nil
}

// OSEnumerator reports the serial devices currently enumerated by the OS.
type OSEnumerator struct{}

// SystemLocations returns the system locations of all enumerated devices.
func (OSEnumerator) SystemLocations() ([]string, error) {
	return swarmserial.SystemLocations()
}

var (
	_ Dialer     = SerialDialer{}
	_ Enumerator = OSEnumerator{}
)
