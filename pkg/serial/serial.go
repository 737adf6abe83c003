// Package serial provides serial device enumeration and port opening for
// the Swarm M138 terminal.
//
// The modem always talks 115200 8N1, so unlike a general serial terminal
// there is nothing to configure: callers pick a device by its system
// location and the line parameters are fixed.
package serial

import (
	"fmt"
	"path/filepath"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Fixed line parameters for the Swarm M138. Not user-configurable.
const (
	BaudRate = 115200
	DataBits = 8
)

// PortInfo describes one enumerated serial device. SystemLocation is the
// stable identifier used for opening; Name and Description are for
// display only.
type PortInfo struct {
	Description    string `json:"description,omitempty"`
	Name           string `json:"name"`
	SystemLocation string `json:"system_location"`
	IsUSB          bool   `json:"is_usb,omitempty"`
	VID            string `json:"vid,omitempty"`
	PID            string `json:"pid,omitempty"`
	SerialNumber   string `json:"serial_number,omitempty"`
}

// Label returns the display label for a port, mirroring how the device
// picker presents it: "<description> (<name>)" when a description is
// known, the bare name otherwise.
func (p PortInfo) Label() string {
	if p.Description != "" {
		return fmt.Sprintf("%s (%s)", p.Description, p.Name)
	}
	return p.Name
}

// ListPorts returns the serial devices currently enumerated by the OS.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		infos = append(infos, PortInfo{
			Description:    d.Product,
			Name:           filepath.Base(d.Name),
			SystemLocation: d.Name,
			IsUSB:          d.IsUSB,
			VID:            d.VID,
			PID:            d.PID,
			SerialNumber:   d.SerialNumber,
		})
	}
	return infos, nil
}

// SystemLocations returns the system locations of all currently
// enumerated serial devices.
func SystemLocations() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return ports, nil
}

// IsPortAvailable reports whether the device named by systemLocation is
// present in the current enumeration. An enumeration failure counts as
// not available.
func IsPortAvailable(systemLocation string) bool {
	ports, err := serial.GetPortsList()
	if err != nil {
		return false
	}
	for _, p := range ports {
		if p == systemLocation {
			return true
		}
	}
	return false
}

// Open opens the device at systemLocation with the fixed Swarm line
// parameters (115200 baud, 8 data bits, no parity, one stop bit).
func Open(systemLocation string) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(systemLocation, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", systemLocation, err)
	}
	return port, nil
}
