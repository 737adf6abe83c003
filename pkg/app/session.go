// Package app orchestrates one terminal session: it owns the modem
// connection and the session logger, relays traffic to the display and
// the log in arrival order, and maps discrete user actions onto the
// underlying operations.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"swarm-terminal/pkg/commands"
	"swarm-terminal/pkg/frame"
	"swarm-terminal/pkg/logging"
	"swarm-terminal/pkg/modem"
)

// Status messages mirror the wording the GUI tool showed in its
// information/warnings/errors pane.
const (
	msgPortOpen          = "Port is now open"
	msgPortClosed        = "Port is now closed"
	msgPortAlreadyOpen   = "Port Is Already Open!"
	msgPortAlreadyClosed = "Port Is Already Closed!"
	msgPortUnavailable   = "Error: Port No Longer Available!"
	msgPortNotOpen       = "Error: Port Is Not Open!"
	msgPortOpenFailed    = "Error: Could Not Open The Port!"
	msgPortCloseFailed   = "Error: Could Not Close The Port!"
	msgPortWriteFailed   = "Error: Could Not Write To The Port!"
	msgEmptyMessage      = "Warning: Nothing To Do! Message Is Empty!"
	msgFileOpen          = "File open"
	msgFileClosed        = "File closed"
	msgFileAlreadyOpen   = "File Is Already Open!"
	msgFileAlreadyClosed = "File Is Already Closed!"
	msgFileOpenFailed    = "Error: Could Not Open File!"
	msgFileWriteFailed   = "Error: Could Not Write To File!"
)

// Action identifies one user-triggered session operation.
type Action string

const (
	ActionOpenPort     Action = "open-port"
	ActionClosePort    Action = "close-port"
	ActionSend         Action = "send"
	ActionSendCanned   Action = "send-canned"
	ActionStartLogging Action = "start-logging"
	ActionStopLogging  Action = "stop-logging"
)

// ErrUnknownAction is returned by Dispatch for an action not in the
// dispatch table.
var ErrUnknownAction = errors.New("unknown action")

// Sinks receive session output. Display gets every transmitted and
// received line; Status gets information/warning/error messages. Both are
// invoked from the session's dispatch loop and from the goroutine calling
// a session operation; implementations must tolerate that.
type Sinks struct {
	Display func(line string)
	Status  func(msg string)
}

// Session wires one modem connection to one session logger and a pair of
// output sinks. The connection handle and the log handle are owned by
// their components; the session only relays lines between them.
type Session struct {
	conn     *modem.Conn
	logger   *logging.Logger
	sinks    Sinks
	handlers map[Action]func(arg string) error
}

// NewSession creates a session around conn. Nil sink functions are
// replaced with no-ops.
func NewSession(conn *modem.Conn, sinks Sinks) *Session {
	if sinks.Display == nil {
		sinks.Display = func(string) {}
	}
	if sinks.Status == nil {
		sinks.Status = func(string) {}
	}

	s := &Session{
		conn:  conn,
		sinks: sinks,
	}
	s.logger = logging.New(func(err error) {
		if errors.Is(err, logging.ErrWriteFailed) {
			s.sinks.Status(msgFileWriteFailed)
		} else {
			s.sinks.Status("Error: " + err.Error())
		}
	})
	s.handlers = map[Action]func(string) error{
		ActionOpenPort:     s.OpenPort,
		ActionClosePort:    func(string) error { return s.ClosePort() },
		ActionSend:         s.Send,
		ActionSendCanned:   s.SendCanned,
		ActionStartLogging: s.StartLogging,
		ActionStopLogging:  func(string) error { return s.StopLogging() },
	}
	return s
}

// Dispatch routes an action to its operation. The argument is the port
// for ActionOpenPort, the payload for ActionSend, the command id for
// ActionSendCanned and the file path for ActionStartLogging; other
// actions ignore it.
func (s *Session) Dispatch(action Action, arg string) error {
	handler, ok := s.handlers[action]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return handler(arg)
}

// Run relays received lines and connection events until ctx is done.
// Lines reach the display and the log in strict arrival order.
func (s *Session) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case line := <-s.conn.Lines():
			s.logger.Write(line + "\n")
			s.sinks.Display(line)
		case ev := <-s.conn.Events():
			switch ev.Kind {
			case modem.EventPortLost:
				s.sinks.Status(msgPortUnavailable)
			case modem.EventReadError:
				s.sinks.Status("Error: " + ev.Err.Error())
			}
		}
	}
}

// OpenPort opens the device at systemLocation.
func (s *Session) OpenPort(systemLocation string) error {
	err := s.conn.Open(systemLocation)
	switch {
	case err == nil:
		s.sinks.Status(msgPortOpen)
	case errors.Is(err, modem.ErrAlreadyOpen):
		s.sinks.Status(msgPortAlreadyOpen)
	case errors.Is(err, modem.ErrPortUnavailable):
		s.sinks.Status(msgPortUnavailable)
	default:
		s.sinks.Status(msgPortOpenFailed)
	}
	return err
}

// ClosePort closes the open device.
func (s *Session) ClosePort() error {
	err := s.conn.Close()
	switch {
	case err == nil:
		s.sinks.Status(msgPortClosed)
	case errors.Is(err, modem.ErrAlreadyClosed):
		s.sinks.Status(msgPortAlreadyClosed)
	default:
		s.sinks.Status(msgPortCloseFailed)
	}
	return err
}

// Send frames payload, transmits it, and mirrors the transmitted frame to
// the display and the log. A log failure never fails the send.
func (s *Session) Send(payload string) error {
	frameText, err := s.conn.Send(payload)
	if err != nil {
		switch {
		case errors.Is(err, frame.ErrEmptyPayload):
			s.sinks.Status(msgEmptyMessage)
		case errors.Is(err, modem.ErrNotOpen):
			s.sinks.Status(msgPortNotOpen)
		case errors.Is(err, modem.ErrPortLost):
			s.sinks.Status(msgPortUnavailable)
		case errors.Is(err, modem.ErrWriteFailed):
			s.sinks.Status(msgPortWriteFailed)
		default:
			s.sinks.Status("Error: " + err.Error())
		}
		return err
	}

	s.sinks.Display(strings.TrimSuffix(frameText, "\n"))
	s.logger.Write(frameText)
	return nil
}

// SendCanned sends a predefined command by its identifier.
func (s *Session) SendCanned(id string) error {
	cmd, ok := commands.Lookup(id)
	if !ok {
		s.sinks.Status("Error: Unknown Command: " + id)
		return fmt.Errorf("unknown predefined command %q", id)
	}
	return s.Send(cmd.Payload)
}

// StartLogging opens path for append and activates traffic logging.
func (s *Session) StartLogging(path string) error {
	err := s.logger.Start(path)
	switch {
	case err == nil:
		s.sinks.Status(msgFileOpen)
	case errors.Is(err, logging.ErrAlreadyLogging):
		s.sinks.Status(msgFileAlreadyOpen)
	default:
		s.sinks.Status(msgFileOpenFailed)
	}
	return err
}

// StopLogging closes the log file.
func (s *Session) StopLogging() error {
	err := s.logger.Stop()
	switch {
	case err == nil:
		s.sinks.Status(msgFileClosed)
	case errors.Is(err, logging.ErrNotLogging):
		s.sinks.Status(msgFileAlreadyClosed)
	default:
		// Best-effort close failed; logging is inactive regardless.
		s.sinks.Status(msgFileClosed)
	}
	return err
}

// PortState returns the connection state for status display.
func (s *Session) PortState() modem.State {
	return s.conn.State()
}

// Port returns the system location of the most recently opened device.
func (s *Session) Port() string {
	return s.conn.Port()
}

// LoggingActive reports whether traffic logging is active.
func (s *Session) LoggingActive() bool {
	return s.logger.Active()
}

// Shutdown releases the port and the log file unconditionally. Safe to
// call whatever state the session is in.
func (s *Session) Shutdown() {
	if s.conn.State() == modem.StateOpen {
		s.conn.Close()
	}
	if s.logger.Active() {
		s.logger.Stop()
	}
}
