// Package modem manages the serial connection to a Swarm M138 satellite
// modem: opening and closing the port at the fixed line parameters,
// framing and transmitting command payloads, reassembling received bytes
// into lines, and watching for the device disappearing from the OS
// enumeration.
//
// A Conn is either Closed or Open; there is no half-open state. All
// transport reads are owned by a single reader goroutine and delivered in
// arrival order on the Lines channel. A periodic availability monitor
// runs only while the connection is open and forces it closed when the
// device vanishes.
package modem

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"swarm-terminal/pkg/frame"
)

// State is the connection state of a Conn.
type State int

const (
	StateClosed State = iota
	StateOpen
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// EventKind identifies an asynchronous connection event.
type EventKind int

const (
	// EventPortLost reports that the open device disappeared from the
	// OS enumeration. The connection has been forced closed.
	EventPortLost EventKind = iota
	// EventReadError reports a transport read failure while the
	// connection was open.
	EventReadError
)

// Event is an asynchronous notification from a Conn, delivered on the
// Events channel.
type Event struct {
	Kind EventKind
	Port string
	Err  error
}

// Config configures a Conn. The zero value selects the real serial
// dialer, the OS enumeration and the 1-second monitor cadence.
type Config struct {
	// Dialer opens the transport. Defaults to SerialDialer.
	Dialer Dialer
	// Enumerator supplies the live device list. Defaults to the OS
	// enumeration.
	Enumerator Enumerator
	// MonitorInterval is the availability-monitor cadence.
	// Defaults to one second.
	MonitorInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.Dialer == nil {
		c.Dialer = SerialDialer{}
	}
	if c.Enumerator == nil {
		c.Enumerator = OSEnumerator{}
	}
	if c.MonitorInterval == 0 {
		c.MonitorInterval = time.Second
	}
}

// Conn manages the open/closed lifecycle of one serial connection and
// mediates all reads and writes through it. It exclusively owns the live
// transport while open.
type Conn struct {
	dialer   Dialer
	enum     Enumerator
	interval time.Duration

	lines  chan string
	events chan Event

	mu        sync.Mutex
	state     State
	port      string
	transport Transport
	// done is closed on every transition into StateClosed. It stops the
	// monitor and unblocks the reader for the current session.
	done chan struct{}
}

// New creates a closed Conn with the given configuration.
func New(cfg Config) *Conn {
	cfg.setDefaults()
	return &Conn{
		dialer:   cfg.Dialer,
		enum:     cfg.Enumerator,
		interval: cfg.MonitorInterval,
		lines:    make(chan string, 64),
		events:   make(chan Event, 8),
	}
}

// Lines returns the channel of complete received lines, in arrival order
// with the terminator stripped. The channel persists across reopens.
func (c *Conn) Lines() <-chan string {
	return c.lines
}

// Events returns the channel of asynchronous connection events. Events
// are dropped rather than blocking when the consumer falls behind.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// State returns the current connection state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Port returns the system location of the device the connection was most
// recently opened on.
func (c *Conn) Port() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// Open opens the device at systemLocation and starts the reader and the
// availability monitor.
//
// Opening while already open returns ErrAlreadyOpen without touching the
// existing connection. A device missing from the current enumeration
// returns ErrPortUnavailable. On any failure the state remains Closed, no
// handle is retained and the monitor is not started.
func (c *Conn) Open(systemLocation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateOpen {
		return ErrAlreadyOpen
	}
	if !c.present(systemLocation) {
		return fmt.Errorf("%w: %s", ErrPortUnavailable, systemLocation)
	}

	transport, err := c.dialer.Dial(systemLocation)
	if err != nil {
		return fmt.Errorf("open %s: %w", systemLocation, err)
	}

	c.transport = transport
	c.port = systemLocation
	c.state = StateOpen
	c.done = make(chan struct{})

	go c.readLines(transport, systemLocation, c.done)
	go c.monitor(systemLocation, c.done)

	return nil
}

// Send frames payload and writes it to the open port. On success it
// returns the transmitted frame as text, for display and logging by the
// caller.
//
// Send fails with ErrNotOpen on a closed connection. The device's
// presence in the enumeration is re-checked on every call: if it has
// vanished, Send returns ErrPortLost and the connection is forced closed.
// A transport write failure returns ErrWriteFailed but leaves the
// connection open.
func (c *Conn) Send(payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateOpen {
		return "", ErrNotOpen
	}
	// Fresh presence check on every call, never cached. The caller gets
	// ErrPortLost directly; no event is emitted for this path.
	if !c.present(c.port) {
		c.teardownLocked()
		return "", ErrPortLost
	}

	data, err := frame.Encode(payload)
	if err != nil {
		return "", err
	}
	if _, err := c.transport.Write(data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return string(data), nil
}

// Close releases the open port and stops the monitor. Closing a closed
// connection returns ErrAlreadyClosed. A failing release is reported but
// the state is still forced to Closed: the manager never believes a
// broken handle is usable.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return ErrAlreadyClosed
	}
	return c.teardownLocked()
}

// teardownLocked forces the connection into StateClosed, stopping the
// monitor and reader and releasing the transport best-effort. The caller
// must hold c.mu with state == StateOpen.
func (c *Conn) teardownLocked() error {
	close(c.done)
	err := c.transport.Close()
	c.transport = nil
	c.state = StateClosed
	if err != nil {
		return fmt.Errorf("close %s: %w", c.port, err)
	}
	return nil
}

// present reports whether systemLocation is in the live enumeration.
// An enumeration failure counts as absent.
func (c *Conn) present(systemLocation string) bool {
	locations, err := c.enum.SystemLocations()
	if err != nil {
		return false
	}
	for _, loc := range locations {
		if loc == systemLocation {
			return true
		}
	}
	return false
}

// readLines owns all reads from the transport for one session. Complete
// lines are delivered in arrival order on the lines channel; a partial
// line is carried across reads and discarded when the session ends.
func (c *Conn) readLines(transport Transport, port string, done chan struct{}) {
	reader := newLineReader(transport)

	for {
		line, err := reader.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-done:
					// Read failure caused by our own close. Not an event.
				default:
					c.emit(Event{Kind: EventReadError, Port: port, Err: err})
				}
			}
			return
		}

		select {
		case c.lines <- line:
		case <-done:
			return
		}
	}
}

// monitor re-checks the device's presence once per interval while the
// session is open. When the device vanishes it forces the connection
// closed, emits EventPortLost and stops.
func (c *Conn) monitor(port string, done chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if c.present(port) {
				continue
			}
			c.mu.Lock()
			select {
			case <-done:
				// A close raced with this probe. The session is already
				// over and the port may have been reopened since; that
				// connection is not ours to tear down.
				c.mu.Unlock()
				return
			default:
			}
			if c.state == StateOpen {
				c.emit(Event{Kind: EventPortLost, Port: port, Err: ErrPortLost})
				c.teardownLocked()
			}
			c.mu.Unlock()
			return
		}
	}
}

func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Consumer fell behind. Dropping beats blocking the session.
	}
}
