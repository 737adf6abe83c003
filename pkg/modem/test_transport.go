package modem

import (
	"io"
	"sync"
)

// TestTransport is a test helper that simulates a blocking transport
// using channels. The Conn's reader goroutine continuously reads from the
// transport, so reads must block until data is available, like a real
// serial port would.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	writes   [][]byte
	writeErr error
	closed   bool

	// pending holds the unread tail of the current chunk. Only the single
	// reader goroutine touches it.
	pending []byte
}

// NewTestTransport creates a new test transport. Exported for use in
// tests of packages built on top of Conn.
func NewTestTransport() *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 10),
	}
}

func (t *TestTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.writeErr != nil {
		return 0, t.writeErr
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	t.writes = append(t.writes, buf)
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		data, ok := <-t.readChan
		if !ok {
			return 0, io.EOF
		}
		t.pending = data
	}
	// A chunk larger than p is delivered across successive reads, the way
	// a real port drains its buffer.
	n := copy(p, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// SendData queues data to be read by the transport, simulating bytes
// arriving from the modem.
func (t *TestTransport) SendData(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// Writes returns a copy of every buffer written to the transport so far.
func (t *TestTransport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// FailWrites makes every subsequent Write return err.
func (t *TestTransport) FailWrites(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeErr = err
}

// Closed reports whether Close has been called.
func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
