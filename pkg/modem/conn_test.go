package modem_test

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"swarm-terminal/pkg/frame"
	"swarm-terminal/pkg/modem"
)

const testPort = "/dev/ttyUSB0"

// fakeEnumerator is a mutable device list, so tests can make the port
// vanish mid-session.
type fakeEnumerator struct {
	mu    sync.Mutex
	ports []string
}

func (f *fakeEnumerator) SystemLocations() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ports))
	copy(out, f.ports)
	return out, nil
}

func (f *fakeEnumerator) set(ports ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ports = ports
}

// fakeDialer hands out a prepared transport.
type fakeDialer struct {
	transport modem.Transport
	err       error
}

func (d fakeDialer) Dial(string) (modem.Transport, error) {
	return d.transport, d.err
}

func newTestConn(t *testing.T) (*modem.Conn, *modem.TestTransport, *fakeEnumerator) {
	t.Helper()
	transport := modem.NewTestTransport()
	enum := &fakeEnumerator{}
	enum.set(testPort)
	conn := modem.New(modem.Config{
		Dialer:          fakeDialer{transport: transport},
		Enumerator:      enum,
		MonitorInterval: 5 * time.Millisecond,
	})
	return conn, transport, enum
}

func waitForEvent(t *testing.T, conn *modem.Conn) modem.Event {
	t.Helper()
	select {
	case ev := <-conn.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection event")
		return modem.Event{}
	}
}

func waitForLine(t *testing.T, conn *modem.Conn) string {
	t.Helper()
	select {
	case line := <-conn.Lines():
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for received line")
		return ""
	}
}

func TestConn_Open(t *testing.T) {
	t.Run("opens an enumerated port", func(t *testing.T) {
		conn, _, _ := newTestConn(t)

		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer conn.Close()

		if conn.State() != modem.StateOpen {
			t.Errorf("state = %v, want open", conn.State())
		}
		if conn.Port() != testPort {
			t.Errorf("Port() = %q, want %q", conn.Port(), testPort)
		}
	})

	t.Run("already open is a no-op", func(t *testing.T) {
		conn, _, _ := newTestConn(t)

		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer conn.Close()

		if err := conn.Open(testPort); !errors.Is(err, modem.ErrAlreadyOpen) {
			t.Errorf("second Open() error = %v, want ErrAlreadyOpen", err)
		}
		if conn.State() != modem.StateOpen {
			t.Errorf("state = %v, want open", conn.State())
		}
	})

	t.Run("port absent from enumeration", func(t *testing.T) {
		conn, _, enum := newTestConn(t)
		enum.set() // nothing attached

		err := conn.Open(testPort)
		if !errors.Is(err, modem.ErrPortUnavailable) {
			t.Errorf("Open() error = %v, want ErrPortUnavailable", err)
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed", conn.State())
		}
	})

	t.Run("dial failure leaves connection closed", func(t *testing.T) {
		enum := &fakeEnumerator{}
		enum.set(testPort)
		dialErr := errors.New("device busy")
		conn := modem.New(modem.Config{
			Dialer:          fakeDialer{err: dialErr},
			Enumerator:      enum,
			MonitorInterval: 5 * time.Millisecond,
		})

		err := conn.Open(testPort)
		if !errors.Is(err, dialErr) {
			t.Errorf("Open() error = %v, want wrapped %v", err, dialErr)
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed", conn.State())
		}
	})
}

func TestConn_Send(t *testing.T) {
	t.Run("writes the frame and returns it as text", func(t *testing.T) {
		conn, transport, _ := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer conn.Close()

		sent, err := conn.Send("CS")
		if err != nil {
			t.Fatalf("Send() error: %v", err)
		}
		if sent != "$CS*10\n" {
			t.Errorf("Send() returned %q, want %q", sent, "$CS*10\n")
		}

		writes := transport.Writes()
		if len(writes) != 1 || string(writes[0]) != "$CS*10\n" {
			t.Errorf("transport writes = %q, want one write of %q", writes, "$CS*10\n")
		}
	})

	t.Run("closed connection", func(t *testing.T) {
		conn, _, _ := newTestConn(t)

		if _, err := conn.Send("CS"); !errors.Is(err, modem.ErrNotOpen) {
			t.Errorf("Send() error = %v, want ErrNotOpen", err)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		conn, transport, _ := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer conn.Close()

		if _, err := conn.Send(""); !errors.Is(err, frame.ErrEmptyPayload) {
			t.Errorf("Send(\"\") error = %v, want ErrEmptyPayload", err)
		}
		if len(transport.Writes()) != 0 {
			t.Error("nothing should be written for an empty payload")
		}
	})

	t.Run("port vanished forces close", func(t *testing.T) {
		// Long monitor interval so this exercises Send's own presence
		// check, not the monitor.
		transport := modem.NewTestTransport()
		enum := &fakeEnumerator{}
		enum.set(testPort)
		conn := modem.New(modem.Config{
			Dialer:          fakeDialer{transport: transport},
			Enumerator:      enum,
			MonitorInterval: time.Hour,
		})
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}

		enum.set() // unplug

		if _, err := conn.Send("CS"); !errors.Is(err, modem.ErrPortLost) {
			t.Errorf("Send() error = %v, want ErrPortLost", err)
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed", conn.State())
		}
		if !transport.Closed() {
			t.Error("transport should have been released")
		}

		// The caller already got ErrPortLost; no duplicate event fires.
		select {
		case ev := <-conn.Events():
			t.Errorf("unexpected event after Send port loss: %+v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("write failure leaves connection open", func(t *testing.T) {
		conn, transport, _ := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer conn.Close()

		transport.FailWrites(errors.New("input/output error"))

		_, err := conn.Send("CS")
		if !errors.Is(err, modem.ErrWriteFailed) {
			t.Errorf("Send() error = %v, want ErrWriteFailed", err)
		}
		if conn.State() != modem.StateOpen {
			t.Errorf("state = %v, want open after a write failure", conn.State())
		}
	})
}

func TestConn_Close(t *testing.T) {
	t.Run("already closed", func(t *testing.T) {
		conn, _, _ := newTestConn(t)

		if err := conn.Close(); !errors.Is(err, modem.ErrAlreadyClosed) {
			t.Errorf("Close() error = %v, want ErrAlreadyClosed", err)
		}
	})

	t.Run("releases the transport", func(t *testing.T) {
		conn, transport, _ := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}

		if err := conn.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if !transport.Closed() {
			t.Error("transport should be closed")
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed", conn.State())
		}
	})

	t.Run("release failure still forces closed state", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		transport := modem.NewMockTransport(ctrl)
		transport.EXPECT().Read(gomock.Any()).Return(0, io.EOF).AnyTimes()
		transport.EXPECT().Close().Return(errors.New("device wedged"))

		enum := &fakeEnumerator{}
		enum.set(testPort)
		conn := modem.New(modem.Config{
			Dialer:          fakeDialer{transport: transport},
			Enumerator:      enum,
			MonitorInterval: time.Hour,
		})

		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}

		if err := conn.Close(); err == nil {
			t.Error("Close() should report the release failure")
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed even after a failing release", conn.State())
		}

		// Let the reader goroutine drain its EOF before the mock
		// controller verifies expectations.
		time.Sleep(20 * time.Millisecond)
	})

	t.Run("reopen after close", func(t *testing.T) {
		conn, _, _ := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		if err := conn.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}

		// A fresh transport is dialed on reopen; the fake dialer hands
		// out the same (now closed) TestTransport, which is fine for
		// state-machine purposes.
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("reopen error: %v", err)
		}
		if conn.State() != modem.StateOpen {
			t.Errorf("state = %v, want open", conn.State())
		}
	})
}

func TestConn_Monitor(t *testing.T) {
	t.Run("forces close when the port vanishes", func(t *testing.T) {
		conn, transport, enum := newTestConn(t)
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}

		enum.set() // unplug; next tick should notice

		ev := waitForEvent(t, conn)
		if ev.Kind != modem.EventPortLost {
			t.Errorf("event kind = %v, want EventPortLost", ev.Kind)
		}
		if !errors.Is(ev.Err, modem.ErrPortLost) {
			t.Errorf("event error = %v, want ErrPortLost", ev.Err)
		}
		if conn.State() != modem.StateClosed {
			t.Errorf("state = %v, want closed", conn.State())
		}
		if !transport.Closed() {
			t.Error("transport should have been released")
		}

		// The monitor stops itself: no further port-lost events fire.
		select {
		case ev := <-conn.Events():
			t.Errorf("unexpected extra event after port loss: %+v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("does not fire while closed", func(t *testing.T) {
		conn, _, enum := newTestConn(t)
		enum.set() // port absent, but connection never opened

		select {
		case ev := <-conn.Events():
			t.Errorf("unexpected event on a closed connection: %+v", ev)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("stale monitor leaves a reopened connection alone", func(t *testing.T) {
		// A monitor tick stalls inside the presence probe across a
		// close-and-reopen. When it resumes with an absent-port result it
		// belongs to a dead session and must not touch the new one.
		enum := &gatedEnumerator{
			ports:   []string{testPort},
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		transport := modem.NewTestTransport()
		conn := modem.New(modem.Config{
			Dialer:          fakeDialer{transport: transport},
			Enumerator:      enum,
			MonitorInterval: 5 * time.Millisecond,
		})

		if err := conn.Open(testPort); err != nil {
			t.Fatalf("Open() error: %v", err)
		}

		enum.stallNext()
		select {
		case <-enum.entered:
		case <-time.After(2 * time.Second):
			t.Fatal("monitor never reached the presence probe")
		}

		// Close and reopen while the first session's monitor is wedged
		// mid-probe.
		if err := conn.Close(); err != nil {
			t.Fatalf("Close() error: %v", err)
		}
		if err := conn.Open(testPort); err != nil {
			t.Fatalf("reopen error: %v", err)
		}

		close(enum.release)

		select {
		case ev := <-conn.Events():
			t.Errorf("stale monitor emitted %+v against the new session", ev)
		case <-time.After(50 * time.Millisecond):
		}
		if conn.State() != modem.StateOpen {
			t.Error("stale monitor tore down the reopened connection")
		}

		conn.Close()
	})
}

// gatedEnumerator can wedge a single SystemLocations call mid-flight. The
// wedged call reports an empty device list when released; every other
// call reports the configured ports.
type gatedEnumerator struct {
	mu      sync.Mutex
	ports   []string
	stall   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedEnumerator) SystemLocations() ([]string, error) {
	g.mu.Lock()
	if g.stall {
		g.stall = false
		g.mu.Unlock()
		g.entered <- struct{}{}
		<-g.release
		return nil, nil
	}
	out := append([]string(nil), g.ports...)
	g.mu.Unlock()
	return out, nil
}

func (g *gatedEnumerator) stallNext() {
	g.mu.Lock()
	g.stall = true
	g.mu.Unlock()
}

func TestConn_ReceivedLines(t *testing.T) {
	conn, transport, _ := newTestConn(t)
	if err := conn.Open(testPort); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer conn.Close()

	// Chunk boundaries must not split or merge lines.
	transport.SendData("AB\r\nCD")
	if got := waitForLine(t, conn); got != "AB" {
		t.Errorf("first line = %q, want %q", got, "AB")
	}

	transport.SendData("EF\r\n")
	if got := waitForLine(t, conn); got != "CDEF" {
		t.Errorf("second line = %q, want %q", got, "CDEF")
	}

	// Order is preserved within a burst.
	transport.SendData("$DT 20230304*51\r\n$GN 12.3,45.6*7A\r\n")
	if got := waitForLine(t, conn); got != "$DT 20230304*51" {
		t.Errorf("third line = %q, want %q", got, "$DT 20230304*51")
	}
	if got := waitForLine(t, conn); got != "$GN 12.3,45.6*7A" {
		t.Errorf("fourth line = %q, want %q", got, "$GN 12.3,45.6*7A")
	}
}

func TestConn_ReceivedOversizedLine(t *testing.T) {
	// A line far beyond any internal buffer must be delivered intact, and
	// the receive path must survive it: later lines still arrive and the
	// connection stays open.
	conn, transport, _ := newTestConn(t)
	if err := conn.Open(testPort); err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer conn.Close()

	long := strings.Repeat("A", 68*1024)
	transport.SendData(long + "\r\n")
	transport.SendData("NEXT\r\n")

	if got := waitForLine(t, conn); got != long {
		t.Errorf("oversized line corrupted: got %d bytes, want %d", len(got), len(long))
	}
	if got := waitForLine(t, conn); got != "NEXT" {
		t.Errorf("line after the oversized one = %q, want %q", got, "NEXT")
	}

	select {
	case ev := <-conn.Events():
		t.Errorf("unexpected event from an oversized line: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if conn.State() != modem.StateOpen {
		t.Error("connection must stay open after an oversized line")
	}
}

func TestTransport_ChunkLargerThanReadBuffer(t *testing.T) {
	// A queued chunk bigger than the caller's buffer drains across
	// successive reads with no bytes lost.
	transport := modem.NewTestTransport()
	data := strings.Repeat("x", 10_000)
	transport.SendData(data)

	buf := make([]byte, 512)
	var got []byte
	for len(got) < len(data) {
		n, err := transport.Read(buf)
		if err != nil {
			t.Fatalf("Read() error after %d bytes: %v", len(got), err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != data {
		t.Errorf("reassembled %d bytes do not match the %d queued", len(got), len(data))
	}
}
