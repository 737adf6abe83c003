package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLogger_StartStop(t *testing.T) {
	t.Run("start twice reports already open", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.txt")
		l := New(nil)

		if err := l.Start(path); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		defer l.Stop()

		l.Write("before\n")

		if err := l.Start(path); !errors.Is(err, ErrAlreadyLogging) {
			t.Errorf("second Start() error = %v, want ErrAlreadyLogging", err)
		}

		// The active file must not have been truncated or reopened.
		l.Write("after\n")
		l.Stop()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		if string(data) != "before\nafter\n" {
			t.Errorf("log contents = %q, want %q", data, "before\nafter\n")
		}
	})

	t.Run("stop when inactive reports already closed", func(t *testing.T) {
		l := New(nil)
		if err := l.Stop(); !errors.Is(err, ErrNotLogging) {
			t.Errorf("Stop() error = %v, want ErrNotLogging", err)
		}
	})

	t.Run("start appends to an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.txt")
		if err := os.WriteFile(path, []byte("old session\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		l := New(nil)
		if err := l.Start(path); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		l.Write("new session\n")
		l.Stop()

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log: %v", err)
		}
		if string(data) != "old session\nnew session\n" {
			t.Errorf("log contents = %q, want %q", data, "old session\nnew session\n")
		}
	})

	t.Run("open failure leaves logging inactive", func(t *testing.T) {
		l := New(nil)
		err := l.Start(filepath.Join(t.TempDir(), "missing", "dir", "session.txt"))
		if err == nil {
			t.Fatal("Start() should fail for an unwritable path")
		}
		if l.Active() {
			t.Error("logging should be inactive after a failed start")
		}
	})
}

func TestLogger_Write(t *testing.T) {
	t.Run("no-op when inactive", func(t *testing.T) {
		l := New(func(error) {
			t.Error("onError must not fire while inactive")
		})
		l.Write("dropped\n") // must not panic or report
	})

	t.Run("failure deactivates and reports", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.txt")

		var reported error
		l := New(func(err error) { reported = err })

		if err := l.Start(path); err != nil {
			t.Fatalf("Start() error: %v", err)
		}

		// Close the handle behind the logger's back so the next write
		// fails the way a full disk or yanked volume would.
		l.mu.Lock()
		l.file.Close()
		l.mu.Unlock()

		l.Write("doomed\n")

		if l.Active() {
			t.Error("logging should be inactive after a write failure")
		}
		if !errors.Is(reported, ErrWriteFailed) {
			t.Errorf("reported error = %v, want ErrWriteFailed", reported)
		}

		// A later write is a silent no-op.
		reported = nil
		l.Write("still doomed\n")
		if reported != nil {
			t.Errorf("inactive Write reported %v, want nothing", reported)
		}
	})
}

func TestLogger_Path(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt")
	l := New(nil)
	if err := l.Start(path); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer l.Stop()

	if l.Path() != path {
		t.Errorf("Path() = %q, want %q", l.Path(), path)
	}
	if !l.Active() {
		t.Error("Active() = false, want true")
	}
}
