package lock

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInfo_IsStale(t *testing.T) {
	tests := []struct {
		name      string
		pid       int
		wantStale bool
	}{
		{"current process", os.Getpid(), false},
		{"invalid pid zero", 0, true},
		{"invalid pid negative", -1, true},
		{"non-existent pid", 999999999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &Info{PID: tt.pid}
			if got := info.IsStale(); got != tt.wantStale {
				t.Errorf("IsStale() = %v, want %v", got, tt.wantStale)
			}
		})
	}
}

func TestRunLock_AcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "fq.lock")
	l := New(path)

	if err := l.TryAcquire("quit"); err != nil {
		t.Fatalf("TryAcquire() error = %v", err)
	}
	if !l.Locked() {
		t.Error("Locked() = false after TryAcquire")
	}

	info, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if info.PID != os.Getpid() || info.Origin != "quit" {
		t.Errorf("info = %+v", info)
	}
	if got := l.Status(); got != "running (this process)" {
		t.Errorf("Status() = %q", got)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := l.Read(); !errors.Is(err, ErrNotLocked) {
		t.Errorf("Read() after release = %v, want ErrNotLocked", err)
	}
	if got := l.Status(); got != "idle" {
		t.Errorf("Status() after release = %q", got)
	}
}

func TestRunLock_SecondHolderRefused(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fq.lock")

	first := New(path)
	if err := first.TryAcquire("panel"); err != nil {
		t.Fatalf("first TryAcquire() error = %v", err)
	}
	defer first.Release()

	second := New(path)
	err := second.TryAcquire("quit")
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second TryAcquire() = %v, want ErrRunInProgress", err)
	}
	if !strings.Contains(err.Error(), "panel") {
		t.Errorf("error should name the holder origin: %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	if err := second.TryAcquire("quit"); err != nil {
		t.Errorf("TryAcquire() after release = %v", err)
	}
	_ = second.Release()
}

func TestRunLock_ReleaseWithoutAcquire(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "fq.lock"))
	if err := l.Release(); err != nil {
		t.Errorf("Release() on unheld lock = %v", err)
	}
}

func TestRunLock_StaleInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fq.lock")
	if err := os.WriteFile(path+".info", []byte(`{"pid": 999999999, "origin": "quit"}`), 0644); err != nil {
		t.Fatal(err)
	}

	l := New(path)
	if got := l.Status(); !strings.Contains(got, "stale") {
		t.Errorf("Status() = %q, want stale", got)
	}
	// a leftover record does not block a new run
	if err := l.TryAcquire("quit"); err != nil {
		t.Errorf("TryAcquire() = %v", err)
	}
	_ = l.Release()
}
