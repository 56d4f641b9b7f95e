// Package lock keeps two force-quit runs from overlapping, for example a
// `fq quit` in one terminal and the panel in another.
//
// The lock itself is an advisory file lock (flock) at the configured path,
// released automatically by the kernel if the holder dies. Alongside it a
// small JSON file records who holds the lock so a second caller can say why
// it was refused.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Common errors
var (
	ErrRunInProgress = errors.New("another force-quit run is in progress")
	ErrNotLocked     = errors.New("run lock is not held")
)

// Info describes the current holder of the run lock.
type Info struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	// Origin names what took the lock, e.g. "quit" or "panel".
	Origin   string `json:"origin,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// IsStale reports whether the recorded holder is no longer running.
func (i *Info) IsStale() bool {
	return !processExists(i.PID)
}

// RunLock guards a single force-quit run.
type RunLock struct {
	path     string
	infoPath string
	fl       *flock.Flock
}

// New creates a RunLock backed by the file at path.
func New(path string) *RunLock {
	return &RunLock{
		path:     path,
		infoPath: path + ".info",
		fl:       flock.New(path),
	}
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.path
}

// TryAcquire takes the lock without waiting. It returns ErrRunInProgress,
// wrapped with the holder's details when known, if someone else has it.
func (l *RunLock) TryAcquire(origin string) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}

	locked, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		if info, err := l.Read(); err == nil {
			return fmt.Errorf("%w: PID %d (%s, since %s)",
				ErrRunInProgress, info.PID, info.Origin, info.AcquiredAt.Format(time.Kitchen))
		}
		return ErrRunInProgress
	}

	if err := l.writeInfo(origin); err != nil {
		_ = l.fl.Unlock()
		return err
	}
	return nil
}

// Release drops the lock if held.
func (l *RunLock) Release() error {
	if !l.fl.Locked() {
		return nil
	}
	if err := os.Remove(l.infoPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock info: %w", err)
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("releasing lock: %w", err)
	}
	return nil
}

// Locked reports whether this RunLock currently holds the lock.
func (l *RunLock) Locked() bool {
	return l.fl.Locked()
}

// Read returns the recorded holder without touching the lock.
func (l *RunLock) Read() (*Info, error) {
	data, err := os.ReadFile(l.infoPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLocked
		}
		return nil, fmt.Errorf("reading lock info: %w", err)
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing lock info: %w", err)
	}
	return &info, nil
}

// Status returns a human-readable status of the lock.
func (l *RunLock) Status() string {
	info, err := l.Read()
	if err != nil {
		if errors.Is(err, ErrNotLocked) {
			return "idle"
		}
		return fmt.Sprintf("error: %v", err)
	}

	if info.IsStale() {
		return fmt.Sprintf("idle (stale record from dead PID %d)", info.PID)
	}
	if info.PID == os.Getpid() {
		return "running (this process)"
	}
	return fmt.Sprintf("running in PID %d (%s)", info.PID, info.Origin)
}

func (l *RunLock) writeInfo(origin string) error {
	hostname, _ := os.Hostname()
	info := Info{
		PID:        os.Getpid(),
		AcquiredAt: time.Now(),
		Origin:     origin,
		Hostname:   hostname,
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lock info: %w", err)
	}
	if err := os.WriteFile(l.infoPath, data, 0644); err != nil { //nolint:gosec // G306: lock info is non-sensitive
		return fmt.Errorf("writing lock info: %w", err)
	}
	return nil
}
