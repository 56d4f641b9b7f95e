//go:build !windows

package lock

import (
	"errors"
	"syscall"
)

// processExists reports whether pid refers to a live process. EPERM means
// the process exists but belongs to someone else.
func processExists(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
