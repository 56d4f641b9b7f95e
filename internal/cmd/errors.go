package cmd

import (
	"errors"
	"fmt"
)

// Exit codes
const (
	ExitOK    = 0
	ExitError = 1
	// ExitQuittable is returned by fq check when a name would be quit.
	ExitQuittable = 1
)

// SilentExitError makes the process exit with Code without printing
// anything. The output already said what happened.
type SilentExitError struct {
	Code int
}

func (e *SilentExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// NewSilentExit creates a SilentExitError with the given exit code.
func NewSilentExit(code int) *SilentExitError {
	return &SilentExitError{Code: code}
}

// IsSilentExit reports whether err wraps a SilentExitError and returns its code.
func IsSilentExit(err error) (int, bool) {
	var se *SilentExitError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
