// Package apps talks to the operating system on behalf of the terminator:
// it lists running user-facing applications, asks them to quit, and kills
// them by name.
package apps

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/forcequit/fq/internal/util"
)

// Backend names accepted by New.
const (
	BackendAuto  = "auto"
	BackendMacOS = "macos"
	BackendUnix  = "unix"
)

// ErrUnsupported is returned by New for a backend the host cannot run.
var ErrUnsupported = errors.New("backend not supported on this platform")

// ErrNoMatch means no running process matched the requested name.
var ErrNoMatch = errors.New("no matching process")

// Backend lists, quits and kills applications on one platform.
type Backend interface {
	Name() string
	Applications(ctx context.Context) ([]string, error)
	Quit(ctx context.Context, name string) error
	Kill(ctx context.Context, name string) error
}

// runner executes external commands. Tests substitute a fake.
type runner interface {
	Output(ctx context.Context, cmd string, args ...string) (string, error)
	Run(ctx context.Context, cmd string, args ...string) error
}

type execRunner struct{}

func (execRunner) Output(ctx context.Context, cmd string, args ...string) (string, error) {
	return util.ExecWithOutput(ctx, cmd, args...)
}

func (execRunner) Run(ctx context.Context, cmd string, args ...string) error {
	return util.ExecRun(ctx, cmd, args...)
}

// New returns the backend called name. "auto" or "" picks the one that suits
// runtime.GOOS.
func New(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendAuto:
		if runtime.GOOS == "darwin" {
			return NewMacOS(), nil
		}
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("%s: %w", runtime.GOOS, ErrUnsupported)
		}
		return NewUnix(), nil
	case BackendMacOS:
		if runtime.GOOS != "darwin" {
			return nil, fmt.Errorf("%s on %s: %w", BackendMacOS, runtime.GOOS, ErrUnsupported)
		}
		return NewMacOS(), nil
	case BackendUnix:
		if runtime.GOOS == "windows" {
			return nil, fmt.Errorf("%s on %s: %w", BackendUnix, runtime.GOOS, ErrUnsupported)
		}
		return NewUnix(), nil
	}
	return nil, fmt.Errorf("unknown backend %q (want auto, macos or unix)", name)
}
