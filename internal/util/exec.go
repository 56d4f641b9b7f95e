package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrTimeout is returned when a command is stopped by its context deadline.
var ErrTimeout = errors.New("command timed out")

// ExecWithOutput runs a command and returns its trimmed stdout.
// If the command fails, stderr content is included in the error message.
func ExecWithOutput(ctx context.Context, cmd string, args ...string) (string, error) {
	c := exec.CommandContext(ctx, cmd, args...) //nolint:gosec // G204: callers validate args

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return "", commandError(ctx, cmd, stderr.String(), err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ExecRun runs a command, discarding stdout.
// If the command fails, stderr content is included in the error message.
func ExecRun(ctx context.Context, cmd string, args ...string) error {
	c := exec.CommandContext(ctx, cmd, args...) //nolint:gosec // G204: callers validate args

	var stderr bytes.Buffer
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		return commandError(ctx, cmd, stderr.String(), err)
	}

	return nil
}

func commandError(ctx context.Context, cmd, stderr string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", cmd, ErrTimeout)
	}
	if msg := strings.TrimSpace(stderr); msg != "" {
		return fmt.Errorf("%s: %s: %w", cmd, msg, err)
	}
	return fmt.Errorf("%s: %w", cmd, err)
}
