package apps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

// pkill sends SIGKILL to every process whose full command line matches name.
// The name is quoted so that characters like "+" or "(" match literally.
type pkill struct {
	run runner
}

func (k pkill) Kill(ctx context.Context, name string) error {
	err := k.run.Run(ctx, "pkill", "-KILL", "-f", regexp.QuoteMeta(name))
	if err == nil {
		return nil
	}

	// pkill exits 1 when nothing matched
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return fmt.Errorf("kill %q: %w", name, ErrNoMatch)
	}
	return fmt.Errorf("kill %q: %w", name, err)
}
