package apps

import (
	"context"
	"fmt"
)

// MacOS drives System Events through osascript and kills with pkill.
type MacOS struct {
	pkill
	run runner
}

// NewMacOS returns a MacOS backend that shells out to osascript.
func NewMacOS() *MacOS {
	r := execRunner{}
	return &MacOS{pkill: pkill{run: r}, run: r}
}

// Name returns BackendMacOS.
func (m *MacOS) Name() string { return BackendMacOS }

// Applications lists every process System Events reports as not background-only.
func (m *MacOS) Applications(ctx context.Context) ([]string, error) {
	out, err := m.run.Output(ctx, "osascript", "-e", listScript)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	return ParseAppleScriptList(out), nil
}

// Quit asks the application to quit through its normal shutdown path.
func (m *MacOS) Quit(ctx context.Context, name string) error {
	if err := m.run.Run(ctx, "osascript", "-e", quitScript(name)); err != nil {
		return fmt.Errorf("quit %q: %w", name, err)
	}
	return nil
}
