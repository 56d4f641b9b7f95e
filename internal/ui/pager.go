package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// PagerOptions configures pager behavior for command output.
type PagerOptions struct {
	// NoPager disables the pager for this command (--no-pager flag).
	NoPager bool
}

// pagerCommand returns the pager argv, or nil when paging is off.
// FQ_PAGER wins over PAGER; "less" is the fallback.
func pagerCommand(opts PagerOptions) []string {
	if opts.NoPager || os.Getenv("FQ_NO_PAGER") != "" {
		return nil
	}
	pager := os.Getenv("FQ_PAGER")
	if pager == "" {
		pager = os.Getenv("PAGER")
	}
	if pager == "" {
		pager = "less"
	}
	return strings.Fields(pager)
}

// terminalHeight returns the terminal height in lines, or 0 if stdout is not
// a TTY.
func terminalHeight() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	_, height, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return height
}

// fitsScreen reports whether content can be printed without scrolling,
// leaving a line for the prompt.
func fitsScreen(content string, height int) bool {
	if height <= 0 {
		return true
	}
	return strings.Count(content, "\n") < height-1
}

// ToPager shows content through a pager when stdout is a terminal and the
// content is taller than the screen. Otherwise it writes content to w.
func ToPager(w io.Writer, content string, opts PagerOptions) error {
	argv := pagerCommand(opts)
	height := terminalHeight()
	if len(argv) == 0 || height == 0 || fitsScreen(content, height) {
		_, err := fmt.Fprint(w, content)
		return err
	}

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec // G204: pager comes from the user's environment
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	// -R keeps colors, -F quits on short input, -X leaves the screen alone
	if os.Getenv("LESS") == "" {
		cmd.Env = append(os.Environ(), "LESS=-RFX")
	}

	return cmd.Run()
}
