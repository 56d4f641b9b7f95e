package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/config"
	"github.com/forcequit/fq/internal/lock"
	"github.com/forcequit/fq/internal/runlog"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/terminate"
	"github.com/forcequit/fq/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: GroupDiag,
	Short:   "Show fq paths, backend, lock state and the last run",
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	logPath := config.RunLogPath(cfg)

	var backendName string
	if b, err := newBackend(cfg.Quit.Backend); err == nil {
		backendName = b.Name()
	} else {
		backendName = fmt.Sprintf("unavailable (%v)", err)
	}

	fmt.Fprintln(out, ui.RenderCategory("fq status"))
	fmt.Fprintln(out, ui.RenderSeparator())
	row(out, "Config", configPath())
	row(out, "Backend", ui.RenderAccent(backendName))
	row(out, "Kill policy", cfg.Quit.KillPolicy)
	row(out, "Quit timeout", cfg.Quit.Timeout.String())
	row(out, "Run log", logPath)
	row(out, "Lock", lock.New(lockPath()).Status())

	events, err := runlog.ReadEvents(logPath)
	if err != nil {
		return err
	}
	if last, ok := lastFinished(events); ok {
		row(out, "Last run", fmt.Sprintf("%s, %s (run %s)",
			last.Timestamp.Format("2006-01-02 15:04:05"), last.Detail, last.RunID))
	} else {
		row(out, "Last run", ui.RenderMuted("never"))
	}
	return nil
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", style.Bold.Render(fmt.Sprintf("%-13s", label+":")), value)
}

// lastFinished returns the most recent run_finished event.
func lastFinished(events []runlog.Event) (runlog.Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == terminate.EventRunFinished {
			return events[i], true
		}
	}
	return runlog.Event{}, false
}
