package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/config"
	"github.com/forcequit/fq/internal/runlog"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/terminate"
	"github.com/forcequit/fq/internal/ui"
)

// Log command flags
var (
	logTail    int
	logType    string
	logRun     string
	logApp     string
	logSince   string
	logFollow  bool
	logNoPager bool
)

var logCmd = &cobra.Command{
	Use:     "log",
	GroupID: GroupDiag,
	Short:   "View the force-quit run log",
	Long: `View the log of past force-quit runs.

Events logged include:
  run_started         - a run began
  preserved           - an essential application was left alone
  quit                - an application was quit
  quit_failed         - the graceful quit reported an error
  kill_failed         - the kill reported an error
  kill_skipped        - the kill was skipped after a clean quit
  enumeration_failed  - running applications could not be listed
  run_finished        - a run ended, with its totals

Dry runs are not logged.

Examples:
  fq log                     # Show last 20 events
  fq log -n 50               # Show last 50 events
  fq log --type quit         # Show only quit events
  fq log --app slack         # Show events for applications matching "slack"
  fq log --run 1a2b          # Show one run
  fq log --since 24h         # Show events from the last day
  fq log -f                  # Follow log (like tail -f)`,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVarP(&logTail, "tail", "n", 20, "Number of events to show (0 for all)")
	logCmd.Flags().StringVarP(&logType, "type", "t", "", "Filter by event type")
	logCmd.Flags().StringVar(&logRun, "run", "", "Filter by run ID prefix")
	logCmd.Flags().StringVarP(&logApp, "app", "a", "", "Filter by application name (case-insensitive substring)")
	logCmd.Flags().StringVar(&logSince, "since", "", "Show events since duration (e.g., 1h, 30m, 24h)")
	logCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logCmd.Flags().BoolVar(&logNoPager, "no-pager", false, "Do not page long output")

	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	logPath := config.RunLogPath(cfg)
	out := cmd.OutOrStdout()

	if logFollow {
		return followLog(cmd.Context(), logPath)
	}

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintf(out, "%s No log file yet (no runs recorded)\n", style.Dim.Render("○"))
		return nil
	}

	events, err := runlog.ReadEvents(logPath)
	if err != nil {
		return fmt.Errorf("reading events: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintf(out, "%s No events in log\n", style.Dim.Render("○"))
		return nil
	}

	filter := runlog.Filter{
		Type:  terminate.EventKind(logType),
		RunID: logRun,
		App:   logApp,
	}
	if logSince != "" {
		duration, err := time.ParseDuration(logSince)
		if err != nil {
			return fmt.Errorf("invalid --since duration: %w", err)
		}
		filter.Since = clock.Now().Add(-duration)
	}

	events = runlog.FilterEvents(events, filter)
	if logTail > 0 && len(events) > logTail {
		events = events[len(events)-logTail:]
	}

	if len(events) == 0 {
		fmt.Fprintf(out, "%s No events match filter\n", style.Dim.Render("○"))
		return nil
	}

	var b strings.Builder
	for _, e := range events {
		b.WriteString(formatEvent(e))
		b.WriteString("\n")
	}
	return ui.ToPager(out, b.String(), ui.PagerOptions{NoPager: logNoPager})
}

// followLog uses tail -f to follow the log file.
func followLog(ctx context.Context, logPath string) error {
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
		_ = f.Close()
	}

	fmt.Printf("%s Following %s (Ctrl+C to stop)\n\n", style.Dim.Render("○"), logPath)

	tailCmd := exec.CommandContext(ctx, "tail", "-f", logPath)
	tailCmd.Stdout = os.Stdout
	tailCmd.Stderr = os.Stderr

	return tailCmd.Run()
}

// formatEvent renders a single event with styling.
func formatEvent(e runlog.Event) string {
	ts := e.Timestamp.Format("2006-01-02 15:04:05")

	label := fmt.Sprintf("[%s]", e.Type)
	switch e.Type {
	case terminate.EventRunStarted, terminate.EventRunFinished:
		label = style.Bold.Render(label)
	case terminate.EventPreserved:
		label = style.Success.Render(label)
	case terminate.EventQuit:
		label = ui.QuitStyle.Render(label)
	case terminate.EventKillSkipped, terminate.EventWouldQuit:
		label = style.Dim.Render(label)
	case terminate.EventQuitFailed:
		label = style.Warning.Render(label)
	case terminate.EventKillFailed, terminate.EventEnumerationFailed:
		label = style.Error.Render(label)
	}

	subject := e.App
	if subject == "" {
		subject = style.Dim.Render("run " + e.RunID)
	}
	return fmt.Sprintf("%s %s %s %s", style.Dim.Render(ts), label, subject, e.Detail)
}
