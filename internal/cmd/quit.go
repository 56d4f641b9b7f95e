package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/classify"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/terminate"
	"github.com/forcequit/fq/internal/ui"
)

// Quit command flags
var (
	quitYes        bool
	quitDryRun     bool
	quitKillPolicy string
	quitTimeout    time.Duration
)

// errNeedsConfirmation is returned when a prompt is impossible.
var errNeedsConfirmation = errors.New("refusing to force quit without confirmation: stdin is not a terminal (pass --yes)")

// isInteractive reports whether a confirmation prompt can be shown.
// Tests replace it.
var isInteractive = ui.IsInteractive

var quitCmd = &cobra.Command{
	Use:     "quit",
	GroupID: GroupRun,
	Short:   "Force quit all non-essential applications",
	Long: `Force quit every running application that is not essential.

Each targeted application is asked to quit gracefully, with a time limit,
and is then killed. With --kill-policy=on-failure the kill only follows a
graceful quit that reported an error.

The applications that will be quit are listed and you are asked to confirm.
Without a terminal on stdin, --yes is required.

Examples:
  fq quit                         # Show the plan and ask
  fq quit --yes                   # Do it without asking
  fq quit --dry-run               # Only report what would happen
  fq quit --kill-policy on-failure --timeout 10s`,
	RunE: runQuit,
}

func init() {
	quitCmd.Flags().BoolVarP(&quitYes, "yes", "y", false, "Do not ask for confirmation")
	quitCmd.Flags().BoolVarP(&quitDryRun, "dry-run", "n", false, "Report what would be quit without touching anything")
	quitCmd.Flags().StringVar(&quitKillPolicy, "kill-policy", "", "When to kill after the graceful quit: always or on-failure (default from config)")
	quitCmd.Flags().DurationVar(&quitTimeout, "timeout", 0, "Time limit for each graceful quit (default from config)")

	rootCmd.AddCommand(quitCmd)
}

func runQuit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	settings := runSettings{
		killPolicy: quitKillPolicy,
		timeout:    quitTimeout,
		dryRun:     quitDryRun,
	}

	if !quitYes && !quitDryRun {
		if !isInteractive() {
			return errNeedsConfirmation
		}

		opts, err := settings.options()
		if err != nil {
			return err
		}
		t, err := newTerminator(opts, nil)
		if err != nil {
			return err
		}

		// The run acts on this plan, not a fresh listing, so nothing started
		// after the prompt is quit unseen. A failed listing still makes an
		// empty run, reported like any other.
		verdicts, planErr := t.Plan(cmd.Context())
		listing := terminate.ListingOf(verdicts, planErr)
		settings.listing = &listing

		if planErr == nil {
			targets := quittable(verdicts)
			if len(targets) == 0 {
				fmt.Fprintf(out, "%s Nothing to quit (%d essential application(s) running)\n",
					style.InfoPrefix, len(verdicts))
				return nil
			}

			fmt.Fprintf(out, "%s\n", style.Bold.Render("Applications to quit:"))
			for _, name := range targets {
				fmt.Fprintf(out, "  %s %s\n", ui.RenderVerdict(false), name)
			}
			fmt.Fprintf(out, "%s\n\n", style.Dim.Render(
				fmt.Sprintf("%d essential application(s) will be preserved", len(verdicts)-len(targets))))

			if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Force quit %d application(s)? [y/N] ", len(targets))) {
				fmt.Fprintln(out, "Aborted")
				return nil
			}
			fmt.Fprintln(out)
		}
	}

	printer := &eventPrinter{w: out}
	tally, err := forceQuit(cmd.Context(), "quit", settings, printer, func(err error) {
		printer.logErr(cmd.ErrOrStderr(), err)
	})
	if err != nil {
		return err
	}

	printSummary(out, tally)
	return nil
}

// quittable returns the names of non-essential applications in verdicts.
func quittable(verdicts []classify.Verdict) []string {
	var names []string
	for _, v := range verdicts {
		if !v.Essential {
			names = append(names, v.Name)
		}
	}
	return names
}

// confirm prints prompt and reports whether the answer was yes.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// eventPrinter renders run events as they happen.
type eventPrinter struct {
	w         io.Writer
	warnedLog bool
}

func (p *eventPrinter) Observe(e terminate.Event) {
	switch e.Kind {
	case terminate.EventPreserved:
		fmt.Fprintf(p.w, "  %s %s %s\n", ui.RenderVerdict(true), e.Name, style.Dim.Render(verdictReason(e.Verdict)))
	case terminate.EventQuit:
		fmt.Fprintf(p.w, "  %s %s\n", ui.RenderVerdict(false), e.Name)
	case terminate.EventWouldQuit:
		fmt.Fprintf(p.w, "  %s %s %s\n", ui.RenderVerdict(false), e.Name, style.Dim.Render("(dry run)"))
	case terminate.EventQuitFailed:
		fmt.Fprintf(p.w, "    %s graceful quit of %s failed: %v\n", style.WarningPrefix, e.Name, e.Err)
	case terminate.EventKillFailed:
		fmt.Fprintf(p.w, "    %s kill of %s failed: %v\n", style.ErrorPrefix, e.Name, e.Err)
	case terminate.EventEnumerationFailed:
		fmt.Fprintf(p.w, "%s could not list applications: %v\n", style.ErrorPrefix, e.Err)
	}
}

// logErr reports the first run log failure only.
func (p *eventPrinter) logErr(w io.Writer, err error) {
	if p.warnedLog {
		return
	}
	p.warnedLog = true
	style.Warnf(w, "run log not written: %v", err)
}

// verdictReason names the rule or keyword behind a verdict.
func verdictReason(v classify.Verdict) string {
	switch v.Reason {
	case classify.ReasonRule, classify.ReasonKeyword:
		return fmt.Sprintf("(%s %q)", v.Reason, v.Match)
	case classify.ReasonEmpty:
		return "(blank name)"
	}
	return ""
}

func printSummary(w io.Writer, t terminate.Tally) {
	verb := "quit"
	if t.DryRun {
		verb = "would quit"
	}
	fmt.Fprintf(w, "\n%s %d %s, %d preserved", style.Bold.Render("Summary:"), t.Quit, verb, t.Preserved)
	if n := len(t.Failures); n > 0 {
		fmt.Fprintf(w, ", %s", style.Warning.Render(fmt.Sprintf("%d failed step(s)", n)))
	}
	fmt.Fprintf(w, " %s\n", style.Dim.Render(fmt.Sprintf("in %s", t.Duration().Round(time.Millisecond))))
}

// stdinIsTerminal is used by commands that need a TTY but no prompt.
func stdinIsTerminal() bool {
	return isInteractive() && os.Getenv("TERM") != "dumb"
}
