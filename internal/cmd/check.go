package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/ui"
)

var checkQuiet bool

var checkCmd = &cobra.Command{
	Use:     "check <name>...",
	GroupID: GroupRun,
	Short:   "Classify application names against the allow-list",
	Long: `Report whether each named application is essential.

Exits 0 when every name is essential and 1 when at least one would be quit,
so it can guard scripts:

  fq check "Google Chrome" || echo "Chrome would be quit"

Examples:
  fq check Finder Slack
  fq check -q "Claude Code"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Print nothing, only set the exit code")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	set, err := cfg.EssentialSet()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	anyQuittable := false
	for _, name := range args {
		v := set.Explain(name)
		if !v.Essential {
			anyQuittable = true
		}
		if checkQuiet {
			continue
		}
		line := fmt.Sprintf("%s %q", ui.RenderVerdict(v.Essential), name)
		if reason := verdictReason(v); reason != "" {
			line += " " + style.Dim.Render(reason)
		}
		fmt.Fprintln(out, line)
	}

	if anyQuittable {
		return NewSilentExit(ExitQuittable)
	}
	return nil
}
