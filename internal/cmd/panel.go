package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/terminate"
	"github.com/forcequit/fq/internal/tui/panel"
)

var (
	panelHidden bool
	panelDryRun bool
	panelNoAlt  bool
)

var panelCmd = &cobra.Command{
	Use:     "panel",
	GroupID: GroupRun,
	Short:   "Open the interactive force-quit panel",
	Long: `Open a small interactive panel with a force-quit trigger.

Press f to force quit, then y to confirm. The panel shows each application
as it is preserved or quit, followed by the totals. Press h to collapse the
panel to a one-line tray bar and h again to bring it back. Triggering from
the tray bar shows the panel before asking for confirmation.

A run cannot be interrupted once confirmed.

Examples:
  fq panel
  fq panel --hidden     # Start as a tray bar
  fq panel --dry-run    # Practice without touching anything`,
	RunE: runPanel,
}

func init() {
	panelCmd.Flags().BoolVar(&panelHidden, "hidden", false, "Start collapsed to the tray bar")
	panelCmd.Flags().BoolVarP(&panelDryRun, "dry-run", "n", false, "Report what would be quit without touching anything")
	panelCmd.Flags().BoolVar(&panelNoAlt, "inline", false, "Render inline instead of in the alternate screen")

	rootCmd.AddCommand(panelCmd)
}

func runPanel(cmd *cobra.Command, args []string) error {
	if !stdinIsTerminal() {
		return errors.New("fq panel needs an interactive terminal; use fq quit instead")
	}

	settings := runSettings{dryRun: panelDryRun}
	// validate once up front so a bad config is reported before the UI starts
	if _, err := settings.options(); err != nil {
		return err
	}

	m := panel.New(func(ctx context.Context, obs terminate.Observer) (terminate.Tally, error) {
		// stderr belongs to the UI, so run log failures are dropped
		return forceQuit(ctx, "panel", settings, obs, nil)
	})
	m.SetHidden(panelHidden)

	var opts []tea.ProgramOption
	if !panelNoAlt {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("running panel: %w", err)
	}
	return nil
}
