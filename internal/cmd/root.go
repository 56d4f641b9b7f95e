// Package cmd provides the fq command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/config"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/ui"
)

// Command groups for help output.
const (
	GroupRun    = "run"
	GroupConfig = "config"
	GroupDiag   = "diag"
)

// skipConfigAnnotation marks commands that must work with a broken config file.
const skipConfigAnnotation = "fq/skip-config"

var (
	// configFlag overrides the config file location.
	configFlag string

	// cfg is the effective configuration, loaded before every command runs.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "fq",
	Short: "Force quit every non-essential application",
	Long: `fq force quits every running application that is not on its essential
allow-list. System processes and development tools are preserved.

Each application is asked to quit gracefully first and is then killed.

Run "fq list" to see what would happen, "fq quit" to do it, or "fq panel"
for an interactive panel.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupRun, Title: "Force Quit:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics:"},
	)
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default $FQ_CONFIG or $XDG_CONFIG_HOME/fq/config.toml)")
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := IsSilentExit(err); ok {
			return code
		}
		style.Errorf(os.Stderr, "%v", err)
		return ExitError
	}
	return ExitOK
}

// configPath is where the user config file is read from and written to.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.ConfigPath()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		ui.InitTheme("")
		ui.ApplyThemeMode()
		return nil
	}

	loaded, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg = loaded

	ui.InitTheme(cfg.UI.Theme)
	ui.ApplyThemeMode()
	return nil
}
