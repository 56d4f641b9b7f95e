package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/config"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/util"
)

var (
	configShowDefaults bool
	configInitForce    bool
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: GroupConfig,
	Short:   "View or create the fq config file",
	Long: `View or create the fq config file.

The config file is TOML. It only needs the settings it changes; everything
else comes from the built-in defaults. Patterns, rules and keywords add to
the built-in allow-list unless [essential] sets replace_defaults = true.

Example:

  empty_name = "preserve"

  [essential]
  patterns = ["Xcode", "Docker"]

  [[essential.rule]]
  pattern = "Code"
  match = "exact"

  [quit]
  timeout = "10s"
  kill_policy = "on-failure"`,
	RunE: requireSubcommand,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write a config file with the default settings",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE:        runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return nil
	},
}

var configRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the effective allow-list rules and keywords",
	RunE:  runConfigRules,
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowDefaults, "defaults", false, "Print the built-in defaults instead")
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd, configInitCmd, configPathCmd, configRulesCmd)
	rootCmd.AddCommand(configCmd)
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if configShowDefaults {
		_, err := out.Write(config.DefaultsTOML())
		return err
	}
	if err := toml.NewEncoder(out).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := util.AtomicWriteFile(path, config.DefaultsTOML(), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	style.Successf(cmd.OutOrStdout(), "Wrote %s", path)
	return nil
}

func runConfigRules(cmd *cobra.Command, args []string) error {
	set, err := cfg.EssentialSet()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tbl := style.NewTable(
		style.Column{Name: "PATTERN", Width: 32},
		style.Column{Name: "MATCH", Width: 10},
	)
	for _, r := range set.Rules() {
		tbl.AddRow(r.Pattern, string(r.Match))
	}
	for _, k := range set.Keywords() {
		tbl.AddRow(k, "keyword")
	}
	fmt.Fprint(out, tbl.Render())
	fmt.Fprintf(out, "\n%s %s\n", style.Bold.Render("Blank names:"), set.EmptyPolicy())
	return nil
}
