package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forcequit/fq/internal/classify"
	"github.com/forcequit/fq/internal/style"
	"github.com/forcequit/fq/internal/terminate"
)

// List command flags
var (
	listJSON      bool
	listQuittable bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: GroupRun,
	Short:   "List running applications and their verdicts",
	Long: `List the running applications fq can see and whether each one would be
preserved or quit. Nothing is touched.

Examples:
  fq list               # Table of all applications
  fq list --quittable   # Only the ones fq quit would target
  fq list --json        # Machine-readable output`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	listCmd.Flags().BoolVarP(&listQuittable, "quittable", "q", false, "Only show applications that would be quit")

	rootCmd.AddCommand(listCmd)
}

// verdictJSON is the JSON shape of one classified application.
type verdictJSON struct {
	Name      string `json:"name"`
	Essential bool   `json:"essential"`
	Reason    string `json:"reason"`
	Match     string `json:"match,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	t, err := newTerminator(terminate.Options{Clock: clock}, nil)
	if err != nil {
		return err
	}
	verdicts, err := t.Plan(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing applications: %w", err)
	}

	if listQuittable {
		filtered := verdicts[:0]
		for _, v := range verdicts {
			if !v.Essential {
				filtered = append(filtered, v)
			}
		}
		verdicts = filtered
	}

	out := cmd.OutOrStdout()
	if listJSON {
		items := make([]verdictJSON, 0, len(verdicts))
		for _, v := range verdicts {
			items = append(items, verdictJSON{
				Name:      v.Name,
				Essential: v.Essential,
				Reason:    string(v.Reason),
				Match:     v.Match,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(verdicts) == 0 {
		fmt.Fprintf(out, "%s No applications found\n", style.InfoPrefix)
		return nil
	}

	tbl := style.NewTable(
		style.Column{Name: "APPLICATION", Width: 36},
		style.Column{Name: "VERDICT", Width: 8},
		style.Column{Name: "REASON", Width: 28, Style: style.Dim},
	)
	keep, quit := 0, 0
	for _, v := range verdicts {
		verdict := "quit"
		if v.Essential {
			verdict = "keep"
			keep++
		} else {
			quit++
		}
		tbl.AddRow(v.Name, verdict, reasonCell(v))
	}

	fmt.Fprint(out, tbl.Render())
	fmt.Fprintf(out, "\n%d application(s): %d to quit, %d preserved\n", len(verdicts), quit, keep)
	return nil
}

// reasonCell is the plain-text reason column for a verdict.
func reasonCell(v classify.Verdict) string {
	switch v.Reason {
	case classify.ReasonRule, classify.ReasonKeyword:
		return fmt.Sprintf("%s %s", v.Reason, v.Match)
	case classify.ReasonEmpty:
		return "blank name"
	}
	return ""
}
