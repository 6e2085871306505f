package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/storecheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Steps    bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [scenario]",
		Short: "Show recorded runs",
		Long: `Show the variations recorded by "storecheck run --db", oldest first.

Example:
  storecheck history --db ./runs.db
  storecheck history --db ./runs.db add_products_to_shopping_cart --steps`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioName := ""
			if len(args) == 1 {
				scenarioName = args[0]
			}
			return runHistory(opts, scenarioName, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run log (required)")
	cmd.Flags().BoolVar(&opts.Steps, "steps", false, "show the steps of each run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, scenarioName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening would create an empty log; a typo should not.
	if _, err := os.Stat(opts.Database); err != nil {
		_ = formatter.Error(ErrCodeNoDatabase, fmt.Sprintf("run log not found: %s", opts.Database), nil)
		return WrapExitError(ExitCommandError, "run log not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), scenarioName)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s/%s %s\n", mark, r.Seq, r.Scenario, r.Variation, r.ID)
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
		if opts.Steps {
			kinds := make([]string, 0, len(r.Steps))
			for _, s := range r.Steps {
				k := s.Kind
				if s.Error != "" {
					k += "!"
				}
				kinds = append(kinds, k)
			}
			fmt.Fprintf(w, "  steps: %s\n", strings.Join(kinds, " → "))
		}
	}
	return nil
}
