package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/history"
)

// NewHistoryCommand creates the run-history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past workspace runs",
		Long: `List recent workspace runs, or show the per-member outcomes of one
run when a run ID is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			ws, err := config.LoadWorkspace(cwd)
			if err != nil {
				return err
			}
			cfg, err := config.LoadConfigFromDir(ws.RootPath)
			if err != nil {
				return err
			}

			historyPath := cfg.HistoryDB
			if !filepath.IsAbs(historyPath) {
				historyPath = filepath.Join(ws.RootPath, historyPath)
			}
			store, err := history.Open(historyPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return showRunOutcomes(cmd, store, args[0])
			}
			return listRuns(cmd, store, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func listRuns(cmd *cobra.Command, store *history.Store, limit int) error {
	runs, err := store.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded runs")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %-10s %-16s %s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Command, run.Overall,
			run.Duration.Round(time.Millisecond), run.ID)
	}
	return nil
}

func showRunOutcomes(cmd *cobra.Command, store *history.Store, runID string) error {
	outcomes, err := store.RunOutcomes(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("no outcomes recorded for run %q", runID)
	}
	for _, o := range outcomes {
		detail := string(o.Status)
		if o.Reason != "" {
			detail = fmt.Sprintf("%s (%s)", o.Status, o.Reason)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wave %d  %-20s %-28s exit %-3d %s\n",
			o.Wave+1, o.Member, detail, o.ExitCode, o.Duration.Round(time.Millisecond))
	}
	return nil
}
