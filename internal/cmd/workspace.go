package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/cyrus/internal/alias"
	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/history"
	"github.com/harrison/cyrus/internal/logger"
	"github.com/harrison/cyrus/internal/models"
	"github.com/harrison/cyrus/internal/workspace"
)

// NewWorkspaceCommand creates the workspace command group.
func NewWorkspaceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workspace",
		Aliases: []string{"ws"},
		Short:   "Run commands across a multi-project workspace",
	}
	cmd.AddCommand(newWorkspaceRunCommand())
	cmd.AddCommand(newWorkspaceBuildCommand())
	cmd.AddCommand(newWorkspaceTestCommand())
	cmd.AddCommand(newWorkspaceScriptCommand())
	cmd.AddCommand(newWorkspaceListCommand())
	return cmd
}

// workspaceRunFlags holds the shared orchestration flags.
type workspaceRunFlags struct {
	members         []string
	parallel        bool
	maxJobs         int
	continueOnError bool
	skipDependents  bool
}

func addWorkspaceRunFlags(cmd *cobra.Command, flags *workspaceRunFlags) {
	cmd.Flags().StringSliceVar(&flags.members, "members", nil, "Restrict the run to the named members")
	cmd.Flags().BoolVar(&flags.parallel, "parallel", true, "Run independent members concurrently")
	cmd.Flags().IntVar(&flags.maxJobs, "max-jobs", -1, "Maximum concurrent members per wave (0 = unbounded, -1 = use config)")
	cmd.Flags().BoolVar(&flags.continueOnError, "continue-on-error", false, "Keep running later waves after a member fails")
	cmd.Flags().BoolVar(&flags.skipDependents, "skip-dependents", false, "Skip members whose dependency failed (requires --continue-on-error)")
}

func newWorkspaceRunCommand() *cobra.Command {
	var flags workspaceRunFlags
	cmd := &cobra.Command{
		Use:   "run <command>",
		Short: "Run an abstract command across all enabled members",
		Long: `Run an abstract command (e.g. "test") across all enabled workspace
members in dependency order. Independent members execute concurrently
within waves; a wave never starts before its predecessor completes.

Examples:
  cyrus workspace run test
  cyrus workspace run build --max-jobs 4
  cyrus workspace run lint --members api,web --continue-on-error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, args[0], flags, false)
		},
	}
	addWorkspaceRunFlags(cmd, &flags)
	return cmd
}

func newWorkspaceBuildCommand() *cobra.Command {
	var flags workspaceRunFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: `Shorthand for "workspace run build"`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, "build", flags, false)
		},
	}
	addWorkspaceRunFlags(cmd, &flags)
	return cmd
}

func newWorkspaceTestCommand() *cobra.Command {
	var flags workspaceRunFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: `Shorthand for "workspace run test"`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, "test", flags, false)
		},
	}
	addWorkspaceRunFlags(cmd, &flags)
	return cmd
}

func newWorkspaceScriptCommand() *cobra.Command {
	var flags workspaceRunFlags
	cmd := &cobra.Command{
		Use:   "script <name>",
		Short: "Run a named workspace script",
		Long: `Run a workspace script declared in cyrus-workspace.yaml. The script's
concrete command line runs verbatim in each targeted member; its own
parallel and continue-on-error settings apply.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return orchestrate(cmd, args[0], flags, true)
		},
	}
	cmd.Flags().IntVar(&flags.maxJobs, "max-jobs", -1, "Maximum concurrent members per wave (0 = unbounded, -1 = use config)")
	return cmd
}

func orchestrate(cmd *cobra.Command, commandName string, flags workspaceRunFlags, script bool) error {
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
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	maxJobs := cfg.MaxConcurrency
	if flags.maxJobs >= 0 {
		maxJobs = flags.maxJobs
	}

	console := logger.NewConsole(os.Stdout, cfg.LogLevel)
	orch := workspace.New(ws, alias.NewResolver())
	orch.Logger = console
	orch.MemberTimeout = cfg.MemberTimeout

	// History is best-effort: a broken database warns but never blocks a run.
	historyPath := cfg.HistoryDB
	if !filepath.IsAbs(historyPath) {
		historyPath = filepath.Join(ws.RootPath, historyPath)
	}
	if store, err := history.Open(historyPath); err != nil {
		console.Warnf("run history disabled: %v", err)
	} else {
		defer store.Close()
		orch.Recorder = store
	}

	var result *models.WorkspaceResult
	if script {
		result, err = orch.RunScript(cmd.Context(), commandName, maxJobs)
	} else {
		result, err = orch.RunCommand(cmd.Context(), commandName, workspace.Options{
			Parallel:                flags.parallel,
			ConcurrencyLimit:        maxJobs,
			MemberFilter:            flags.members,
			ContinueOnError:         flags.continueOnError,
			SkipDependentsOnFailure: flags.skipDependents,
		})
	}
	if err != nil {
		return err
	}

	switch result.Overall {
	case models.OverallSuccess:
		return nil
	case models.OverallPartialFailure:
		return statusExitError(2, "workspace %s finished with partial failures", commandName)
	default:
		return statusExitError(1, "workspace %s failed", commandName)
	}
}

func newWorkspaceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workspace members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}
			ws, err := config.LoadWorkspace(cwd)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Workspace: %s (%d members)\n", ws.Name, len(ws.Members))
			for _, m := range ws.Members {
				state := "enabled"
				if !m.Enabled {
					state = "disabled"
				}
				language := m.Language
				if language == "" {
					language = config.DetectLanguage(ws.MemberDir(m))
				}
				if language == "" {
					language = "unknown"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s [%s, %s] %s\n", m.Name, language, state, m.Path)
				if len(m.DependsOn) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "    depends on: %v\n", m.DependsOn)
				}
			}
			return nil
		},
	}
}
