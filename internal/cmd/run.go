package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/cyrus/internal/alias"
	"github.com/harrison/cyrus/internal/config"
	"github.com/harrison/cyrus/internal/logger"
	"github.com/harrison/cyrus/internal/toolchain"
)

// NewRunCommand creates the single-project run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Run a command in the current project",
		Long: `Resolve an abstract command through the project's aliases, scripts,
and package-manager conventions, then execute it.

The project is located by walking upward from the working directory
until a cyrus.yaml is found. Extra arguments are appended to the
resolved command line.

Examples:
  cyrus run test
  cyrus run build
  cyrus run lint --fix`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProjectCommand,
	}
	return cmd
}

func runProjectCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return err
	}
	project, err := config.LoadProject(filepath.Join(root, config.ProjectFile))
	if err != nil {
		return err
	}

	console := logger.NewConsole(os.Stderr, "info")

	// The engine never installs toolchains; it only refuses to run against
	// a missing one.
	if project.Language != "" && project.Version != "" {
		store, err := toolchain.NewStore()
		if err != nil {
			return err
		}
		if !store.IsInstalled(project.Language, project.Version) {
			return fmt.Errorf("%s %s is not installed (expected at %s)",
				project.Language, project.Version, store.InstallPath(project.Language, project.Version))
		}
	}

	resolver := alias.NewResolver()
	resolved, err := resolver.Resolve(args[0], project)
	if err != nil {
		return err
	}

	argv := append(resolved.Argv(), args[1:]...)
	if len(argv) == 0 {
		return fmt.Errorf("command %q resolved to an empty command line", args[0])
	}
	console.Infof("Running: %s", strings.Join(argv, " "))

	child := exec.CommandContext(cmd.Context(), argv[0], argv[1:]...)
	child.Dir = root
	child.Env = projectEnv(project)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return statusExitError(exitErr.ExitCode(), "command %q exited with code %d", args[0], exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run %q: %w", argv[0], err)
	}
	return nil
}

// projectEnv merges the project's environment entries over the process
// environment, overridden keys in place and new keys appended sorted.
func projectEnv(project *config.Project) []string {
	base := os.Environ()
	if len(project.Environment) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(project.Environment))
	used := make(map[string]bool, len(project.Environment))
	for _, entry := range base {
		key := entry
		if idx := strings.IndexByte(entry, '='); idx >= 0 {
			key = entry[:idx]
		}
		if value, ok := project.Environment[key]; ok {
			merged = append(merged, key+"="+value)
			used[key] = true
			continue
		}
		merged = append(merged, entry)
	}

	extra := make([]string, 0, len(project.Environment))
	for key := range project.Environment {
		if !used[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		merged = append(merged, key+"="+project.Environment[key])
	}
	return merged
}
