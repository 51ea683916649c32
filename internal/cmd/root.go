package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// exitCodeError carries a specific process exit code up to main.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode maps a command error to the process exit code: 0 for nil, the
// embedded code for exitCodeError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ece *exitCodeError
	if errors.As(err, &ece) {
		return ece.code
	}
	return 1
}

// NewRootCommand creates and returns the root cobra command for cyrus
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cyrus",
		Short: "Per-project language environments and workspace orchestration",
		Long: `Cyrus manages per-project language environments and runs abstract
commands ("test", "build") across single projects and multi-project
workspaces.

Commands resolve through layered aliases: custom aliases, declared
scripts, then package-manager conventions. Workspace runs respect
member dependencies, executing independent members in parallel waves.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewAliasCommand())
	cmd.AddCommand(NewWorkspaceCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

func statusExitError(code int, format string, args ...interface{}) error {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}
