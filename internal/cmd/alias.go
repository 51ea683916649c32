package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harrison/cyrus/internal/config"
)

// NewAliasCommand creates the alias management command group.
func NewAliasCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage project command aliases",
	}
	cmd.AddCommand(newAliasListCommand())
	cmd.AddCommand(newAliasAddCommand())
	cmd.AddCommand(newAliasRemoveCommand())
	cmd.AddCommand(newAliasToggleCommand())
	return cmd
}

func loadCurrentProject() (*config.Project, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(root, config.ProjectFile)
	project, err := config.LoadProject(path)
	if err != nil {
		return nil, "", err
	}
	return project, path, nil
}

func newAliasListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom aliases and scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _, err := loadCurrentProject()
			if err != nil {
				return err
			}

			if !project.EnableAliases {
				fmt.Fprintln(cmd.OutOrStdout(), "Aliases are currently disabled")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Custom aliases:")
			printSortedMappings(cmd, project.CustomAliases)
			fmt.Fprintln(cmd.OutOrStdout(), "Scripts:")
			printSortedMappings(cmd, project.Scripts)
			return nil
		},
	}
}

func printSortedMappings(cmd *cobra.Command, mappings map[string]string) {
	if len(mappings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  (none)")
		return
	}
	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s -> %s\n", name, mappings[name])
	}
}

func newAliasAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <alias> <command>",
		Short: "Add a custom alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, path, err := loadCurrentProject()
			if err != nil {
				return err
			}
			project.CustomAliases[args[0]] = args[1]
			if err := project.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added alias: %s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newAliasRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <alias>",
		Short: "Remove a custom alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, path, err := loadCurrentProject()
			if err != nil {
				return err
			}
			if _, ok := project.CustomAliases[args[0]]; !ok {
				return fmt.Errorf("alias %q not found", args[0])
			}
			delete(project.CustomAliases, args[0])
			if err := project.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed alias: %s\n", args[0])
			return nil
		},
	}
}

func newAliasToggleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Enable or disable alias resolution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, path, err := loadCurrentProject()
			if err != nil {
				return err
			}
			project.EnableAliases = !project.EnableAliases
			if err := project.Save(path); err != nil {
				return err
			}
			state := "disabled"
			if project.EnableAliases {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Aliases are now %s\n", state)
			return nil
		},
	}
}
