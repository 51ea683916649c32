// Package alias resolves abstract command names ("test", "build") into
// concrete command lines for a given project configuration.
//
// Resolution is layered: custom alias, then declared script, then the
// package-manager convention table. The first hit wins. Resolution is a pure
// function of its inputs: no I/O, no ambient state, identical inputs always
// produce identical output.
package alias

import (
	"fmt"
	"strings"

	"github.com/harrison/cyrus/internal/config"
)

// Source identifies which resolution layer produced a command.
type Source string

const (
	SourceAlias      Source = "alias"
	SourceScript     Source = "script"
	SourceConvention Source = "convention"
)

// ResolvedCommand is a concrete command line ready to spawn.
type ResolvedCommand struct {
	Line   string // The command line, verbatim from its source
	Source Source // Which layer matched
}

// Argv splits the command line into an argument vector. Templating markers
// and quoting are passed through untouched; expansion is a caller concern.
func (c ResolvedCommand) Argv() []string {
	return strings.Fields(c.Line)
}

// NotFoundError reports that no resolution layer matched a command name.
type NotFoundError struct {
	CommandName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no alias, script, or convention found for command %q", e.CommandName)
}

// Resolver resolves command names against an immutable convention table.
type Resolver struct {
	table Table
}

// NewResolver builds a resolver whose convention table merges the built-in
// entries with any provider contributions. Providers are consulted once,
// here; resolution itself never calls back into them.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{table: NewTable(providers...)}
}

// Resolve maps a command name to a concrete command line for the project.
//
// Order, first match wins:
//  1. custom alias (only when aliases are enabled)
//  2. declared script
//  3. package-manager convention (only when aliases are enabled)
//
// When enable_aliases is false, only the script table is consulted.
func (r *Resolver) Resolve(commandName string, project *config.Project) (ResolvedCommand, error) {
	if project.EnableAliases {
		if line, ok := project.CustomAliases[commandName]; ok {
			return ResolvedCommand{Line: line, Source: SourceAlias}, nil
		}
	}

	if line, ok := project.Scripts[commandName]; ok {
		return ResolvedCommand{Line: line, Source: SourceScript}, nil
	}

	if project.EnableAliases {
		if line, ok := r.table.Lookup(project.PackageManager, commandName); ok {
			return ResolvedCommand{Line: line, Source: SourceConvention}, nil
		}
	}

	return ResolvedCommand{}, &NotFoundError{CommandName: commandName}
}
