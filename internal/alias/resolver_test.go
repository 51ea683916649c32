package alias

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/cyrus/internal/config"
)

func testProject() *config.Project {
	return &config.Project{
		Name:           "demo",
		Language:       "javascript",
		PackageManager: "bun",
		Scripts:        map[string]string{},
		CustomAliases:  map[string]string{},
		EnableAliases:  true,
		Environment:    map[string]string{},
	}
}

func TestResolveOrder(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*config.Project)
		command    string
		wantLine   string
		wantSource Source
		wantErr    bool
	}{
		{
			name: "custom alias wins over script",
			setup: func(p *config.Project) {
				p.CustomAliases["t"] = "bun test"
				p.Scripts["t"] = "npm test"
			},
			command:    "t",
			wantLine:   "bun test",
			wantSource: SourceAlias,
		},
		{
			name: "script used when no alias",
			setup: func(p *config.Project) {
				p.Scripts["lint"] = "eslint ."
			},
			command:    "lint",
			wantLine:   "eslint .",
			wantSource: SourceScript,
		},
		{
			name:       "convention fallback",
			setup:      func(p *config.Project) {},
			command:    "test",
			wantLine:   "bun test",
			wantSource: SourceConvention,
		},
		{
			name: "script wins over convention",
			setup: func(p *config.Project) {
				p.Scripts["test"] = "vitest run"
			},
			command:    "test",
			wantLine:   "vitest run",
			wantSource: SourceScript,
		},
		{
			name:    "unknown command fails",
			setup:   func(p *config.Project) {},
			command: "deploy",
			wantErr: true,
		},
		{
			name: "templating markers pass through verbatim",
			setup: func(p *config.Project) {
				p.Scripts["release"] = "publish --tag ${VERSION}"
			},
			command:    "release",
			wantLine:   "publish --tag ${VERSION}",
			wantSource: SourceScript,
		},
	}

	resolver := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := testProject()
			tt.setup(project)

			resolved, err := resolver.Resolve(tt.command, project)
			if tt.wantErr {
				require.Error(t, err)
				var nfe *NotFoundError
				require.ErrorAs(t, err, &nfe)
				assert.Equal(t, tt.command, nfe.CommandName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLine, resolved.Line)
			assert.Equal(t, tt.wantSource, resolved.Source)
		})
	}
}

func TestResolveAliasesDisabled(t *testing.T) {
	resolver := NewResolver()
	project := testProject()
	project.EnableAliases = false
	project.CustomAliases["test"] = "bun test"

	// Neither the matching custom alias nor the convention table may be
	// consulted when aliases are disabled.
	_, err := resolver.Resolve("test", project)
	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)

	project.Scripts["test"] = "npm test"
	resolved, err := resolver.Resolve("test", project)
	require.NoError(t, err)
	assert.Equal(t, "npm test", resolved.Line)
	assert.Equal(t, SourceScript, resolved.Source)
}

func TestResolveDeterministic(t *testing.T) {
	resolver := NewResolver()
	project := testProject()
	project.Scripts["build"] = "bun run build"

	first, err := resolver.Resolve("build", project)
	require.NoError(t, err)
	second, err := resolver.Resolve("build", project)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestProviderOverridesBuiltins(t *testing.T) {
	provider := ProviderFunc(func() map[string]map[string]string {
		return map[string]map[string]string{
			"bun":  {"test": "bun test --coverage"},
			"deno": {"test": "deno test"},
		}
	})
	resolver := NewResolver(provider)

	project := testProject()
	resolved, err := resolver.Resolve("test", project)
	require.NoError(t, err)
	assert.Equal(t, "bun test --coverage", resolved.Line)

	project.PackageManager = "deno"
	resolved, err = resolver.Resolve("test", project)
	require.NoError(t, err)
	assert.Equal(t, "deno test", resolved.Line)
}

func TestResolvedCommandArgv(t *testing.T) {
	cmd := ResolvedCommand{Line: "poetry run pytest -x"}
	assert.Equal(t, []string{"poetry", "run", "pytest", "-x"}, cmd.Argv())
}
