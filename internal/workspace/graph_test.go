package workspace

import (
	"errors"
	"strings"
	"testing"

	"github.com/harrison/cyrus/internal/models"
)

func member(name string, deps ...string) models.Member {
	return models.Member{Name: name, Path: name, Enabled: true, DependsOn: deps}
}

func disabledMember(name string, deps ...string) models.Member {
	m := member(name, deps...)
	m.Enabled = false
	return m
}

func TestBuildGraph(t *testing.T) {
	tests := []struct {
		name    string
		members []models.Member
		wantLen int
		wantErr string
	}{
		{
			name:    "valid diamond",
			members: []models.Member{member("core"), member("api", "core"), member("web", "core"), member("e2e", "api", "web")},
			wantLen: 4,
		},
		{
			name:    "disabled member excluded",
			members: []models.Member{member("core"), disabledMember("legacy"), member("api", "core")},
			wantLen: 2,
		},
		{
			name:    "unknown dependency",
			members: []models.Member{member("api", "missing")},
			wantErr: `member "api" depends on unknown member "missing"`,
		},
		{
			name:    "dependency on disabled member",
			members: []models.Member{disabledMember("legacy"), member("api", "legacy")},
			wantErr: `member "api" depends on disabled member "legacy"`,
		},
		{
			name:    "self dependency",
			members: []models.Member{member("api", "api")},
			wantErr: `member "api" depends on itself`,
		},
		{
			name:    "cycle",
			members: []models.Member{member("a", "c"), member("b", "a"), member("c", "b")},
			wantErr: "circular dependency detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildGraph(tt.members)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("BuildGraph() succeeded, want error containing %q", tt.wantErr)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("BuildGraph() error = %q, want substring %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildGraph() error = %v", err)
			}
			if g.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", g.Len(), tt.wantLen)
			}
		})
	}
}

func TestBuildGraphCyclePath(t *testing.T) {
	_, err := BuildGraph([]models.Member{member("a", "b"), member("b", "c"), member("c", "a")})
	if !IsCycleError(err) {
		t.Fatalf("BuildGraph() error = %v, want CycleError", err)
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("error %v does not unwrap to *CycleError", err)
	}
	// The path names every participant and closes on the first member.
	if len(cycleErr.Path) != 4 {
		t.Fatalf("cycle path = %v, want 4 entries", cycleErr.Path)
	}
	if cycleErr.Path[0] != cycleErr.Path[len(cycleErr.Path)-1] {
		t.Errorf("cycle path %v does not close on its first member", cycleErr.Path)
	}
}

func TestGraphDependencies(t *testing.T) {
	g, err := BuildGraph([]models.Member{member("core"), member("api", "core"), member("web", "api", "core")})
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}

	deps := g.Dependencies("web")
	if len(deps) != 2 || deps[0] != "api" || deps[1] != "core" {
		t.Errorf("Dependencies(web) = %v, want [api core]", deps)
	}
	if deps := g.Dependencies("core"); len(deps) != 0 {
		t.Errorf("Dependencies(core) = %v, want none", deps)
	}

	if _, ok := g.Member("api"); !ok {
		t.Error("Member(api) not found")
	}
	if _, ok := g.Member("nope"); ok {
		t.Error("Member(nope) unexpectedly found")
	}
}
