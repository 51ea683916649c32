package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/cyrus/internal/filelock"
	"github.com/harrison/cyrus/internal/models"
)

// WorkspaceFile is the workspace descriptor file name.
const WorkspaceFile = "cyrus-workspace.yaml"

// WorkspaceScript is a named command run across a subset of members.
type WorkspaceScript struct {
	Command         string   `yaml:"command"`
	Description     string   `yaml:"description,omitempty"`
	Members         []string `yaml:"members,omitempty"` // Empty means all enabled members
	Parallel        bool     `yaml:"parallel"`
	ContinueOnError bool     `yaml:"continue_on_error"`
}

// Workspace is the validated multi-project workspace descriptor.
type Workspace struct {
	Name            string                     `yaml:"name"`
	Description     string                     `yaml:"description,omitempty"`
	Members         []models.Member            `yaml:"members"`
	Environment     map[string]string          `yaml:"environment,omitempty"` // Shared across members
	Scripts         map[string]WorkspaceScript `yaml:"scripts,omitempty"`
	Parallel        bool                       `yaml:"parallel"`
	MaxParallelJobs int                        `yaml:"max_parallel_jobs"`

	// RootPath is the directory containing the descriptor; set on load.
	RootPath string `yaml:"-"`
}

// LoadWorkspace reads and validates the workspace descriptor in dir.
func LoadWorkspace(dir string) (*Workspace, error) {
	path := filepath.Join(dir, WorkspaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace descriptor %s: %w", path, err)
	}

	var ws Workspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse workspace descriptor %s: %w", path, err)
	}

	ws.RootPath, err = filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if ws.Environment == nil {
		ws.Environment = make(map[string]string)
	}

	if err := ws.Validate(); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Save writes the workspace descriptor atomically into its root directory.
func (w *Workspace) Save() error {
	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to serialize workspace descriptor: %w", err)
	}
	return filelock.AtomicWrite(filepath.Join(w.RootPath, WorkspaceFile), data)
}

// Validate checks structural invariants: non-empty workspace name, unique
// member names, non-empty member names and paths. Dependency references are
// validated by the graph builder, which also accounts for disabled members.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return fmt.Errorf("workspace name is required")
	}
	seen := make(map[string]bool, len(w.Members))
	for _, m := range w.Members {
		if m.Name == "" {
			return fmt.Errorf("workspace member has empty name")
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate workspace member %q", m.Name)
		}
		seen[m.Name] = true
		if m.Path == "" {
			return fmt.Errorf("member %q has empty path", m.Name)
		}
	}
	return nil
}

// Member returns the member with the given name.
func (w *Workspace) Member(name string) (models.Member, bool) {
	for _, m := range w.Members {
		if m.Name == name {
			return m, true
		}
	}
	return models.Member{}, false
}

// EnabledMembers returns the enabled members in descriptor order.
func (w *Workspace) EnabledMembers() []models.Member {
	var enabled []models.Member
	for _, m := range w.Members {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// MemberDir returns the absolute directory of a member.
func (w *Workspace) MemberDir(m models.Member) string {
	if filepath.IsAbs(m.Path) {
		return m.Path
	}
	return filepath.Join(w.RootPath, m.Path)
}

// MemberProject loads the member's own cyrus.yaml if present, or synthesizes
// a default configuration from the member's declared language. The workspace
// shared environment is layered under the member's own environment (member
// entries override shared ones on key collision).
func (w *Workspace) MemberProject(m models.Member) (*Project, error) {
	dir := w.MemberDir(m)
	descriptor := filepath.Join(dir, ProjectFile)

	var project *Project
	if _, err := os.Stat(descriptor); err == nil {
		project, err = LoadProject(descriptor)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", m.Name, err)
		}
	} else {
		language := m.Language
		if language == "" {
			language = DetectLanguage(dir)
		}
		project = NewProject(m.Name, language, "", defaultPackageManager(language))
	}

	if len(w.Environment) > 0 {
		merged := make(map[string]string, len(w.Environment)+len(project.Environment))
		for k, v := range w.Environment {
			merged[k] = v
		}
		for k, v := range project.Environment {
			merged[k] = v
		}
		project.Environment = merged
	}

	return project, nil
}

// defaultPackageManager maps a language to its conventional package manager.
func defaultPackageManager(language string) string {
	switch language {
	case "javascript":
		return "npm"
	case "python":
		return "pip"
	case "golang":
		return "go"
	case "rust":
		return "cargo"
	case "java":
		return "maven"
	case "php":
		return "composer"
	case "ruby":
		return "bundler"
	default:
		return ""
	}
}
