package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harrison/cyrus/internal/filelock"
	"github.com/harrison/cyrus/internal/runbook"
)

// ProjectFile is the per-project descriptor file name.
const ProjectFile = "cyrus.yaml"

// Project is the validated per-project configuration consumed by alias
// resolution and command execution.
type Project struct {
	Name            string            `yaml:"name"`
	Language        string            `yaml:"language"`
	Version         string            `yaml:"version"`
	PackageManager  string            `yaml:"package_manager"`
	Dependencies    []string          `yaml:"dependencies,omitempty"`
	DevDependencies []string          `yaml:"dev_dependencies,omitempty"`
	Scripts         map[string]string `yaml:"scripts"`
	CustomAliases   map[string]string `yaml:"custom_aliases"`
	EnableAliases   bool              `yaml:"enable_aliases"`
	Environment     map[string]string `yaml:"environment,omitempty"`
}

// NewProject creates a project configuration seeded with default scripts and
// package-manager aliases for the given language.
func NewProject(name, language, version, packageManager string) *Project {
	p := &Project{
		Name:           name,
		Language:       language,
		Version:        version,
		PackageManager: packageManager,
		Scripts:        make(map[string]string),
		CustomAliases:  make(map[string]string),
		EnableAliases:  true,
		Environment:    make(map[string]string),
	}

	switch language {
	case "javascript":
		p.Scripts["start"] = "npm start"
		p.Scripts["dev"] = "npm run dev"
		p.Scripts["build"] = "npm run build"
		p.Scripts["test"] = "npm test"
		switch packageManager {
		case "yarn", "pnpm":
			for _, name := range []string{"dev", "start", "build", "test"} {
				p.CustomAliases[name] = packageManager + " " + name
			}
		case "bun":
			p.CustomAliases["dev"] = "bun run dev"
			p.CustomAliases["start"] = "bun run start"
			p.CustomAliases["build"] = "bun run build"
			p.CustomAliases["test"] = "bun test"
		}
	case "python":
		p.Scripts["start"] = "python main.py"
		p.Scripts["test"] = "pytest"
		p.Scripts["lint"] = "flake8"
		p.Scripts["format"] = "black ."
		switch packageManager {
		case "poetry":
			p.CustomAliases["install"] = "poetry install"
			p.CustomAliases["add"] = "poetry add"
			p.CustomAliases["test"] = "poetry run pytest"
			p.CustomAliases["run"] = "poetry run"
		case "pipenv":
			p.CustomAliases["install"] = "pipenv install"
			p.CustomAliases["shell"] = "pipenv shell"
			p.CustomAliases["run"] = "pipenv run"
		}
	case "golang":
		p.Scripts["build"] = "go build"
		p.Scripts["run"] = "go run main.go"
		p.Scripts["test"] = "go test"
		p.Scripts["mod"] = "go mod tidy"
	case "rust":
		p.Scripts["build"] = "cargo build"
		p.Scripts["run"] = "cargo run"
		p.Scripts["test"] = "cargo test"
		p.Scripts["check"] = "cargo check"
		p.Scripts["fmt"] = "cargo fmt"
	case "java":
		p.Scripts["compile"] = "javac *.java"
		p.Scripts["run"] = "java Main"
		p.Scripts["test"] = "mvn test"
		p.Scripts["build"] = "mvn clean compile"
	case "php":
		p.Scripts["serve"] = "php -S localhost:8000"
		p.Scripts["test"] = "phpunit"
	case "ruby":
		p.Scripts["run"] = "ruby main.rb"
		p.Scripts["test"] = "rspec"
	}

	return p
}

// LoadProject reads and validates a project descriptor. Scripts defined in a
// cyrusfile.md runbook next to the descriptor are merged in; explicit
// descriptor entries win on collision.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if p.Scripts == nil {
		p.Scripts = make(map[string]string)
	}
	if p.CustomAliases == nil {
		p.CustomAliases = make(map[string]string)
	}
	if p.Environment == nil {
		p.Environment = make(map[string]string)
	}

	runbookScripts, err := runbook.Load(filepath.Join(filepath.Dir(path), runbook.FileName))
	if err != nil {
		return nil, err
	}
	for name, command := range runbookScripts {
		if _, exists := p.Scripts[name]; !exists {
			p.Scripts[name] = command
		}
	}

	return &p, nil
}

// Save writes the project descriptor atomically.
func (p *Project) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize project config: %w", err)
	}
	return filelock.AtomicWrite(path, data)
}

// FindProjectRoot walks upward from start looking for a cyrus.yaml and
// returns the directory containing it.
func FindProjectRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ProjectFile)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in %s or any parent directory", ProjectFile, start)
		}
		dir = parent
	}
}

// DetectLanguage guesses a project's language from well-known marker files.
// Returns "" when no marker is present.
func DetectLanguage(dir string) string {
	markers := []struct {
		file     string
		language string
	}{
		{"package.json", "javascript"},
		{"Cargo.toml", "rust"},
		{"pyproject.toml", "python"},
		{"requirements.txt", "python"},
		{"go.mod", "golang"},
		{"pom.xml", "java"},
		{"build.gradle", "java"},
		{"composer.json", "php"},
		{"Gemfile", "ruby"},
	}
	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			return m.language
		}
	}
	return ""
}
