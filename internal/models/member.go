package models

// Member represents a single project unit inside a workspace, with its own
// language configuration and dependency edges to other members.
type Member struct {
	Name      string   `yaml:"name"`       // Unique within the workspace
	Path      string   `yaml:"path"`       // Project directory, relative to the workspace root
	Language  string   `yaml:"language"`   // Primary language (optional, detectable)
	Enabled   bool     `yaml:"enabled"`    // Disabled members are excluded from orchestration
	DependsOn []string `yaml:"depends_on"` // Names of members this member depends on
}

// Wave is a batch of members eligible to run concurrently because all of
// their dependencies completed in earlier waves.
type Wave struct {
	Name    string   // Wave name (e.g., "Wave 1")
	Members []string // Member names in this wave, in stable workspace order
}
