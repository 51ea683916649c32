package alias

// Table maps (package manager, command name) to a concrete command line.
// Tables are built once at startup and never mutated afterwards, so they are
// safe for concurrent reads during scheduling.
type Table map[string]map[string]string

// Provider contributes additional convention entries, e.g. from an active
// profile or a plugin registered at startup. Entries from later providers
// override earlier ones; built-in entries are overridden by any provider.
type Provider interface {
	Conventions() map[string]map[string]string
}

// ProviderFunc adapts a plain function to the Provider interface.
type ProviderFunc func() map[string]map[string]string

func (f ProviderFunc) Conventions() map[string]map[string]string { return f() }

// builtinConventions is the fixed table translating well-known command names
// into package-manager-specific invocations.
var builtinConventions = map[string]map[string]string{
	"npm": {
		"install": "npm install",
		"start":   "npm start",
		"test":    "npm test",
		"build":   "npm run build",
		"dev":     "npm run dev",
	},
	"yarn": {
		"install": "yarn install",
		"add":     "yarn add",
		"start":   "yarn start",
		"test":    "yarn test",
		"build":   "yarn build",
		"dev":     "yarn dev",
	},
	"pnpm": {
		"install": "pnpm install",
		"add":     "pnpm add",
		"start":   "pnpm start",
		"test":    "pnpm test",
		"build":   "pnpm build",
		"dev":     "pnpm dev",
	},
	"bun": {
		"install": "bun install",
		"add":     "bun add",
		"start":   "bun run start",
		"test":    "bun test",
		"build":   "bun run build",
		"dev":     "bun run dev",
	},
	"pip": {
		"install": "pip install -r requirements.txt",
		"test":    "pytest",
	},
	"poetry": {
		"install": "poetry install",
		"add":     "poetry add",
		"test":    "poetry run pytest",
		"build":   "poetry build",
	},
	"pipenv": {
		"install": "pipenv install",
		"test":    "pipenv run pytest",
	},
	"cargo": {
		"build": "cargo build",
		"test":  "cargo test",
		"run":   "cargo run",
		"check": "cargo check",
		"fmt":   "cargo fmt",
	},
	"go": {
		"build": "go build ./...",
		"test":  "go test ./...",
		"run":   "go run .",
		"vet":   "go vet ./...",
	},
	"maven": {
		"build":   "mvn clean compile",
		"test":    "mvn test",
		"package": "mvn package",
	},
	"gradle": {
		"build": "gradle build",
		"test":  "gradle test",
	},
	"composer": {
		"install": "composer install",
		"test":    "composer test",
	},
	"bundler": {
		"install": "bundle install",
		"test":    "bundle exec rspec",
	},
}

// NewTable merges the built-in conventions with entries from the given
// providers into a fresh immutable table.
func NewTable(providers ...Provider) Table {
	table := make(Table, len(builtinConventions))
	for pm, commands := range builtinConventions {
		entry := make(map[string]string, len(commands))
		for name, line := range commands {
			entry[name] = line
		}
		table[pm] = entry
	}
	for _, provider := range providers {
		for pm, commands := range provider.Conventions() {
			entry, ok := table[pm]
			if !ok {
				entry = make(map[string]string, len(commands))
				table[pm] = entry
			}
			for name, line := range commands {
				entry[name] = line
			}
		}
	}
	return table
}

// Lookup returns the convention entry for (packageManager, commandName).
func (t Table) Lookup(packageManager, commandName string) (string, bool) {
	commands, ok := t[packageManager]
	if !ok {
		return "", false
	}
	line, ok := commands[commandName]
	return line, ok
}
