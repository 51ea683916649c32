package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `max_concurrency: 3
member_timeout: 90s
log_level: debug
history_db: /var/lib/cyrus/history.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.Equal(t, 90*time.Second, cfg.MemberTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/cyrus/history.db", cfg.HistoryDB)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_concurrency: 8\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.MemberTimeout)
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("member_timeout: soon\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "member_timeout")
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".cyrus"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".cyrus", "config.yaml"), []byte("log_level: warn\n"), 0o644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -1 }, true},
		{"negative timeout", func(c *Config) { c.MemberTimeout = -time.Second }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"trace level", func(c *Config) { c.LogLevel = "trace" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	maxConcurrency := 5
	timeout := time.Minute

	cfg.MergeWithFlags(&maxConcurrency, &timeout, nil)

	assert.Equal(t, 5, cfg.MaxConcurrency)
	assert.Equal(t, time.Minute, cfg.MemberTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
}
