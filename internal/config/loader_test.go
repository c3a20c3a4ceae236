package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Garden.FreePlantLimit)
	assert.Equal(t, 15, cfg.Garden.GuestLimit)
	assert.Equal(t, 50, cfg.Garden.HistoryCap)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
garden:
  free_plant_limit: 7
llm:
  provider: ollama
  model: llama3
  timeout: 5s
storage:
  backend: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("GARDEN_LLM_MODEL", "qwen2")
	t.Setenv("GARDEN_AUTH_TIER", "pro")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Garden.FreePlantLimit)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2", cfg.LLM.Model)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "pro", cfg.Auth.Tier)
	// untouched sections keep their defaults
	assert.Equal(t, 15, cfg.Garden.GuestLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad backend", func(c *Config) { c.Storage.Backend = "etcd" }, true},
		{"redis without url", func(c *Config) { c.Storage.Backend = "redis" }, true},
		{"redis with url", func(c *Config) {
			c.Storage.Backend = "redis"
			c.Storage.RedisURL = "redis://localhost:6379/0"
		}, false},
		{"bad provider", func(c *Config) { c.LLM.Provider = "bard" }, true},
		{"bad tier", func(c *Config) { c.Auth.Tier = "gold" }, true},
		{"zero history", func(c *Config) { c.Garden.HistoryCap = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
