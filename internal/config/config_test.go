package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, 1.5, cfg.Index.K1)
	assert.Equal(t, 0.75, cfg.Index.B)
	assert.Equal(t, 0.7, cfg.Search.Alpha)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 100, cfg.Search.MaxLimit)
	assert.Equal(t, time.Hour, cfg.RefreshTTLDuration())
	assert.Equal(t, 5*time.Second, cfg.DenseTimeoutDuration())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search.Alpha, cfg.Search.Alpha)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maar.yaml")
	content := `
version: 1
index:
  backend: sqlite
  refresh_ttl: 30m
search:
  alpha: 0.5
  fusion_strategy: weighted
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, 0.5, cfg.Search.Alpha)
	assert.Equal(t, FusionStrategyWeighted, cfg.Search.FusionStrategy)
	assert.Equal(t, 30*time.Minute, cfg.RefreshTTLDuration())
	// Untouched fields keep defaults.
	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 1.5, cfg.Index.K1)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MAAR_ALPHA", "0.9")
	t.Setenv("MAAR_INDEX_BACKEND", "bleve")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Search.Alpha)
	assert.Equal(t, "bleve", cfg.Index.Backend)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad backend", func(c *Config) { c.Index.Backend = "elastic" }},
		{"negative k1", func(c *Config) { c.Index.K1 = -1 }},
		{"b out of range", func(c *Config) { c.Index.B = 1.5 }},
		{"bad ttl", func(c *Config) { c.Index.RefreshTTL = "eventually" }},
		{"zero default limit", func(c *Config) { c.Search.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Search.MaxLimit = 5 }},
		{"alpha out of range", func(c *Config) { c.Search.Alpha = 1.2 }},
		{"threshold out of range", func(c *Config) { c.Search.DefaultThreshold = -0.1 }},
		{"bad fusion strategy", func(c *Config) { c.Search.FusionStrategy = "average" }},
		{"bad rerank strategy", func(c *Config) { c.Rerank.Strategy = "llm" }},
		{"blend out of range", func(c *Config) { c.Rerank.BlendWeight = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maar.yaml")

	cfg := Default()
	cfg.Search.Alpha = 0.42
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.42, loaded.Search.Alpha)
}
