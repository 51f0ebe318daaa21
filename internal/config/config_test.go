package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(FileEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, Defaults(), *cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	content := `
database_url: postgres://localhost:5432/recruit
cycle: fall-2026
log_level: debug
batch_size: 250
metrics_enabled: false
`
	tmpFile := filepath.Join(t.TempDir(), "recruit.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := Load(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/recruit", cfg.DatabaseURL)
	assert.Equal(t, "fall-2026", cfg.Cycle)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "text", cfg.LogFormat, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "recruit.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("cycle: fall-2026\nbatch_size: 250\n"), 0644))

	t.Setenv(FileEnv, tmpFile)
	t.Setenv("RECRUIT_BATCH_SIZE", "100")
	t.Setenv("RECRUIT_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fall-2026", cfg.Cycle)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/recruit.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "recruit.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("cycle: [unterminated\n"), 0644))

	_, err := Load(tmpFile)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "config error"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "'log_format' must be text or json"},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }, "'batch_size' must be positive"},
		{"negative rate", func(c *Config) { c.RateLimitPerMin = -1 }, "rate limits must be non-negative"},
		{"negative grace", func(c *Config) { c.ShutdownGraceSecs = -1 }, "'shutdown_grace_secs'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRequireCycle(t *testing.T) {
	cfg := Defaults()
	err := cfg.RequireCycle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECRUIT_CYCLE")

	cfg.Cycle = "fall-2026"
	assert.NoError(t, cfg.RequireCycle())
}

func TestLogOptions(t *testing.T) {
	cfg := Defaults()
	cfg.LogFormat = "json"
	opts := cfg.LogOptions()
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "json", opts.Format)
}
