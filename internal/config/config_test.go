package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/chatsim/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", noEnvFile(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  shutdown_timeout: 2s
  allowed_origins: ["http://localhost:3000"]
log:
  level: debug
redis:
  addr: localhost:6379
  max_len: 50
`), 0o644))

	t.Setenv("CHATSIM_LOG_FORMAT", "json")
	t.Setenv("CHATSIM_REDIS_MAX_LEN", "75")
	t.Setenv("CHATSIM_SERVER_SHUTDOWN_TIMEOUT", "10s")

	cfg, err := Load(path, noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(75), cfg.Redis.MaxLen)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "chatsim:intents", cfg.Redis.Stream)
}

func TestLoad_DotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CHATSIM_INPUT_MAX_SIZE=128\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CHATSIM_INPUT_MAX_SIZE") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Input.MaxSize)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), noEnvFile(t))
		assert.Error(t, err)
	})

	t.Run("Bad Format", func(t *testing.T) {
		t.Setenv("CHATSIM_LOG_FORMAT", "xml")
		_, err := Load("", noEnvFile(t))
		assert.ErrorContains(t, err, "log.format")
	})

	t.Run("Bad Duration", func(t *testing.T) {
		t.Setenv("CHATSIM_SERVER_SHUTDOWN_TIMEOUT", "soon")
		_, err := Load("", noEnvFile(t))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Empty Addr", func(c *Config) { c.Server.Addr = "" }},
		{"Zero Input", func(c *Config) { c.Input.MaxSize = 0 }},
		{"Relative Metrics Path", func(c *Config) { c.Metrics.Path = "metrics" }},
		{"Redis Without Stream", func(c *Config) { c.Redis.Addr = "x:1"; c.Redis.Stream = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadCatalog(t *testing.T) {
	cfg := Default()
	cat, err := cfg.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCatalog(), cat)

	dir := t.TempDir()
	cfg.Catalog.Path = filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(cfg.Catalog.Path, []byte(`
integrations:
  - id: linkedin
    name: LinkedIn Ads
    emoji: "💼"
    primary: true
domains:
  - id: social
    name: Social
    emoji: "📣"
    description: Posting and engagement
    commitment: "**Social**: I'll plan your posts"
`), 0o600))
	cat, err = cfg.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"linkedin"}, cat.IntegrationIDs())
	assert.True(t, cat.Integrations[0].Primary)

	require.NoError(t, os.WriteFile(cfg.Catalog.Path, []byte("integrations: []\n"), 0o600))
	_, err = cfg.LoadCatalog()
	assert.ErrorContains(t, err, "invalid catalog")

	cfg.Catalog.Path = filepath.Join(dir, "missing.yaml")
	_, err = cfg.LoadCatalog()
	assert.Error(t, err)
}
