package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, 60, cfg.Server.RequestTimeoutSeconds)
	require.False(t, cfg.Auth.Enabled)
	require.Equal(t, 20000, cfg.Search.DefaultRatePerMinute)
	require.Equal(t, 64, cfg.Search.MaxConcurrentJobs)
	require.Equal(t, 250, cfg.Search.PausePollMs)
	require.Equal(t, 500, cfg.Search.HeartbeatEvery)
	require.Zero(t, cfg.RateLimit.RPS)
	require.True(t, cfg.Logging.Development)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
search:
  default_rate_per_minute: 500
  max_concurrent_jobs: 4
auth:
  enabled: true
  api_key: sekrit
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 500, cfg.Search.DefaultRatePerMinute)
	require.Equal(t, 4, cfg.Search.MaxConcurrentJobs)
	require.True(t, cfg.Auth.Enabled)
	require.Equal(t, "sekrit", cfg.Auth.APIKey)
	// Untouched keys keep their defaults.
	require.Equal(t, 250, cfg.Search.PausePollMs)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Server.Port = 0
	require.ErrorContains(t, cfg.Validate(), "server.port")

	cfg = base()
	cfg.Search.MaxConcurrentJobs = -1
	require.ErrorContains(t, cfg.Validate(), "max_concurrent_jobs")

	cfg = base()
	cfg.Search.DefaultRatePerMinute = 0
	require.ErrorContains(t, cfg.Validate(), "default_rate_per_minute")

	cfg = base()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = ""
	require.ErrorContains(t, cfg.Validate(), "api_key")
}
