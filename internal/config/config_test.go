package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-blog-admin/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("BLOGADMIN_API_URL", "")
	t.Setenv("BLOGADMIN_REQUEST_TIMEOUT", "")
	t.Setenv("BLOGADMIN_REFRESH_COALESCING", "")
	t.Setenv("BLOGADMIN_RATE_LIMIT", "")
	t.Setenv("BLOGADMIN_RATE_BURST", "")
	t.Setenv("BLOGADMIN_LOG_LEVEL", "")

	t.Setenv("BLOGADMIN_DATA_FOLDER", "")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000", cfg.GetAPIURL())
	require.Equal(t, 30*time.Second, cfg.GetRequestTimeout())
	require.True(t, cfg.GetRefreshCoalescing())
	require.Zero(t, cfg.GetRateLimit())
	require.Equal(t, 5, cfg.GetRateBurst())
	require.Equal(t, "warn", cfg.GetLogLevel())
	require.Equal(t, "session.db", filepath.Base(cfg.GetDurableStorePath()))
}

func TestLoadFileOverlay(t *testing.T) {
	t.Setenv("BLOGADMIN_API_URL", "")
	t.Setenv("BLOGADMIN_REQUEST_TIMEOUT", "")
	t.Setenv("BLOGADMIN_REFRESH_COALESCING", "")
	t.Setenv("BLOGADMIN_DATA_FOLDER", "")
	dataDir := t.TempDir()
	path := writeConfig(t, `
api_url = "https://blog.example.com/api/"
data_folder = "`+filepath.ToSlash(dataDir)+`"
request_timeout = "5s"
refresh_coalescing = false
rate_limit = 2.5
rate_burst = 3
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://blog.example.com/api", cfg.GetAPIURL())
	require.Equal(t, 5*time.Second, cfg.GetRequestTimeout())
	require.False(t, cfg.GetRefreshCoalescing())
	require.Equal(t, 2.5, cfg.GetRateLimit())
	require.Equal(t, 3, cfg.GetRateBurst())
	require.Equal(t, filepath.Join(dataDir, "session.db"), cfg.GetDurableStorePath())
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `api_url = "https://from-file.example.com"`)
	t.Setenv("BLOGADMIN_API_URL", "https://from-env.example.com")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://from-env.example.com", cfg.GetAPIURL())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `api_uri = "typo"`)
	_, err := config.Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown keys")
}

func TestDefaultConfigPathFollowsDataFolder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLOGADMIN_DATA_FOLDER", dir)
	require.Equal(t, filepath.Join(dir, "config.toml"), config.DefaultConfigPath())
}
