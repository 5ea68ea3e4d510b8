package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	// A nonexistent explicit path is an error; loading without a path uses defaults.
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Ingest.FreshnessWindow)
	assert.Equal(t, 120*time.Second, cfg.Ingest.EPGFetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.Mirror.Timeout)
	assert.InDelta(t, 0.8, cfg.Reconcile.SyncThreshold, 0.0001)
	assert.InDelta(t, 0.6, cfg.Reconcile.AutoMapThreshold, 0.0001)
	assert.Equal(t, "ru", cfg.Ingest.DefaultLocale)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
ingest:
  freshness_window: 12h
  default_locale: en
reconcile:
  sync_threshold: 0.9
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Ingest.FreshnessWindow)
	assert.Equal(t, "en", cfg.Ingest.DefaultLocale)
	assert.InDelta(t, 0.9, cfg.Reconcile.SyncThreshold, 0.0001)
	// Untouched sections keep defaults.
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoad_HumanReadableValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ingest:
  freshness_window: 2d
mirror:
  max_bytes: 2MB
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.Ingest.FreshnessWindow)
	assert.Equal(t, int64(2*1024*1024), cfg.Mirror.MaxBytes)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GUIDESYNC_SERVER_PORT", "7070")
	t.Setenv("GUIDESYNC_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"empty base dir", func(c *Config) { c.Storage.BaseDir = "" }, "storage.base_dir"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"zero freshness", func(c *Config) { c.Ingest.FreshnessWindow = 0 }, "freshness_window"},
		{"threshold out of range", func(c *Config) { c.Reconcile.SyncThreshold = 1.5 }, "sync_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStorageConfig_Paths(t *testing.T) {
	c := StorageConfig{BaseDir: "/data", CacheDir: "epg_cache", AssetDir: "assets"}
	assert.Equal(t, "/data/epg_cache", c.CachePath())
	assert.Equal(t, "/data/assets", c.AssetPath())
}

func TestServerConfig_Address(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", c.Address())
}
