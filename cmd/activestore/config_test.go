package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lychee-technology/activestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	defaults := activestore.DefaultConfig()
	assert.Equal(t, defaults.API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, defaults.API.Timeout, cfg.API.Timeout)
	assert.Equal(t, defaults.Snapshot.Table, cfg.Snapshot.Table)
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activestore.yaml")
	content := `
api:
  base_url: http://api.internal:9000
  timeout: 2s
  headers:
    authorization: Bearer token
store:
  track_anonymous_creates: true
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("ACTIVESTORE_API_PREFIX", "/v2")

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000", cfg.API.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.API.Timeout)
	assert.Equal(t, "/v2", cfg.API.Prefix)
	assert.Equal(t, "Bearer token", cfg.API.Headers["authorization"])
	assert.True(t, cfg.Store.TrackAnonymousCreates)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("ACTIVESTORE_SNAPSHOT_ENABLED", "true")

	_, err := loadConfig("")
	require.Error(t, err)

	var cfgErr *activestore.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "snapshot.dsn", cfgErr.Field)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     activestore.LoggingConfig
		wantErr bool
	}{
		{name: "json", cfg: activestore.LoggingConfig{Level: "info", Format: "json"}},
		{name: "console", cfg: activestore.LoggingConfig{Level: "debug", Format: "console"}},
		{name: "default level", cfg: activestore.LoggingConfig{}},
		{name: "bad level", cfg: activestore.LoggingConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := newLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}
