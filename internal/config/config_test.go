package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCatalogFile, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "ffa59da09972e55e", cfg.SDK.AccountID)
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCatalogFile, "")

	path := writeConfig(t, `
api_key: from-file
history:
  enabled: true
server:
  port: 9090
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.APIKey)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 100, cfg.History.Limit)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "stderr", cfg.Logger().Output)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvCatalogFile, "/tmp/catalog.yaml")

	cfg, err := Load(writeConfig(t, "api_key: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "/tmp/catalog.yaml", cfg.CatalogFile)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvCatalogFile, "")

	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "server: [1,"},
		{"negative limit", "history:\n  limit: -1\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"bad level", "log:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSDKSettings(t *testing.T) {
	cfg := Default()
	cfg.SDK.AccountID = "acct"
	s := cfg.SDKSettings()
	assert.Equal(t, "acct", s.AccountID)
	assert.True(t, s.AutoShow)
	assert.Equal(t, "https://cdn.pubtailer.com/launcher.min.js", s.ScriptURL)
}
