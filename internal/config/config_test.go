package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "revisitor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, 5*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.NotEmpty(t, cfg.PresetRelays)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, `
listen: ":9000"
default_relay: nos.lol
preset_relays:
  - name: Local
    url: ws://localhost:7777
store:
  backend: sqlite
  path: /tmp/reviews.db
query_timeout: 2s
log:
  level: debug
`)
	t.Setenv("REVISITOR_LISTEN", ":9100")
	t.Setenv("REVISITOR_STORE_ENCRYPT", "true")
	t.Setenv("REVISITOR_LOG_FILE", "/tmp/revisitor.log")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Listen)
	assert.Equal(t, "wss://nos.lol", cfg.DefaultRelay)
	require.Len(t, cfg.PresetRelays, 1)
	assert.Equal(t, "Local", cfg.PresetRelays[0].Name)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.True(t, cfg.Store.Encrypt)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/revisitor.log", cfg.Log.File)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, "store:\n  backend: etcd\nquery_timeout: 0s\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
	assert.Contains(t, err.Error(), "query timeout")

	_, err = Load(writeFile(t, "listen: [unclosed"))
	assert.Error(t, err)
}

func TestTLSNeedsBothFiles(t *testing.T) {
	t.Setenv("REVISITOR_TLS_CERT_FILE", "server.crt")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "tls needs both")

	t.Setenv("REVISITOR_TLS_KEY_FILE", "server.key")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.True(t, cfg.TLS.Enabled())
}
