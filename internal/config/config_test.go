package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./telescan.db", cfg.Database.Path)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, "passage: ", cfg.Embedding.Prefix)
	assert.Equal(t, 100, cfg.Ingest.BatchLimit)
	assert.Equal(t, time.Hour, cfg.Schedule.ParseInterval())
	assert.Equal(t, 30*time.Second, cfg.Ingest.ParseFetchTimeout())
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /var/lib/telescan.db
telegram:
  api_id: 12345
  api_hash: abcdef
embedding:
  model: text-embedding-3-small
  dimension: 1536
ingest:
  batch_limit: 50
  fetch_timeout: 10s
schedule:
  interval: 15m
server:
  port: 9000
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/telescan.db", cfg.Database.Path)
	assert.Equal(t, 12345, cfg.Telegram.APIID)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 50, cfg.Ingest.BatchLimit)
	assert.Equal(t, 10*time.Second, cfg.Ingest.ParseFetchTimeout())
	assert.Equal(t, 15*time.Minute, cfg.Schedule.ParseInterval())
	assert.Equal(t, 9000, cfg.Server.Port)

	// Unset keys keep defaults.
	assert.Equal(t, "passage: ", cfg.Embedding.Prefix)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELESCAN_DB_PATH", "/tmp/override.db")
	t.Setenv("TELEGRAM_API_ID", "777")
	t.Setenv("TELEGRAM_API_HASH", "hash-from-env")
	t.Setenv("TELESCAN_PORT", "8081")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 777, cfg.Telegram.APIID)
	assert.Equal(t, "hash-from-env", cfg.Telegram.APIHash)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestBadDurationFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Schedule.Interval = "not-a-duration"
	assert.Equal(t, time.Hour, cfg.Schedule.ParseInterval())
}
