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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
archive:
  base_url: http://mirror.test/pub/time.series/
  timeout_seconds: 30
  disable_fallback: true
cache:
  backend: redis
  redis_addr: redis.test:6379
  redis_ttl_minutes: 60
export:
  enabled: true
  database_url: postgres://localhost/bls
  table: observations
releases:
  feed_url: http://feeds.test/releases.rss
  lookback_days: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http://mirror.test/pub/time.series/", cfg.Archive.BaseURL)
	assert.Equal(t, 30, cfg.Archive.TimeoutSeconds)
	assert.True(t, cfg.Archive.DisableFallback)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis.test:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 60, cfg.Cache.RedisTTLMinutes)
	assert.True(t, cfg.Export.Enabled)
	assert.Equal(t, "observations", cfg.Export.Table)
	assert.Equal(t, 7, cfg.Releases.LookbackDays)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 3000\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 60, cfg.Archive.TimeoutSeconds)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, 24*60, cfg.Cache.RedisTTLMinutes)
	assert.Equal(t, "bls_observations", cfg.Export.Table)
	assert.Equal(t, 14, cfg.Releases.LookbackDays)
	assert.NotEmpty(t, cfg.Releases.FeedURL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}

func TestValidateCacheBackend(t *testing.T) {
	_, err := Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	assert.ErrorContains(t, err, "unknown cache backend")
}

func TestValidateS3RequiresBucket(t *testing.T) {
	_, err := Load(writeConfig(t, "cache:\n  backend: s3\n"))
	assert.ErrorContains(t, err, "s3_bucket")
}

func TestValidateExportRequiresDatabaseURL(t *testing.T) {
	_, err := Load(writeConfig(t, "export:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "database_url")
}

func TestLoadFromEnvDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("BLSLOAD_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("BLSLOAD_BASE_URL", "http://mirror.test/")
	t.Setenv("BLSLOAD_CACHE_BACKEND", "disk")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://mirror.test/", cfg.Archive.BaseURL)
	assert.Equal(t, "disk", cfg.Cache.Backend)
}

func TestLoadFromEnvOverlaysFile(t *testing.T) {
	path := writeConfig(t, "cache:\n  backend: disk\n")
	t.Setenv("BLSLOAD_CONFIG", path)
	t.Setenv("BLSLOAD_REDIS_ADDR", "other.test:6379")
	t.Setenv("DATABASE_URL", "postgres://env.test/bls")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "disk", cfg.Cache.Backend)
	assert.Equal(t, "other.test:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, "postgres://env.test/bls", cfg.Export.DatabaseURL)
}
