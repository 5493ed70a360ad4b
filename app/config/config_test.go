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
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "file", cfg.Gazetteer.Source)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, time.Hour, cfg.Batch.JobTTL)
	assert.Equal(t, 1500*time.Millisecond, RequestTimeout())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  port: "9090"
cache:
  backend: redis
  ttl: 1h
batch:
  workers: 2
`), 0o644))

	t.Setenv("CACHE_BACKEND", "tiered")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "tiered", cfg.Cache.Backend)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, *cfg, C)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	testCases := []struct {
		name    string
		content string
	}{
		{name: "Unknown cache backend", content: "cache:\n  backend: memcached\n"},
		{name: "Unknown gazetteer source", content: "gazetteer:\n  source: http\n"},
		{name: "No workers", content: "batch:\n  workers: 0\n"},
		{name: "Review without mongo", content: "review:\n  enabled: true\nmongo:\n  url: \"\"\n"},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "cfg"+string(rune('a'+i))+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
