package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 8, cfg.Recent.FanOut)
	assert.Equal(t, 5*time.Minute, cfg.Recent.Freshness)
	assert.Equal(t, 30*time.Second, cfg.Recent.Timeout)
	assert.False(t, cfg.HTTP.TrustProxy)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 2, cfg.OpenLibrary.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.OpenLibrary.Timeout)
	assert.Equal(t, "https://openlibrary.org", cfg.OpenLibrary.BaseURL)
	assert.Equal(t, "https://en.wikipedia.org/api/rest_v1", cfg.Wikipedia.BaseURL)
	assert.Equal(t, "bookfinder:recent:", cfg.Cache.Redis.Prefix)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bookfinder.yaml"), []byte(`
app:
  addr: ":9090"
recent:
  fanout: 4
  freshness: 2m
cache:
  backend: redis
  redis:
    addr: redis:6379
`), 0o644))

	t.Setenv("BOOKFINDER_RECENT_FANOUT", "16")
	t.Setenv("BOOKFINDER_SESSION_TTL", "10m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.App.Addr)
	assert.Equal(t, 16, cfg.Recent.FanOut, "env overrides file")
	assert.Equal(t, 2*time.Minute, cfg.Recent.Freshness)
	assert.Equal(t, 10*time.Minute, cfg.Session.TTL)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, true},
		{"redis without address", func(c *Config) {
			c.Cache.Backend = CacheRedis
			c.Cache.Redis.Addr = ""
		}, true},
		{"zero fanout", func(c *Config) { c.Recent.FanOut = 0 }, true},
		{"zero aggregation timeout", func(c *Config) { c.Recent.Timeout = 0 }, true},
		{"zero ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"negative retries", func(c *Config) { c.OpenLibrary.MaxRetries = -1 }, true},
		{"production needs secure cookies", func(c *Config) { c.App.Env = "production" }, true},
		{"production wildcard cors", func(c *Config) {
			c.App.Env = "production"
			c.HTTP.SecureCookies = true
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, true},
		{"production ok", func(c *Config) {
			c.App.Env = "production"
			c.HTTP.SecureCookies = true
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *base
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("BOOKFINDER_APP_ADDR=:7000\nBOOKFINDER_LOG_LEVEL=debug\n"), 0o644))
	chdir(t, dir)

	t.Setenv("BOOKFINDER_APP_ADDR", ":6000")
	t.Setenv("BOOKFINDER_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("BOOKFINDER_LOG_LEVEL"))

	LoadEnvFiles()
	t.Cleanup(func() { _ = os.Unsetenv("BOOKFINDER_LOG_LEVEL") })

	assert.Equal(t, ":6000", os.Getenv("BOOKFINDER_APP_ADDR"))
	assert.Equal(t, "debug", os.Getenv("BOOKFINDER_LOG_LEVEL"))
}
