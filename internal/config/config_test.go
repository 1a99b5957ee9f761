package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Browser.PoolSize)
	assert.Equal(t, 25, cfg.Browser.PagesPerRecycle)
	assert.Equal(t, 3, cfg.Extractor.Concurrency)
	assert.Equal(t, 50, cfg.Discovery.MinScore)
	assert.Equal(t, 2, cfg.Discovery.SampleSize)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.NotEmpty(t, cfg.Extractor.DenyList)

	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BROWSER_POOL_SIZE", "7")
	t.Setenv("BROWSER_TIMEOUT", "45s")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("EXTRACTOR_DENY_LIST", "ads.example.com,pixels.example.com")
	t.Setenv("DISCOVERY_MIN_SCORE", "70")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Browser.PoolSize)
	assert.Equal(t, 45*time.Second, cfg.Browser.Timeout)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"ads.example.com", "pixels.example.com"}, cfg.Extractor.DenyList)
	assert.Equal(t, 70, cfg.Discovery.MinScore)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero pool size", func(c *Config) { c.Browser.PoolSize = 0 }},
		{"zero recycle threshold", func(c *Config) { c.Browser.PagesPerRecycle = 0 }},
		{"zero concurrency", func(c *Config) { c.Extractor.Concurrency = 0 }},
		{"inverted rate limits", func(c *Config) {
			c.Extractor.RateLimitMin = 10 * time.Second
			c.Extractor.RateLimitMax = time.Second
		}},
		{"min score out of range", func(c *Config) { c.Discovery.MinScore = 150 }},
		{"sample size too small", func(c *Config) { c.Discovery.SampleSize = 1 }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
