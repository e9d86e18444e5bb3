package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultListingURL, cfg.Scraper.URL)
	assert.Equal(t, 20, cfg.Scraper.MaxScrolls)
	assert.Equal(t, 2*time.Second, cfg.Scraper.ScrollPause)
	assert.Equal(t, 3*time.Second, cfg.Scraper.SettleDelay)
	assert.Equal(t, "playwright", cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"--no-sandbox", "--disable-dev-shm-usage"}, cfg.Browser.Args)
	assert.Equal(t, "div.single-products-box", cfg.Selectors.Item)
	assert.Equal(t, []string{".new-price", ".prices-zone strong"}, cfg.Selectors.Prices)
	assert.Equal(t, "zen_products.json", cfg.Output.File)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SCRAPER_MAX_SCROLLS", "5")
	t.Setenv("SCRAPER_SCROLL_PAUSE", "500ms")
	t.Setenv("BROWSER_DRIVER", "chromedp")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("SELECTOR_PRICES", ".price-now, .price")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5, cfg.Scraper.MaxScrolls)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.ScrollPause)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{".price-now", ".price"}, cfg.Selectors.Prices)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, int32(4), cfg.Database.MaxConns)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "No URL", mutate: func(c *Config) { c.Scraper.URL = "" }},
		{name: "No scrolls", mutate: func(c *Config) { c.Scraper.MaxScrolls = 0 }},
		{name: "Negative pause", mutate: func(c *Config) { c.Scraper.ScrollPause = -time.Second }},
		{name: "Unknown driver", mutate: func(c *Config) { c.Browser.Driver = "lynx" }},
		{name: "No link selector", mutate: func(c *Config) { c.Selectors.Link = "" }},
		{name: "No output file", mutate: func(c *Config) { c.Output.File = "" }},
		{name: "Database without host", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Host = ""
		}},
		{name: "Bad port", mutate: func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			cfg, err := Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
