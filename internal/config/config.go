package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultListingURL = "https://www.zen.com.tn/fr/tn/169-soldes-homme"

type Config struct {
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Selectors SelectorConfig
	Output    OutputConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

type ScraperConfig struct {
	URL         string
	MaxScrolls  int
	ScrollPause time.Duration
	SettleDelay time.Duration
}

type BrowserConfig struct {
	Driver         string
	Headless       bool
	Args           []string
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	ProxyServer    string
}

type SelectorConfig struct {
	Item     string
	Name     string
	Image    string
	Prices   []string
	Currency string
	Colors   string
	Link     string
}

type OutputConfig struct {
	File string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	Stream   string
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Scraper: ScraperConfig{
			URL:         getEnvOrDefault("SCRAPER_URL", DefaultListingURL),
			MaxScrolls:  getIntOrDefault("SCRAPER_MAX_SCROLLS", 20),
			ScrollPause: getDurationOrDefault("SCRAPER_SCROLL_PAUSE", 2*time.Second),
			SettleDelay: getDurationOrDefault("SCRAPER_SETTLE_DELAY", 3*time.Second),
		},
		Browser: BrowserConfig{
			Driver:         getEnvOrDefault("BROWSER_DRIVER", "playwright"),
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Args:           getStringSliceOrDefault("BROWSER_ARGS", []string{"--no-sandbox", "--disable-dev-shm-usage"}),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "fr-FR"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Africa/Tunis"),
			ProxyServer:    getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Selectors: SelectorConfig{
			Item:     getEnvOrDefault("SELECTOR_ITEM", "div.single-products-box"),
			Name:     getEnvOrDefault("SELECTOR_NAME", "h3 a"),
			Image:    getEnvOrDefault("SELECTOR_IMAGE", "img"),
			Prices:   getStringSliceOrDefault("SELECTOR_PRICES", []string{".new-price", ".prices-zone strong"}),
			Currency: getEnvOrDefault("SELECTOR_CURRENCY", "TND"),
			Colors:   getEnvOrDefault("SELECTOR_COLORS", ".more-colors"),
			Link:     getEnvOrDefault("SELECTOR_LINK", "a.d-block"),
		},
		Output: OutputConfig{
			File: getEnvOrDefault("OUTPUT_FILE", "zen_products.json"),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolOrDefault("DB_ENABLED", false),
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "listing_scraper"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Enabled:  getBoolOrDefault("REDIS_ENABLED", false),
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:listing_scrapes"),
		},
		Server: ServerConfig{
			Port:            getIntOrDefault("SERVER_PORT", 8080),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:*", "https://localhost:*"}),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.URL == "" {
		return fmt.Errorf("SCRAPER_URL is required")
	}

	if c.Scraper.MaxScrolls < 1 {
		return fmt.Errorf("SCRAPER_MAX_SCROLLS must be at least 1")
	}

	if c.Scraper.ScrollPause < 0 || c.Scraper.SettleDelay < 0 {
		return fmt.Errorf("scroll pause and settle delay cannot be negative")
	}

	switch c.Browser.Driver {
	case "playwright", "chromedp":
	default:
		return fmt.Errorf("BROWSER_DRIVER must be playwright or chromedp, got %q", c.Browser.Driver)
	}

	if c.Selectors.Item == "" || c.Selectors.Name == "" || c.Selectors.Image == "" || c.Selectors.Link == "" {
		return fmt.Errorf("item, name, image and link selectors are required")
	}

	if c.Output.File == "" {
		return fmt.Errorf("OUTPUT_FILE is required")
	}

	if c.Database.Enabled && (c.Database.Host == "" || c.Database.Name == "") {
		return fmt.Errorf("database host and name are required when DB_ENABLED is set")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var out []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return defaultValue
}
