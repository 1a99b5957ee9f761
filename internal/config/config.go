package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Extractor ExtractorConfig
	Discovery DiscoveryConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Oracle    OracleConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type BrowserConfig struct {
	Headless        bool
	Timeout         time.Duration
	SettleTime      time.Duration
	PoolSize        int
	PagesPerRecycle int
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
	AcceptLanguage  string
	Locale          string
	ProxyServer     string
}

type ExtractorConfig struct {
	Concurrency  int
	RateLimitMin time.Duration
	RateLimitMax time.Duration
	MaxRetries   int
	DenyList     []string
}

type DiscoveryConfig struct {
	MinScore   int
	SampleSize int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	// Backend selects "file" or "postgres".
	Backend    string
	ConfigPath string
	OutputDir  string
}

type OracleConfig struct {
	Provider string
	Model    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Browser: BrowserConfig{
			Headless:        getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:         getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			SettleTime:      getDurationOrDefault("BROWSER_SETTLE_TIME", 2*time.Second),
			PoolSize:        getIntOrDefault("BROWSER_POOL_SIZE", 3),
			PagesPerRecycle: getIntOrDefault("BROWSER_PAGES_PER_RECYCLE", 25),
			ViewportWidth:   getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:  getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			UserAgent:       getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			AcceptLanguage:  getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-US,en;q=0.9"),
			Locale:          getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			ProxyServer:     getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Extractor: ExtractorConfig{
			Concurrency:  getIntOrDefault("EXTRACTOR_CONCURRENCY", 3),
			RateLimitMin: getDurationOrDefault("EXTRACTOR_RATE_LIMIT_MIN", 1*time.Second),
			RateLimitMax: getDurationOrDefault("EXTRACTOR_RATE_LIMIT_MAX", 5*time.Second),
			MaxRetries:   getIntOrDefault("EXTRACTOR_MAX_RETRIES", 2),
			DenyList:     getStringSliceOrDefault("EXTRACTOR_DENY_LIST", defaultDenyList()),
		},
		Discovery: DiscoveryConfig{
			MinScore:   getIntOrDefault("DISCOVERY_MIN_SCORE", 50),
			SampleSize: getIntOrDefault("DISCOVERY_SAMPLE_SIZE", 2),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "catalog_scraper"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Backend:    getEnvOrDefault("STORAGE_BACKEND", "file"),
			ConfigPath: getEnvOrDefault("STORAGE_CONFIG_PATH", "data/brand_configs.json"),
			OutputDir:  getEnvOrDefault("STORAGE_OUTPUT_DIR", "data/products"),
		},
		Oracle: OracleConfig{
			Provider: getEnvOrDefault("ORACLE_PROVIDER", ""),
			Model:    getEnvOrDefault("ORACLE_MODEL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Browser.PoolSize < 1 {
		return fmt.Errorf("BROWSER_POOL_SIZE must be at least 1")
	}

	if c.Browser.PagesPerRecycle < 1 {
		return fmt.Errorf("BROWSER_PAGES_PER_RECYCLE must be at least 1")
	}

	if c.Extractor.Concurrency < 1 {
		return fmt.Errorf("EXTRACTOR_CONCURRENCY must be at least 1")
	}

	if c.Extractor.RateLimitMin > c.Extractor.RateLimitMax {
		return fmt.Errorf("EXTRACTOR_RATE_LIMIT_MIN cannot be greater than EXTRACTOR_RATE_LIMIT_MAX")
	}

	if c.Discovery.MinScore < 0 || c.Discovery.MinScore > 100 {
		return fmt.Errorf("DISCOVERY_MIN_SCORE must be between 0 and 100")
	}

	if c.Discovery.SampleSize < 2 {
		return fmt.Errorf("DISCOVERY_SAMPLE_SIZE must be at least 2")
	}

	if c.Storage.Backend != "file" && c.Storage.Backend != "postgres" {
		return fmt.Errorf("STORAGE_BACKEND must be file or postgres")
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// defaultDenyList lists substrings of tracking/analytics hosts whose
// responses are never worth keeping.
func defaultDenyList() []string {
	return []string{
		"google-analytics.com",
		"googletagmanager.com",
		"doubleclick.net",
		"facebook.net",
		"facebook.com/tr",
		"hotjar.com",
		"segment.io",
		"segment.com",
		"sentry.io",
		"klaviyo.com",
		"clarity.ms",
		"tiktok.com",
		"pinterest.com",
		"criteo.com",
	}
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
		return strings.Split(value, ",")
	}
	return defaultValue
}
