package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	StorageDriver    string
	SQLitePath       string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	TicketmasterAPIKey  string
	SeatGeekClientID    string
	TicketmasterBaseURL string
	SeatGeekBaseURL     string
	GametimeBaseURL     string

	ProviderTimeout time.Duration
	MaxConcurrency  int
	RateLimitMs     int
	MaxRetries      int

	SearchCacheSize      int
	SearchCacheTTL       time.Duration
	PersistSearchResults bool

	ScraperBin      string
	ScraperDir      string
	ScraperTimeout  time.Duration
	ScraperAuthFile string
	ChromeBin       string
	CSVOutputPath   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", "sqlite")),
		SQLitePath:       getEnv("SQLITE_PATH", "./instance/database.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "tickets"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "tickets123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tickets_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		TicketmasterAPIKey:  os.Getenv("TICKETMASTER_API_KEY"),
		SeatGeekClientID:    os.Getenv("SEATGEEK_CLIENT_ID"),
		TicketmasterBaseURL: getEnv("TICKETMASTER_BASE_URL", "https://app.ticketmaster.com"),
		SeatGeekBaseURL:     getEnv("SEATGEEK_BASE_URL", "https://api.seatgeek.com"),
		GametimeBaseURL:     getEnv("GAMETIME_BASE_URL", "https://gametime.co"),

		ProviderTimeout: getEnvDurationMs("PROVIDER_TIMEOUT_MS", 10000),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 0),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),

		SearchCacheSize:      getEnvInt("SEARCH_CACHE_SIZE", 128),
		SearchCacheTTL:       getEnvDurationSec("SEARCH_CACHE_TTL_SEC", 300),
		PersistSearchResults: getEnvBool("PERSIST_SEARCH_RESULTS", true),

		ScraperBin:      getEnv("SCRAPER_BIN", "./bin/scraper"),
		ScraperDir:      getEnv("SCRAPER_DIR", "."),
		ScraperTimeout:  getEnvDurationSec("SCRAPER_TIMEOUT_SEC", 180),
		ScraperAuthFile: getEnv("SCRAPER_AUTH_FILE", "auth.json"),
		ChromeBin:       getEnv("CHROME_BIN", ""),
		CSVOutputPath:   getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http address cannot be empty")
	}
	switch c.StorageDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite path cannot be empty")
		}
	case "postgres":
		if c.PostgresHost == "" || c.PostgresDB == "" {
			return fmt.Errorf("postgres host and database are required")
		}
	default:
		return fmt.Errorf("storage driver must be sqlite or postgres, got %q", c.StorageDriver)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("provider timeout must be positive")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive")
	}
	if c.RateLimitMs < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.SearchCacheSize < 0 {
		return fmt.Errorf("search cache size cannot be negative")
	}
	if c.SearchCacheSize > 0 && c.SearchCacheTTL <= 0 {
		return fmt.Errorf("search cache ttl must be positive when the cache is enabled")
	}
	if c.ScraperTimeout <= 0 {
		return fmt.Errorf("scraper timeout must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// RateLimit returns the minimum spacing between provider calls.
func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

// BrowserAuth holds the remote browser credentials read by the scrape collaborator.
type BrowserAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Host     string `json:"host"`
}

// WebSocketURL returns the authenticated CDP endpoint.
func (a *BrowserAuth) WebSocketURL() string {
	return "wss://" + a.Username + ":" + a.Password + "@" + a.Host
}

// LoadBrowserAuth reads username/password/host from a JSON credential file.
func LoadBrowserAuth(path string) (*BrowserAuth, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read browser auth %q: %w", path, err)
	}
	var auth BrowserAuth
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("config: parse browser auth %q: %w", path, err)
	}
	if auth.Host == "" || auth.Username == "" || auth.Password == "" {
		return nil, fmt.Errorf("config: browser auth %q must set username, password and host", path)
	}
	return &auth, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] Invalid int for %s=%q, using default %d", key, val, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Printf("[config] Invalid bool for %s=%q, using default %t", key, val, fallback)
		return fallback
	}
	return b
}

func getEnvDurationMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

func getEnvDurationSec(key string, fallbackSec int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackSec)) * time.Second
}
