// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Engine names accepted by the crawl configuration.
const (
	EngineMaps   = "maps"
	EngineGoogle = "google"
	EngineYahoo  = "yahoo"
	EngineBing   = "bing"
)

// Dork targets.
const (
	TargetEmail   = "email"
	TargetProfile = "profile"
)

// Config holds all configuration for the application.
type Config struct {
	Crawl    CrawlConfig
	Database DatabaseConfig
	Export   ExportConfig
	Log      LogConfig
}

// CrawlConfig holds the per-run crawl parameters. The core treats this as an
// immutable value threaded through every component.
type CrawlConfig struct {
	Keywords string
	Location string
	Engine   string // maps, google, yahoo, bing
	Target   string // email or profile (dork engines only)

	MaxScrolls   int // scroll ceiling for the map feed
	MaxPages     int // page ceiling for dork engines
	ResultsLimit int // hard cap on accepted leads

	Headless      bool
	AntiDetection bool

	NavTimeout        time.Duration
	MinDelay          time.Duration
	MaxDelay          time.Duration
	MaxRetries        int
	RetryDelay        time.Duration
	BlockPollInterval time.Duration
	MaxBlockWait      time.Duration // headless runs give up on a block after this
}

// DatabaseConfig holds the optional lead store configuration.
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// ExportConfig holds spreadsheet export configuration.
type ExportConfig struct {
	OutputFile string
	SheetName  string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Crawl: CrawlConfig{
			Keywords:          getEnv("SEARCH_KEYWORDS", ""),
			Location:          getEnv("DEFAULT_LOCATION", "New York"),
			Engine:            getEnv("SEARCH_ENGINE", EngineMaps),
			Target:            getEnv("SEARCH_TARGET", TargetEmail),
			MaxScrolls:        getEnvAsInt("MAX_SCROLLS", 15),
			MaxPages:          getEnvAsInt("MAX_PAGES", 15),
			ResultsLimit:      getEnvAsInt("RESULTS_LIMIT", 100),
			Headless:          getEnvAsBool("HEADLESS", false),
			AntiDetection:     getEnvAsBool("ANTI_DETECTION", true),
			NavTimeout:        getEnvAsDuration("NAV_TIMEOUT", 60*time.Second),
			MinDelay:          getEnvAsDuration("MIN_DELAY", time.Second),
			MaxDelay:          getEnvAsDuration("MAX_DELAY", 2500*time.Millisecond),
			MaxRetries:        getEnvAsInt("MAX_RETRIES", 3),
			RetryDelay:        getEnvAsDuration("RETRY_DELAY", time.Second),
			BlockPollInterval: getEnvAsDuration("BLOCK_POLL_INTERVAL", 15*time.Second),
			MaxBlockWait:      getEnvAsDuration("MAX_BLOCK_WAIT", 5*time.Minute),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "leads"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		},
		Export: ExportConfig{
			OutputFile: getEnv("OUTPUT_FILE", "leads_output.xlsx"),
			SheetName:  getEnv("OUTPUT_SHEET", "Leads"),
		},
		Log: LogConfig{
			Level:     getEnv("LOG_LEVEL", "info"),
			Format:    getEnv("LOG_FORMAT", "text"),
			AddSource: getEnvAsBool("LOG_ADD_SOURCE", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Crawl.Engine {
	case EngineMaps, EngineGoogle, EngineYahoo, EngineBing:
	default:
		return fmt.Errorf("unknown search engine %q", c.Crawl.Engine)
	}
	switch c.Crawl.Target {
	case TargetEmail, TargetProfile:
	default:
		return fmt.Errorf("unknown search target %q", c.Crawl.Target)
	}
	if c.Crawl.ResultsLimit < 1 {
		return fmt.Errorf("results limit must be positive, got %d", c.Crawl.ResultsLimit)
	}
	if c.Crawl.MaxScrolls < 1 || c.Crawl.MaxPages < 1 {
		return fmt.Errorf("pagination ceilings must be positive")
	}
	if c.Crawl.MaxDelay < c.Crawl.MinDelay {
		return fmt.Errorf("max delay %v below min delay %v", c.Crawl.MaxDelay, c.Crawl.MinDelay)
	}
	return nil
}

// DSN returns the database connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
