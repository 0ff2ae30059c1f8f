package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Football data API. The key is deliberately not required: jobs that
	// need the provider report "skipped" when it is absent, so a replica
	// without credentials stays healthy instead of failing.
	ProviderAPIKey  string        `envconfig:"PROVIDER_API_KEY" default:""`
	ProviderBaseURL string        `envconfig:"PROVIDER_BASE_URL" default:"https://v3.football.api-sports.io"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"footypool"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"footypool_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"false"`
	ReferenceSyncCron  string `envconfig:"REFERENCE_SYNC_CRON" default:"0 3 * * *"`
	FixturePollSeconds int    `envconfig:"FIXTURE_POLL_SECONDS" default:"300"`
	OddsPollSeconds    int    `envconfig:"ODDS_POLL_SECONDS" default:"900"`
	SettlePollSeconds  int    `envconfig:"SETTLE_POLL_SECONDS" default:"300"`

	// Default job parameters
	FixtureLookaheadDays int    `envconfig:"FIXTURE_LOOKAHEAD_DAYS" default:"7"`
	FixtureLookbackDays  int    `envconfig:"FIXTURE_LOOKBACK_DAYS" default:"2"`
	ProviderLeagueFilter string `envconfig:"PROVIDER_LEAGUE_FILTER" default:""`

	// Caching TTL
	SummaryCacheTTL time.Duration `envconfig:"SUMMARY_CACHE_TTL" default:"10m"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.FixturePollSeconds <= 0 {
		return fmt.Errorf("FIXTURE_POLL_SECONDS must be positive")
	}

	if c.FixtureLookaheadDays < 0 || c.FixtureLookbackDays < 0 {
		return fmt.Errorf("fixture window days must be non-negative")
	}

	return nil
}

// HasProviderCredentials reports whether provider calls are configured here.
func (c *Config) HasProviderCredentials() bool {
	return c.ProviderAPIKey != ""
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
