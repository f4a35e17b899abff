// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Network names accepted by STELLARBEAT_NETWORK.
const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

// Upstream hosts, one per network.
const (
	MainnetAPIURL = "https://api.stellarbeat.io"
	TestnetAPIURL = "https://api-testnet.stellarbeat.io"
)

// Defaults
const (
	DefaultNetwork         = NetworkMainnet
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultRateLimit       = 60
	DefaultRankConcurrency = 8
)

// Config holds all application configuration
type Config struct {
	// Upstream
	Network string // "mainnet" or "testnet"
	APIURL  string // Overrides the network host when set

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Observability
	MetricsAddr  string // Ops HTTP listener, disabled when empty
	OTLPEndpoint string // OpenTelemetry collector, tracing disabled when empty

	// Limits
	RateLimitPerMinute int
	RankConcurrency    int
}

// Load reads configuration from environment variables.
// It loads .env file if present (for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Network:            getEnv("STELLARBEAT_NETWORK", DefaultNetwork),
		APIURL:             os.Getenv("STELLARBEAT_API_URL"),
		LogLevel:           getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:          getEnv("LOG_FORMAT", DefaultLogFormat),
		MetricsAddr:        os.Getenv("METRICS_ADDR"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitPerMinute: int(getEnvInt64("RATE_LIMIT_PER_MINUTE", DefaultRateLimit)),
		RankConcurrency:    int(getEnvInt64("RANK_CONCURRENCY", DefaultRankConcurrency)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch c.Network {
	case NetworkMainnet, NetworkTestnet:
	default:
		return fmt.Errorf("STELLARBEAT_NETWORK must be %q or %q, got %q", NetworkMainnet, NetworkTestnet, c.Network)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	if c.RankConcurrency <= 0 {
		return fmt.Errorf("RANK_CONCURRENCY must be positive")
	}

	return nil
}

// BaseURL returns the upstream host for the configured network, or the
// explicit override.
func (c *Config) BaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	if c.Network == NetworkTestnet {
		return TestnetAPIURL
	}
	return MainnetAPIURL
}

// IsTestnet returns true when the testnet data set is selected
func (c *Config) IsTestnet() bool {
	return c.Network == NetworkTestnet
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
