package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STELLARBEAT_NETWORK", "STELLARBEAT_API_URL", "LOG_LEVEL", "LOG_FORMAT",
		"METRICS_ADDR", "OTEL_EXPORTER_OTLP_ENDPOINT", "RATE_LIMIT_PER_MINUTE", "RANK_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, NetworkMainnet, cfg.Network)
	assert.Equal(t, MainnetAPIURL, cfg.BaseURL())
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultRateLimit, cfg.RateLimitPerMinute)
	assert.Equal(t, DefaultRankConcurrency, cfg.RankConcurrency)
	assert.Empty(t, cfg.MetricsAddr)
	assert.False(t, cfg.IsTestnet())
}

func TestLoad_Testnet(t *testing.T) {
	clearEnv(t)
	t.Setenv("STELLARBEAT_NETWORK", "testnet")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsTestnet())
	assert.Equal(t, TestnetAPIURL, cfg.BaseURL())
}

func TestLoad_APIURLOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("STELLARBEAT_NETWORK", "testnet")
	t.Setenv("STELLARBEAT_API_URL", "http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL())
}

func TestLoad_InvalidIntegerFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("RANK_CONCURRENCY", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRankConcurrency, cfg.RankConcurrency)
}

func TestLoad_UnknownNetwork(t *testing.T) {
	clearEnv(t)
	t.Setenv("STELLARBEAT_NETWORK", "futurenet")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STELLARBEAT_NETWORK")
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Network:            NetworkMainnet,
		LogLevel:           "info",
		LogFormat:          "json",
		RateLimitPerMinute: 60,
		RankConcurrency:    4,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, wantErr: "LOG_LEVEL"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "LOG_FORMAT"},
		{name: "zero rate limit", mutate: func(c *Config) { c.RateLimitPerMinute = 0 }, wantErr: "RATE_LIMIT_PER_MINUTE"},
		{name: "negative concurrency", mutate: func(c *Config) { c.RankConcurrency = -1 }, wantErr: "RANK_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
