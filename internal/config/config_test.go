package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "PORT", "DB_DRIVER", "JWT_EXPIRES_IN", "INITIAL_CASH", "BENCHMARK_SYMBOL",
		"CURRENCY", "MARKET_TIMEZONE", "QUOTE_TTL", "PROVIDER_TIMEOUT", "QUOTE_PROVIDERS",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "REDIS_ADDR", "PIPELINE_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "SPY", cfg.BenchmarkSymbol)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, time.Hour, cfg.QuoteTTL)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur)
	assert.Equal(t, DefaultProviders, cfg.QuoteProviders)
	assert.Equal(t, "10000", cfg.InitialCash.String())
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Same(t, cfg, Get())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("INITIAL_CASH", "2500.50")
	t.Setenv("BENCHMARK_SYMBOL", "qqq")
	t.Setenv("QUOTE_TTL", "15m")
	t.Setenv("QUOTE_PROVIDERS", " Finnhub, ,yahoo ")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("JWT_EXPIRES_IN", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "2500.5", cfg.InitialCash.String())
	assert.Equal(t, "QQQ", cfg.BenchmarkSymbol)
	assert.Equal(t, 15*time.Minute, cfg.QuoteTTL)
	assert.Equal(t, []string{"finnhub", "yahoo"}, cfg.QuoteProviders)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpirationDur, "invalid JWT_EXPIRES_IN falls back")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown_driver", "DB_DRIVER", "mysql"},
		{"negative_cash", "INITIAL_CASH", "-1"},
		{"garbage_cash", "INITIAL_CASH", "lots"},
		{"zero_ttl", "QUOTE_TTL", "0s"},
		{"bad_timeout", "PROVIDER_TIMEOUT", "soon"},
		{"no_providers", "QUOTE_PROVIDERS", " , "},
		{"bad_timezone", "MARKET_TIMEZONE", "Mars/Olympus_Mons"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := &Config{MarketTimezone: "America/New_York"}
	assert.Equal(t, "America/New_York", cfg.Location().String())

	cfg.MarketTimezone = "nowhere"
	assert.Equal(t, time.UTC, cfg.Location())
}
