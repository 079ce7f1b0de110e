// Package config loads papertrader configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Auth
	JWTSecret        string
	JWTExpirationDur time.Duration
	PipelineAPIKey   string

	// Ledger
	InitialCash     decimal.Decimal
	BenchmarkSymbol string
	Currency        string
	MarketTimezone  string

	// Quotes
	QuoteTTL        time.Duration
	ProviderTimeout time.Duration
	QuoteProviders  []string

	AlphaVantageAPIKey string
	FinnhubAPIKey      string
	FMPAPIKey          string
	AlpacaAPIKey       string
	AlpacaAPISecret    string
	AlpacaDataURL      string
	AlpacaTradingURL   string

	// Integrations
	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string
	GeminiAPIKey string
	GeminiModel  string
}

var appConfig *Config

// DefaultProviders is the quote provider priority order used when
// QUOTE_PROVIDERS is unset.
var DefaultProviders = []string{"yahoo", "alphavantage", "finnhub", "fmp", "alpaca"}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "papertrader"),
		DBPassword: getEnv("DB_PASSWORD", "papertrader"),
		DBName:     getEnv("DB_NAME", "papertrader"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "papertrader.db"),

		JWTSecret:      getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
		PipelineAPIKey: os.Getenv("PIPELINE_API_KEY"),

		BenchmarkSymbol: strings.ToUpper(getEnv("BENCHMARK_SYMBOL", "SPY")),
		Currency:        strings.ToUpper(getEnv("CURRENCY", "USD")),
		MarketTimezone:  getEnv("MARKET_TIMEZONE", "America/New_York"),

		QuoteProviders: parseList(getEnv("QUOTE_PROVIDERS", strings.Join(DefaultProviders, ","))),

		AlphaVantageAPIKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
		FinnhubAPIKey:      os.Getenv("FINNHUB_API_KEY"),
		FMPAPIKey:          os.Getenv("FMP_API_KEY"),
		AlpacaAPIKey:       os.Getenv("ALPACA_API_KEY"),
		AlpacaAPISecret:    os.Getenv("ALPACA_API_SECRET"),
		AlpacaDataURL:      os.Getenv("ALPACA_DATA_URL"),
		AlpacaTradingURL:   os.Getenv("ALPACA_TRADING_URL"),

		KafkaBrokers: parseList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "papertrader.trades"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}

	switch config.DBDriver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: must be postgres or sqlite", config.DBDriver)
	}

	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	cash, err := parseAmount("INITIAL_CASH", getEnv("INITIAL_CASH", "10000.00"))
	if err != nil {
		return nil, err
	}
	config.InitialCash = cash

	if config.QuoteTTL, err = parsePositiveDuration("QUOTE_TTL", os.Getenv("QUOTE_TTL"), time.Hour); err != nil {
		return nil, err
	}
	if config.ProviderTimeout, err = parsePositiveDuration("PROVIDER_TIMEOUT", os.Getenv("PROVIDER_TIMEOUT"), 10*time.Second); err != nil {
		return nil, err
	}

	if len(config.QuoteProviders) == 0 {
		return nil, fmt.Errorf("QUOTE_PROVIDERS must name at least one provider")
	}

	if _, err := time.LoadLocation(config.MarketTimezone); err != nil {
		return nil, fmt.Errorf("invalid MARKET_TIMEZONE %q: %w", config.MarketTimezone, err)
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// Location returns the market time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MarketTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parsePositiveDuration(key, s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, d)
	}
	return d, nil
}

func parseAmount(key, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative, got %s", key, s)
	}
	return d, nil
}

// parseList splits a comma-separated value, dropping blanks.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
