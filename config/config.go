package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderYahoo        = "yahoo"
	ProviderAlphaVantage = "alphavantage"
	ProviderCSV          = "csv"

	CacheMemory   = "memory"
	CachePostgres = "postgres"
	CacheNone     = "none"
)

var (
	providers = []string{ProviderYahoo, ProviderAlphaVantage, ProviderCSV}
	caches    = []string{CacheMemory, CachePostgres, CacheNone}
)

// Config holds everything read from the environment. Load is the only place os.Getenv is called.
type Config struct {
	// Server
	Port               string
	Env                string
	CorsAllowedOrigins []string

	// Logging
	LogLevel  string
	LogFormat string

	// Prices
	PriceProvider                 string
	AlphaVantageApiKey            string
	AlphaVantageRequestsPerMinute int
	PriceCsvPath                  string

	// Cache
	PriceCache        string
	DatabaseUrl       string
	CacheMaxAge       time.Duration
	CacheWarmSchedule string

	// Simulation
	BenchmarkTicker   string
	SimulationSeed    uint64
	SimulationWorkers int
}

// Load reads .env when present, then the environment, falling back to defaults.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("error loading .env: %w", err)
		}
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		CorsAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		PriceProvider:                 strings.ToLower(getEnv("PRICE_PROVIDER", ProviderYahoo)),
		AlphaVantageApiKey:            getEnv("ALPHAVANTAGE_API_KEY", ""),
		AlphaVantageRequestsPerMinute: getEnvAsInt("ALPHAVANTAGE_REQUESTS_PER_MINUTE", 5),
		PriceCsvPath:                  getEnv("PRICE_CSV_PATH", "stock_data.csv"),

		PriceCache:        strings.ToLower(getEnv("PRICE_CACHE", CacheMemory)),
		DatabaseUrl:       getEnv("DATABASE_URL", ""),
		CacheMaxAge:       getEnvAsDuration("CACHE_MAX_AGE", "24h"),
		CacheWarmSchedule: getEnv("CACHE_WARM_SCHEDULE", ""),

		BenchmarkTicker:   getEnv("BENCHMARK_TICKER", "^GSPC"),
		SimulationSeed:    uint64(getEnvAsInt("SIMULATION_SEED", 72)),
		SimulationWorkers: getEnvAsInt("SIMULATION_WORKERS", 8),
	}

	return cfg, nil
}

// Validate checks the combinations Load cannot default away.
func (c *Config) Validate() error {
	if !slices.Contains(providers, c.PriceProvider) {
		return fmt.Errorf("PRICE_PROVIDER must be one of: %s, got %q", strings.Join(providers, ", "), c.PriceProvider)
	}
	if !slices.Contains(caches, c.PriceCache) {
		return fmt.Errorf("PRICE_CACHE must be one of: %s, got %q", strings.Join(caches, ", "), c.PriceCache)
	}
	if c.PriceCache == CachePostgres && c.DatabaseUrl == "" {
		return fmt.Errorf("DATABASE_URL is required when PRICE_CACHE is postgres")
	}
	if c.PriceProvider == ProviderAlphaVantage && c.AlphaVantageApiKey == "" {
		return fmt.Errorf("ALPHAVANTAGE_API_KEY is required when PRICE_PROVIDER is alphavantage")
	}
	if c.PriceProvider == ProviderCSV && c.PriceCsvPath == "" {
		return fmt.Errorf("PRICE_CSV_PATH is required when PRICE_PROVIDER is csv")
	}
	if c.SimulationWorkers < 1 {
		return fmt.Errorf("SIMULATION_WORKERS must be positive, got %d", c.SimulationWorkers)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsList(key string, defaultValue string) []string {
	res := make([]string, 0)
	for _, v := range strings.Split(getEnv(key, defaultValue), ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
