package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"PORT", "PRICE_PROVIDER", "PRICE_CACHE", "CACHE_MAX_AGE", "SIMULATION_SEED", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, ProviderYahoo, cfg.PriceProvider)
	assert.Equal(t, CacheMemory, cfg.PriceCache)
	assert.Equal(t, 24*time.Hour, cfg.CacheMaxAge)
	assert.Equal(t, uint64(72), cfg.SimulationSeed)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CorsAllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRICE_PROVIDER", "CSV")
	t.Setenv("PRICE_CSV_PATH", "prices.csv")
	t.Setenv("CACHE_MAX_AGE", "90m")
	t.Setenv("SIMULATION_WORKERS", "not a number")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderCSV, cfg.PriceProvider)
	assert.Equal(t, "prices.csv", cfg.PriceCsvPath)
	assert.Equal(t, 90*time.Minute, cfg.CacheMaxAge)
	assert.Equal(t, 8, cfg.SimulationWorkers, "unparseable values fall back to the default")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CorsAllowedOrigins)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BENCHMARK_TICKER=SPY\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("BENCHMARK_TICKER", "")
	os.Unsetenv("BENCHMARK_TICKER")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "SPY", cfg.BenchmarkTicker)
}

func TestValidate(t *testing.T) {
	valid := Config{PriceProvider: ProviderYahoo, PriceCache: CacheMemory, SimulationWorkers: 8}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"unknown provider":     func(c *Config) { c.PriceProvider = "bloomberg" },
		"unknown cache":        func(c *Config) { c.PriceCache = "redis" },
		"postgres without url": func(c *Config) { c.PriceCache = CachePostgres },
		"alpha vantage no key": func(c *Config) { c.PriceProvider = ProviderAlphaVantage },
		"csv without path":     func(c *Config) { c.PriceProvider = ProviderCSV },
		"non-positive workers": func(c *Config) { c.SimulationWorkers = 0 },
	}

	for name, mutate := range cases {
		c := valid
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
