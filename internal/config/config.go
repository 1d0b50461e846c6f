package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenMeteo  = "openmeteo"
	ProviderWeatherAPI = "weatherapi"
)

type AppConfig struct {
	Port string

	// Provider selects the hourly data source.
	Provider      string
	WeatherAPIKey string
	ForecastDays  int // WeatherAPI only

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration
	// FetchTimeout bounds one page build's wait on the provider, retries included.
	FetchTimeout time.Duration

	// Response cache retention.
	CacheMaxEntries int           // max number of cached responses (0 = unlimited)
	CacheTTL        time.Duration // max age of a cached response (0 = unlimited)

	// PrefetchInterval refreshes every city's data in the background (0 = off).
	PrefetchInterval time.Duration

	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderOpenMeteo))
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 3)

	switch cfg.Provider {
	case ProviderOpenMeteo:
	case ProviderWeatherAPI:
		if cfg.WeatherAPIKey == "" {
			return nil, fmt.Errorf("WEATHERAPI_API_KEY is required when WEATHER_PROVIDER=%s", ProviderWeatherAPI)
		}
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q", cfg.Provider)
	}

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "20s"); err != nil {
		return nil, err
	}

	// Cache retention. Ten cities fit comfortably in the default.
	cfg.CacheMaxEntries = getenvInt("CACHE_MAX_ENTRIES", 32)
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", "1h"); err != nil {
		return nil, err
	}

	if cfg.PrefetchInterval, err = getenvDuration("PREFETCH_INTERVAL", "0"); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = getenvDuration("SESSION_IDLE_TIMEOUT", "30m"); err != nil {
		return nil, err
	}
	if cfg.SessionSweepInterval, err = getenvDuration("SESSION_SWEEP_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
