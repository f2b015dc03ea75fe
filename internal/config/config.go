package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// WeatherProvider is fixed per deployment.
	WeatherProvider   string `validate:"oneof=openmeteo weatherapi openweather openweathermap"`
	WeatherAPIKey     string `validate:"required_if=WeatherProvider weatherapi"`
	OpenWeatherAPIKey string `validate:"required_if=WeatherProvider openweather,required_if=WeatherProvider openweathermap"`

	// FetchTimeout is the hard deadline for a single weather lookup.
	FetchTimeout time.Duration `validate:"gt=0"`
	WindowDays   int           `validate:"min=1,max=16"`
	PastDays     int           `validate:"min=0,max=92"`

	RateLimitRPS   float64 `validate:"min=0"`
	RateLimitBurst int     `validate:"min=0"`

	FreshnessThreshold time.Duration `validate:"gt=0"`
	// RefreshInterval of 0 disables the background scheduler.
	RefreshInterval time.Duration `validate:"min=0"`
	OfflineMode     bool

	StoreBackend string `validate:"oneof=file memory redis postgres"`
	StorePath    string `validate:"required_if=StoreBackend file"`
	RedisURL     string `validate:"required_if=StoreBackend redis"`
	RedisKey     string
	DatabaseURL  string `validate:"required_if=StoreBackend postgres"`
	// StoreMaxAge bounds the run history kept by stores that have one (0 = unlimited).
	StoreMaxAge time.Duration `validate:"min=0"`
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.WeatherProvider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openmeteo"))
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	if cfg.FetchTimeout, err = getenvDuration("WEATHER_FETCH_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.WindowDays, err = getenvInt("WEATHER_WINDOW_DAYS", 3); err != nil {
		return nil, err
	}
	if cfg.PastDays, err = getenvInt("WEATHER_PAST_DAYS", 7); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getenvFloat("WEATHER_RATE_LIMIT_RPS", 10); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getenvInt("WEATHER_RATE_LIMIT_BURST", 25); err != nil {
		return nil, err
	}

	if cfg.FreshnessThreshold, err = getenvDuration("FRESHNESS_THRESHOLD", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.OfflineMode, err = getenvBool("OFFLINE_MODE", false); err != nil {
		return nil, err
	}

	cfg.StoreBackend = strings.ToLower(getenvDefault("STORE_BACKEND", "file"))
	cfg.StorePath = getenvDefault("STORE_PATH", "data/park-factors.json")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisKey = getenvDefault("REDIS_KEY", "park-factors:current")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	// Roughly a month of half-hourly runs.
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", 720*time.Hour); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
