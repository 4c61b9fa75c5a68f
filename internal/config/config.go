package config

import (
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	Port string

	// DBPath is the SQLite file holding the saved location. Empty keeps it
	// in memory only.
	DBPath string

	// DefaultLocation is shown until a location is saved or chosen.
	DefaultLocation weather.Location

	Timezone string
	Locale   string

	// RefreshInterval controls how often the dashboard is re-rendered.
	RefreshInterval time.Duration
	HTTPTimeout     time.Duration
	FetchTimeout    time.Duration

	DaySlots int

	// Client-side limit on upstream calls. UpstreamRPS <= 0 disables it.
	UpstreamRPS   float64
	UpstreamBurst int

	GeocoderAPIKey string

	Theme view.Theme
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.DBPath = getenvAllowEmpty("DB_PATH", "weather.db")
	cfg.Timezone = getenvDefault("TIMEZONE", "auto")
	cfg.Locale = getenvDefault("LOCALE", "es-ES")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	lat, err := getenvFloat("DEFAULT_LATITUDE", -34.9)
	if err != nil {
		return nil, err
	}
	lon, err := getenvFloat("DEFAULT_LONGITUDE", -56.2)
	if err != nil {
		return nil, err
	}
	cfg.DefaultLocation = weather.Location{Lat: lat, Lon: lon}

	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "30s"); err != nil {
		return nil, err
	}

	cfg.DaySlots = getenvInt("FORECAST_DAY_SLOTS", view.DefaultDaySlots)
	if cfg.DaySlots < 0 {
		return nil, fmt.Errorf("invalid FORECAST_DAY_SLOTS: %d", cfg.DaySlots)
	}

	if cfg.UpstreamRPS, err = getenvFloat("UPSTREAM_RPS", 1); err != nil {
		return nil, err
	}
	cfg.UpstreamBurst = getenvInt("UPSTREAM_BURST", 3)

	cfg.Theme = view.DefaultTheme()
	cfg.Theme.Primary = getenvDefault("THEME_PRIMARY", cfg.Theme.Primary)
	cfg.Theme.Accent = getenvDefault("THEME_ACCENT", cfg.Theme.Accent)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvAllowEmpty distinguishes an unset variable from one set to "".
func getenvAllowEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
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

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return f, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
