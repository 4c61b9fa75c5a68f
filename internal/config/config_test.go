package config

import (
	"os"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"PORT", "DEFAULT_LATITUDE", "DEFAULT_LONGITUDE", "REFRESH_INTERVAL", "FORECAST_DAY_SLOTS", "THEME_ACCENT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DefaultLocation != (weather.Location{Lat: -34.9, Lon: -56.2}) {
		t.Errorf("DefaultLocation = %+v", cfg.DefaultLocation)
	}
	if cfg.RefreshInterval != time.Hour {
		t.Errorf("RefreshInterval = %s", cfg.RefreshInterval)
	}
	if cfg.DaySlots != 7 {
		t.Errorf("DaySlots = %d", cfg.DaySlots)
	}
	if cfg.Theme.Accent != "#ffb545" {
		t.Errorf("Theme.Accent = %q", cfg.Theme.Accent)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_PATH", "")
	t.Setenv("DEFAULT_LATITUDE", "4.711")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("UPSTREAM_RPS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty (memory store)", cfg.DBPath)
	}
	if cfg.DefaultLocation.Lat != 4.711 {
		t.Errorf("Lat = %v", cfg.DefaultLocation.Lat)
	}
	if cfg.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %s", cfg.RefreshInterval)
	}
	if cfg.UpstreamRPS != 0 {
		t.Errorf("UpstreamRPS = %v", cfg.UpstreamRPS)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	chdir(t, t.TempDir())
	for key, val := range map[string]string{
		"DEFAULT_LATITUDE":   "north",
		"REFRESH_INTERVAL":   "hourly",
		"FORECAST_DAY_SLOTS": "-1",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restore working directory: %v", err)
		}
	})
}
