package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/view"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

var (
	port       string
	dbPath     string
	interval   time.Duration
	outputFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-dashboard",
		Short: "Serve the weather dashboard",
		Long: `weather-dashboard shows the trailing week of weather for one location:
today's summary, forecast cards, an hourly temperature trend and a
precipitation chart, refreshed periodically from Open-Meteo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	rootCmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite file for the saved location (overrides DB_PATH)")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "Refresh interval (overrides REFRESH_INTERVAL)")

	addRenderCmd(rootCmd)
	addPresetsCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = port
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = dbPath
	}
	if cmd.Flags().Changed("interval") {
		cfg.RefreshInterval = interval
	}
	return cfg, nil
}

// app bundles everything built from the config.
type app struct {
	controller *dashboard.Controller
	closeStore func()
}

func build(cfg *config.AppConfig) *app {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var (
		locStore   weather.LocationStore
		closeStore = func() {}
	)
	if cfg.DBPath == "" {
		log.Println("INFO: DB_PATH empty, saved location kept in memory only")
		locStore = store.NewMemoryStore()
	} else {
		sq, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			// Storage is best effort; the dashboard still works without it.
			log.Printf("store: falling back to memory: %v", err)
			locStore = store.NewMemoryStore()
		} else {
			locStore = sq
			closeStore = func() {
				if err := sq.Close(); err != nil {
					log.Printf("store: close: %v", err)
				}
			}
		}
	}

	// Open-Meteo behind a circuit breaker and a client-side rate limit.
	provider := providers.NewOpenMeteoProvider(httpClient,
		providers.WithTimezone(cfg.Timezone),
		providers.WithHTTPConfig(providers.HTTPClientConfig{
			Client:  httpClient,
			Limiter: providers.NewLimiter(cfg.UpstreamRPS, cfg.UpstreamBurst),
		}),
	)

	service := weather.NewService(provider, providers.NewGoogleGeocoder(cfg.GeocoderAPIKey))

	page := view.NewPage(
		view.WithDaySlots(cfg.DaySlots),
		view.WithTheme(cfg.Theme),
		view.WithLocale(cfg.Locale),
	)

	return &app{
		controller: dashboard.NewController(page, locStore, service, cfg.DefaultLocation),
		closeStore: closeStore,
	}
}

func serve(cfg *config.AppConfig) error {
	a := build(cfg)
	defer a.closeStore()

	ctl := a.controller
	ctl.Subscribe(func(ev dashboard.LocationSelected) {
		log.Printf("dashboard: location selected %.4f, %.4f (%s)", ev.Lat, ev.Lon, ev.ID)
	})

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	ctl.Start(startCtx)
	cancelStart()

	// Scheduler that periodically re-renders the dashboard.
	sched := scheduler.New(ctl, cfg.RefreshInterval, cfg.FetchTimeout)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	srv := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.FetchTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	srv.Use(logger.New())
	srv.Use(recover.New())

	srv.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": "weather-dashboard",
			"state":   ctl.State().String(),
		}
		if at, err := ctl.Pipeline().LastRefresh(); !at.IsZero() {
			resp["lastRefresh"] = at
			if err != nil {
				resp["lastError"] = err.Error()
			}
		}
		return c.JSON(resp)
	})

	httpapi.RegisterRoutes(srv, ctl, cfg.FetchTimeout)

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

// addRenderCmd adds a 'render' subcommand that writes a static snapshot of
// the dashboard.
func addRenderCmd(rootCmd *cobra.Command) {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the dashboard once to a static HTML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a := build(cfg)
			defer a.closeStore()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
			defer cancel()

			// No dialog in a static file: render the saved location, or the
			// default.
			ctl := a.controller
			if ctl.UseSaved() {
				cmd.Println(fmt.Sprintf("Rendering saved location %s", ctl.Current().Key()))
			} else {
				cmd.Println(fmt.Sprintf("Rendering default location %s", ctl.Current().Key()))
			}
			if err := ctl.Refresh(ctx); err != nil {
				cmd.PrintErrln(fmt.Errorf("weather unavailable, writing placeholders: %w", err))
			}

			if err := view.WriteStatic(ctl.Page(), outputFile); err != nil {
				return fmt.Errorf("failed to write %s: %w", outputFile, err)
			}
			cmd.Println(fmt.Sprintf("Dashboard saved to %s", outputFile))
			return nil
		},
	}
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "dashboard.html", "Output HTML file path")

	rootCmd.AddCommand(renderCmd)
}

// addPresetsCmd adds a 'presets' subcommand listing the quick-select
// locations.
func addPresetsCmd(rootCmd *cobra.Command) {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "List preset locations",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range weather.Presets() {
				cmd.Println(fmt.Sprintf("%-12s %-12s %9.4f %9.4f", p.Name, p.Label, p.Location.Lat, p.Location.Lon))
			}
		},
	}

	rootCmd.AddCommand(presetsCmd)
}
