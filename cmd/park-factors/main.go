package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"

	httpapi "github.com/i474232898/park-factors/internal/api/http"
	"github.com/i474232898/park-factors/internal/config"
	"github.com/i474232898/park-factors/internal/factors"
	"github.com/i474232898/park-factors/internal/observability"
	"github.com/i474232898/park-factors/internal/parks"
	"github.com/i474232898/park-factors/internal/refresh"
	"github.com/i474232898/park-factors/internal/scheduler"
	"github.com/i474232898/park-factors/internal/store"
	"github.com/i474232898/park-factors/internal/weather"
	"github.com/i474232898/park-factors/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls. The Source enforces
	// the per-call deadline; this only guards against hung connections.
	httpClient := &http.Client{
		Timeout: 2 * cfg.FetchTimeout,
	}

	// Provider with resilience (backoff + circuit breaker), selected per deployment.
	provider, err := providers.New(cfg.WeatherProvider, httpClient, providers.Options{
		WeatherAPIKey:     cfg.WeatherAPIKey,
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WindowDays:        cfg.WindowDays,
		PastDays:          cfg.PastDays,
	})
	if err != nil {
		log.Fatalf("failed to create weather provider: %v", err)
	}
	source := weather.NewSource(provider, cfg.FetchTimeout,
		weather.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		weather.WithRecorder(metrics),
	)

	aggregator := factors.NewAggregator(source, parks.All(), clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		Path:        cfg.StorePath,
		RedisURL:    cfg.RedisURL,
		RedisKey:    cfg.RedisKey,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Printf("error closing store: %v", err)
		}
	}()

	controller := refresh.NewController(aggregator, st,
		refresh.WithThreshold(cfg.FreshnessThreshold),
		refresh.WithOffline(cfg.OfflineMode),
		refresh.WithClock(clock),
		refresh.WithRecorder(metrics),
	)
	log.Printf("INFO: provider=%s store=%s threshold=%s offline=%t", source.Name(), cfg.StoreBackend, controller.Threshold(), cfg.OfflineMode)

	// Scheduler that periodically refreshes and persists park factors.
	interval := cfg.RefreshInterval
	if cfg.OfflineMode {
		interval = 0
	}
	sched := scheduler.New(interval, controller)
	if p, ok := st.(scheduler.Pruner); ok {
		sched.WithPruning(p, cfg.StoreMaxAge)
	}
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "park-factors",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// Live and refresh requests may wait on a full recompute.
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "park-factors",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, controller)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
