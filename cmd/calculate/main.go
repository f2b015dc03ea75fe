// Command calculate runs the park factor pipeline once and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/park-factors/internal/config"
	"github.com/i474232898/park-factors/internal/factors"
	"github.com/i474232898/park-factors/internal/parks"
	"github.com/i474232898/park-factors/internal/refresh"
	"github.com/i474232898/park-factors/internal/site"
	"github.com/i474232898/park-factors/internal/store"
	"github.com/i474232898/park-factors/internal/weather"
	"github.com/i474232898/park-factors/internal/weather/providers"
)

func main() {
	persist := flag.Bool("store", false, "save the result to the configured store instead of printing it")
	siteData := flag.Bool("site", false, "print the page data, recomputing only when the stored result is stale")
	flag.Parse()

	// Logs go to stderr so stdout stays a clean JSON document.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := providers.New(cfg.WeatherProvider, &http.Client{Timeout: 2 * cfg.FetchTimeout}, providers.Options{
		WeatherAPIKey:     cfg.WeatherAPIKey,
		OpenWeatherAPIKey: cfg.OpenWeatherAPIKey,
		WindowDays:        cfg.WindowDays,
		PastDays:          cfg.PastDays,
	})
	if err != nil {
		fail("Failed to create weather provider", err)
	}
	source := weather.NewSource(provider, cfg.FetchTimeout, weather.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	aggregator := factors.NewAggregator(source, parks.All(), clockwork.NewRealClock())

	if !*persist && !*siteData {
		res, err := aggregator.Compute(ctx)
		if err != nil {
			fail("Failed to calculate park factors", err)
		}
		write(res)
		return
	}

	st, closeStore, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		Path:        cfg.StorePath,
		RedisURL:    cfg.RedisURL,
		RedisKey:    cfg.RedisKey,
		DatabaseURL: cfg.DatabaseURL,
	})
	if err != nil {
		fail("Failed to open store", err)
	}
	defer closeStore()

	controller := refresh.NewController(aggregator, st,
		refresh.WithThreshold(cfg.FreshnessThreshold),
		refresh.WithOffline(cfg.OfflineMode),
	)

	if *siteData {
		write(site.BuildData(ctx, controller))
		return
	}

	res, err := controller.Refresh(ctx)
	if err != nil {
		closeStore()
		fail("Failed to calculate park factors", err)
	}
	log.Printf("calculate: stored %d park factors (last updated %s)", len(res.ParkFactors), res.LastUpdated)
}

func write(v any) {
	var (
		data []byte
		err  error
	)
	if r, ok := v.(factors.Result); ok {
		data, err = factors.Marshal(r)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		fail("Failed to encode output", err)
	}
	os.Stdout.Write(append(data, '\n'))
}

// fail prints a JSON error object and exits 1.
func fail(msg string, err error) {
	_ = json.NewEncoder(os.Stdout).Encode(map[string]string{
		"error":   msg,
		"details": err.Error(),
	})
	os.Exit(1)
}
