package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/i474232898/us-city-weather/internal/api/http"
	"github.com/i474232898/us-city-weather/internal/cache"
	"github.com/i474232898/us-city-weather/internal/cities"
	"github.com/i474232898/us-city-weather/internal/config"
	"github.com/i474232898/us-city-weather/internal/metrics"
	"github.com/i474232898/us-city-weather/internal/scheduler"
	"github.com/i474232898/us-city-weather/internal/session"
	"github.com/i474232898/us-city-weather/internal/weather"
	"github.com/i474232898/us-city-weather/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("us_city_weather", reg)

	// Hourly data source with resilience (backoff + circuit breaker).
	var provider weather.Provider
	switch cfg.Provider {
	case config.ProviderWeatherAPI:
		provider = providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.ForecastDays)
	default:
		provider = providers.NewOpenMeteoProvider(httpClient)
	}
	log.Printf("INFO: using %s for hourly weather data", provider.Name())

	registry := cities.NewRegistry()
	responses := cache.NewMemoryCache(cfg.CacheMaxEntries, cfg.CacheTTL)
	fetcher := weather.NewFetcher(provider, responses, collector)
	service := weather.NewService(registry, fetcher, collector)
	service.SetFetchTimeout(cfg.FetchTimeout)
	sessions := session.NewStore(registry.Default().Name)

	// Background cache warming and session cleanup.
	sched := scheduler.New(service, sessions, collector, scheduler.Config{
		PrefetchInterval: cfg.PrefetchInterval,
		SweepInterval:    cfg.SessionSweepInterval,
		IdleTimeout:      cfg.SessionIdleTimeout,
		Cache:            responses,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "us-city-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
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

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "us-city-weather",
			"provider": provider.Name(),
		})
	})

	httpapi.RegisterRoutes(app, service, sessions, collector)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
