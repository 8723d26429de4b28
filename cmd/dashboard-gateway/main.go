package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	graphqlapi "github.com/pdash/dashboard-gateway/internal/api/graphql"
	httpapi "github.com/pdash/dashboard-gateway/internal/api/http"
	"github.com/pdash/dashboard-gateway/internal/cache"
	"github.com/pdash/dashboard-gateway/internal/config"
	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/pubsub"
	"github.com/pdash/dashboard-gateway/internal/subscription"
	"github.com/pdash/dashboard-gateway/internal/upstream"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Upstream clients, each with its provider's timeout.
	weatherClient := upstream.NewOpenMeteo(&http.Client{Timeout: 10 * time.Second},
		cfg.OpenMeteoBaseURL, cfg.OpenMeteoGeoBaseURL, cfg.OpenMeteoArchiveBaseURL)
	airClient := upstream.NewOpenWeather(&http.Client{Timeout: 5 * time.Second},
		cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	stockClient := upstream.NewFinnhub(&http.Client{Timeout: 8 * time.Second},
		cfg.FinnhubAPIKey, cfg.FinnhubBaseURL)
	cryptoClient := upstream.NewCoinGecko(&http.Client{Timeout: 10 * time.Second},
		cfg.CoinGeckoBaseURL)
	podcastClient := upstream.NewPodcastIndex(&http.Client{Timeout: 8 * time.Second},
		cfg.PodcastIndexAPIKey, cfg.PodcastIndexAPISecret, cfg.PodcastIndexBaseURL)
	bibleClient := upstream.NewBible(&http.Client{Timeout: 10 * time.Second},
		cfg.YouVersionAppKey, cfg.BibleBaseURL)

	// Per-data-class caches for the GraphQL surface. Explicitly constructed
	// here and injected; one set per server instance.
	caches := gateway.Caches{
		Stock:   cache.New(5*time.Minute, 10*time.Second),
		Crypto:  cache.New(time.Minute, 20*time.Second),
		Podcast: cache.New(5*time.Minute, time.Minute),
		Weather: cache.New(10*time.Minute, time.Minute),
		Bible:   cache.New(time.Hour, 5*time.Minute),
	}
	defer func() {
		for _, c := range []*cache.Cache{caches.Stock, caches.Crypto, caches.Podcast, caches.Weather, caches.Bible} {
			c.Stop()
		}
	}()

	svc := gateway.NewService(gateway.Clients{
		Weather:  weatherClient,
		Air:      airClient,
		Stocks:   stockClient,
		Crypto:   cryptoClient,
		Podcasts: podcastClient,
		Bible:    bibleClient,
	}, caches)

	// Subscription plumbing: poll loop publishing into the in-process bus.
	bus := pubsub.NewBus()
	poller := subscription.NewPoller(svc, bus, cfg.WeatherPollInterval)
	poller.Start()
	defer poller.Stop()

	gql, err := graphqlapi.NewHandler(svc, poller, bus)
	if err != nil {
		log.Fatalf("failed to build GraphQL schema: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "dashboard-gateway",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
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
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
		})
	})

	// GraphQL surface.
	app.Post("/graphql", gql.Query)
	app.Use("/graphql/ws", graphqlapi.Upgrade)
	app.Get("/graphql/ws", gql.Subscriptions())

	// REST proxy with its own caches and per-IP limiter.
	limiter := httpapi.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
	defer limiter.Stop()

	proxyStockCache := cache.New(5*time.Minute, 10*time.Second)
	proxyPodCache := cache.New(5*time.Minute, time.Minute)
	defer proxyStockCache.Stop()
	defer proxyPodCache.Stop()

	httpapi.RegisterRoutes(app, httpapi.ProxyDeps{
		Stocks:     stockClient,
		Podcasts:   podcastClient,
		StockCache: proxyStockCache,
		PodCache:   proxyPodCache,
		Limiter:    limiter,
	})

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
