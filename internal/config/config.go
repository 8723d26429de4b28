package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	FinnhubAPIKey         string
	OpenWeatherAPIKey     string
	PodcastIndexAPIKey    string
	PodcastIndexAPISecret string
	YouVersionAppKey      string

	// Provider base URLs; defaults point at the real public endpoints and
	// are overridable for tests and self-hosted mirrors.
	OpenMeteoBaseURL        string
	OpenMeteoGeoBaseURL     string
	OpenMeteoArchiveBaseURL string
	OpenWeatherBaseURL      string
	FinnhubBaseURL          string
	CoinGeckoBaseURL        string
	PodcastIndexBaseURL     string
	BibleBaseURL            string

	// REST proxy rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration

	// WeatherPollInterval controls how often subscribed locations are
	// refetched and republished.
	WeatherPollInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.FinnhubAPIKey = os.Getenv("FINNHUB_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.PodcastIndexAPIKey = os.Getenv("PODCASTINDEX_API_KEY")
	cfg.PodcastIndexAPISecret = os.Getenv("PODCASTINDEX_API_SECRET")
	cfg.YouVersionAppKey = os.Getenv("YOUVERSION_APP_KEY")

	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.OpenMeteoGeoBaseURL = getenvDefault("OPENMETEO_GEO_BASE_URL", "https://geocoding-api.open-meteo.com/v1")
	cfg.OpenMeteoArchiveBaseURL = getenvDefault("OPENMETEO_ARCHIVE_BASE_URL", "https://archive-api.open-meteo.com/v1/archive")
	cfg.OpenWeatherBaseURL = getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org")
	cfg.FinnhubBaseURL = getenvDefault("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	cfg.CoinGeckoBaseURL = getenvDefault("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3")
	cfg.PodcastIndexBaseURL = getenvDefault("PODCASTINDEX_BASE_URL", "https://api.podcastindex.org/api/1.0")
	cfg.BibleBaseURL = getenvDefault("BIBLE_BASE_URL", "https://api.scripture.api.bible/v1")

	cfg.RateLimitMax = getenvInt("RATE_LIMIT_MAX", 60)

	windowStr := getenvDefault("RATE_LIMIT_WINDOW", "60s")
	window, err := time.ParseDuration(windowStr)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	cfg.RateLimitWindow = window

	pollStr := getenvDefault("WEATHER_POLL_INTERVAL", "600s")
	poll, err := time.ParseDuration(pollStr)
	if err != nil {
		return nil, fmt.Errorf("invalid WEATHER_POLL_INTERVAL: %w", err)
	}
	cfg.WeatherPollInterval = poll

	cfg.Port = getenvDefault("PORT", "8080")

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
