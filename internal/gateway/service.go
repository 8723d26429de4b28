package gateway

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdash/dashboard-gateway/internal/cache"
	"github.com/pdash/dashboard-gateway/internal/normalize"
)

// Per-resource TTL overrides. Resources without an override use their cache
// instance's default TTL.
const (
	QuoteTTL      = 30 * time.Second
	EpisodesTTL   = 10 * time.Minute
	TrendingTTL   = time.Hour
	HistoricalTTL = 24 * time.Hour
	VersionsTTL   = 24 * time.Hour

	// DefaultBibleID is the KJV on the Bible API.
	DefaultBibleID = "de4e12af7f28f599-02"
)

// Clients bundles the upstream clients the service composes.
type Clients struct {
	Weather  WeatherClient
	Air      AirClient
	Stocks   StockClient
	Crypto   CryptoClient
	Podcasts PodcastClient
	Bible    BibleClient
}

// Caches bundles the five per-data-class cache instances. Each is owned by
// the service; nothing else reads or writes them.
type Caches struct {
	Stock   *cache.Cache
	Crypto  *cache.Cache
	Podcast *cache.Cache
	Weather *cache.Cache
	Bible   *cache.Cache
}

// Service exposes every dashboard resource behind the same pattern: check
// cache, on miss fetch and normalize, store, return.
type Service struct {
	clients Clients
	caches  Caches
}

// NewService creates a Service over the given clients and caches.
func NewService(clients Clients, caches Caches) *Service {
	return &Service{clients: clients, caches: caches}
}

// CoordKey builds a cache key from a resource prefix and coordinates rounded
// to two decimal places, so nearby requests share an entry.
func CoordKey(prefix string, lat, lon float64) string {
	return fmt.Sprintf("%s:%.2f,%.2f", prefix, lat, lon)
}

// CryptoKey sorts the coin ids before joining so logically identical requests
// produce the same key regardless of argument ordering.
func CryptoKey(ids []string, vsCurrency string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return "crypto:" + vsCurrency + ":" + strings.Join(sorted, ",")
}

// Weather is the one multi-resource aggregate. It checks the three keys
// (current, forecast, hourly) and serves from cache only when all three hit;
// any miss refetches all three concurrently and re-caches each, so a single
// aggregate response never mixes fresh and stale parts.
func (s *Service) Weather(ctx context.Context, lat, lon float64) (*WeatherBundle, error) {
	ck := CoordKey("current", lat, lon)
	fk := CoordKey("forecast", lat, lon)
	hk := CoordKey("hourly", lat, lon)

	cv, cok := s.caches.Weather.Get(ck)
	fv, fok := s.caches.Weather.Get(fk)
	hv, hok := s.caches.Weather.Get(hk)
	if cok && fok && hok {
		return &WeatherBundle{
			Current:  cv.(*CurrentWeather),
			Forecast: fv.([]ForecastDay),
			Hourly:   hv.([]HourlyPoint),
		}, nil
	}

	var (
		current  *CurrentWeather
		forecast []ForecastDay
		hourly   []HourlyPoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.clients.Weather.Current(gctx, lat, lon)
		if err != nil {
			return err
		}
		current = v
		return nil
	})
	g.Go(func() error {
		v, err := s.clients.Weather.Forecast(gctx, lat, lon)
		if err != nil {
			return err
		}
		forecast = v
		return nil
	})
	g.Go(func() error {
		v, err := s.clients.Weather.Hourly(gctx, lat, lon)
		if err != nil {
			return err
		}
		hourly = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.caches.Weather.Set(ck, current)
	s.caches.Weather.Set(fk, forecast)
	s.caches.Weather.Set(hk, hourly)

	return &WeatherBundle{Current: current, Forecast: forecast, Hourly: hourly}, nil
}

// CurrentWeather serves current conditions for one location.
func (s *Service) CurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	key := CoordKey("current", lat, lon)
	if v, ok := s.caches.Weather.Get(key); ok {
		return v.(*CurrentWeather), nil
	}
	current, err := s.clients.Weather.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.Set(key, current)
	return current, nil
}

// RefreshCurrentWeather fetches current conditions bypassing the cache and
// re-caches the result. The subscription poller uses it so every poll tick
// republishes fresh data.
func (s *Service) RefreshCurrentWeather(ctx context.Context, lat, lon float64) (*CurrentWeather, error) {
	current, err := s.clients.Weather.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.Set(CoordKey("current", lat, lon), current)
	return current, nil
}

// Forecast serves the daily forecast for one location.
func (s *Service) Forecast(ctx context.Context, lat, lon float64) ([]ForecastDay, error) {
	key := CoordKey("forecast", lat, lon)
	if v, ok := s.caches.Weather.Get(key); ok {
		return v.([]ForecastDay), nil
	}
	forecast, err := s.clients.Weather.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.Set(key, forecast)
	return forecast, nil
}

// HourlyForecast serves the hourly forecast for one location.
func (s *Service) HourlyForecast(ctx context.Context, lat, lon float64) ([]HourlyPoint, error) {
	key := CoordKey("hourly", lat, lon)
	if v, ok := s.caches.Weather.Get(key); ok {
		return v.([]HourlyPoint), nil
	}
	hourly, err := s.clients.Weather.Hourly(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.Set(key, hourly)
	return hourly, nil
}

// AirQuality serves the air-quality snapshot for one location.
func (s *Service) AirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error) {
	key := CoordKey("aqi", lat, lon)
	if v, ok := s.caches.Weather.Get(key); ok {
		return v.(*AirQuality), nil
	}
	aqi, err := s.clients.Air.AirQuality(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.Set(key, aqi)
	return aqi, nil
}

// HistoricalWeather serves one archived day (date formatted YYYY-MM-DD).
func (s *Service) HistoricalWeather(ctx context.Context, lat, lon float64, date string) (*HistoricalDay, error) {
	key := CoordKey("hist", lat, lon) + ":" + date
	if v, ok := s.caches.Weather.Get(key); ok {
		return v.(*HistoricalDay), nil
	}
	day, err := s.clients.Weather.Historical(ctx, lat, lon, date)
	if err != nil {
		return nil, err
	}
	s.caches.Weather.SetTTL(key, day, HistoricalTTL)
	return day, nil
}

// SearchCities geocodes a free-text query. Results are not cached; the
// upstream is keyless and queries rarely repeat.
func (s *Service) SearchCities(ctx context.Context, query string, limit int) ([]City, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.clients.Weather.SearchCities(ctx, query, limit)
}

// ReverseGeocode resolves coordinates to the nearest place name. Not cached
// for the same reason as SearchCities.
func (s *Service) ReverseGeocode(ctx context.Context, lat, lon float64) (*City, error) {
	return s.clients.Air.ReverseGeocode(ctx, lat, lon)
}

// CryptoPrices serves market data for a set of coin ids.
func (s *Service) CryptoPrices(ctx context.Context, ids []string, vsCurrency string) ([]CryptoPrice, error) {
	if vsCurrency == "" {
		vsCurrency = "usd"
	}
	key := CryptoKey(ids, vsCurrency)
	if v, ok := s.caches.Crypto.Get(key); ok {
		return v.([]CryptoPrice), nil
	}
	prices, err := s.clients.Crypto.SimplePrices(ctx, ids, vsCurrency)
	if err != nil {
		return nil, err
	}
	s.caches.Crypto.Set(key, prices)
	return prices, nil
}

// SearchStocks serves a symbol lookup, forwarding the upstream payload.
func (s *Service) SearchStocks(ctx context.Context, query string) (any, error) {
	key := "search:" + query
	if v, ok := s.caches.Stock.Get(key); ok {
		return v, nil
	}
	result, err := s.clients.Stocks.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	s.caches.Stock.Set(key, result)
	return result, nil
}

// StockQuote serves a quote with the short quote TTL.
func (s *Service) StockQuote(ctx context.Context, symbol string) (*StockQuote, error) {
	key := "quote:" + symbol
	if v, ok := s.caches.Stock.Get(key); ok {
		return v.(*StockQuote), nil
	}
	quote, err := s.clients.Stocks.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.caches.Stock.SetTTL(key, quote, QuoteTTL)
	return quote, nil
}

// StockCandles serves OHLC data, forwarding the upstream payload.
func (s *Service) StockCandles(ctx context.Context, symbol, resolution string, from, to int64) (any, error) {
	if resolution == "" {
		resolution = "D"
	}
	key := fmt.Sprintf("candles:%s:%s:%d:%d", symbol, resolution, from, to)
	if v, ok := s.caches.Stock.Get(key); ok {
		return v, nil
	}
	candles, err := s.clients.Stocks.Candles(ctx, symbol, resolution, from, to)
	if err != nil {
		return nil, err
	}
	s.caches.Stock.Set(key, candles)
	return candles, nil
}

// CompanyNews serves recent company news, truncated before caching.
func (s *Service) CompanyNews(ctx context.Context, symbol, from, to string) ([]any, error) {
	key := fmt.Sprintf("news:%s:%s:%s", symbol, from, to)
	if v, ok := s.caches.Stock.Get(key); ok {
		return v.([]any), nil
	}
	news, err := s.clients.Stocks.CompanyNews(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	news = normalize.Truncate(news, normalize.MaxListItems)
	s.caches.Stock.Set(key, news)
	return news, nil
}

// SearchPodcasts serves a feed search as typed, normalized feeds.
func (s *Service) SearchPodcasts(ctx context.Context, query string) ([]PodcastFeed, error) {
	key := "podsearch:" + query
	if v, ok := s.caches.Podcast.Get(key); ok {
		return v.([]PodcastFeed), nil
	}
	env, err := s.clients.Podcasts.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	feeds := feedsFromEnvelope(env, "feeds")
	s.caches.Podcast.Set(key, feeds)
	return feeds, nil
}

// TrendingPodcasts serves the trending chart with the long trending TTL.
func (s *Service) TrendingPodcasts(ctx context.Context, max int) ([]PodcastFeed, error) {
	if max <= 0 {
		max = 10
	}
	key := fmt.Sprintf("podtrending:%d", max)
	if v, ok := s.caches.Podcast.Get(key); ok {
		return v.([]PodcastFeed), nil
	}
	env, err := s.clients.Podcasts.Trending(ctx, max)
	if err != nil {
		return nil, err
	}
	feeds := feedsFromEnvelope(env, "feeds")
	s.caches.Podcast.SetTTL(key, feeds, TrendingTTL)
	return feeds, nil
}

// PodcastEpisodes serves a feed's episode list.
func (s *Service) PodcastEpisodes(ctx context.Context, feedID string) ([]PodcastEpisode, error) {
	key := "podepisodes:" + feedID
	if v, ok := s.caches.Podcast.Get(key); ok {
		return v.([]PodcastEpisode), nil
	}
	env, err := s.clients.Podcasts.Episodes(ctx, feedID)
	if err != nil {
		return nil, err
	}
	episodes := episodesFromEnvelope(env)
	s.caches.Podcast.SetTTL(key, episodes, EpisodesTTL)
	return episodes, nil
}

// PodcastFeed serves a single feed by id.
func (s *Service) PodcastFeed(ctx context.Context, feedID string) (*PodcastFeed, error) {
	key := "podfeed:" + feedID
	if v, ok := s.caches.Podcast.Get(key); ok {
		return v.(*PodcastFeed), nil
	}
	env, err := s.clients.Podcasts.Feed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	var feed PodcastFeed
	if m, ok := env["feed"].(map[string]any); ok {
		feed = feedFromMap(m)
	}
	s.caches.Podcast.Set(key, &feed)
	return &feed, nil
}

// BibleVersions serves the translation list with the long versions TTL.
func (s *Service) BibleVersions(ctx context.Context) ([]BibleVersion, error) {
	if v, ok := s.caches.Bible.Get("versions"); ok {
		return v.([]BibleVersion), nil
	}
	versions, err := s.clients.Bible.Versions(ctx)
	if err != nil {
		return nil, err
	}
	s.caches.Bible.SetTTL("versions", versions, VersionsTTL)
	return versions, nil
}

// BiblePassage serves the text of a human reference in the given translation
// (default KJV). Unknown book names pass the reference to the API unchanged.
func (s *Service) BiblePassage(ctx context.Context, reference, translationID string) (*BiblePassage, error) {
	if translationID == "" {
		translationID = DefaultBibleID
	}
	usfm := normalize.USFM(reference)
	key := "passage:" + translationID + ":" + usfm
	if v, ok := s.caches.Bible.Get(key); ok {
		return v.(*BiblePassage), nil
	}
	text, canonical, err := s.clients.Bible.Passage(ctx, translationID, usfm)
	if err != nil {
		return nil, err
	}
	if canonical == "" {
		canonical = reference
	}
	passage := &BiblePassage{
		Reference:   canonical,
		USFM:        usfm,
		Translation: translationID,
		Text:        text,
	}
	s.caches.Bible.Set(key, passage)
	return passage, nil
}

// votdReferences drives the verse-of-the-day rotation, indexed by day.
var votdReferences = []string{
	"John 3:16",
	"Psalm 23:1-6",
	"Philippians 4:13",
	"Jeremiah 29:11",
	"Romans 8:28",
	"Proverbs 3:5-6",
	"Isaiah 40:31",
	"Psalm 46:1",
	"Matthew 11:28",
	"Joshua 1:9",
	"Romans 12:2",
	"Galatians 5:22-23",
	"Psalm 119:105",
	"2 Timothy 1:7",
	"1 Corinthians 13:4-7",
	"Hebrews 11:1",
	"Psalm 27:1",
	"John 14:6",
	"Ephesians 2:8-9",
	"Isaiah 41:10",
	"Matthew 6:33",
	"Psalm 37:4",
	"Romans 5:8",
	"Lamentations 3:22-23",
	"James 1:5",
	"Psalm 121:1-2",
	"John 16:33",
	"Colossians 3:23",
	"1 Peter 5:7",
	"Micah 6:8",
	"Zephaniah 3:17",
}

// BibleVotd returns the verse of the day for a day number. If the passage
// fetch fails the resolver still answers: it logs a warning and returns the
// reference-only verse with empty text rather than erroring.
func (s *Service) BibleVotd(ctx context.Context, day int) (*BiblePassage, error) {
	if day < 0 {
		day = -day
	}
	reference := votdReferences[day%len(votdReferences)]
	passage, err := s.BiblePassage(ctx, reference, DefaultBibleID)
	if err != nil {
		log.Printf("WARN: votd passage fetch failed for %q: %v", reference, err)
		return &BiblePassage{
			Reference:   reference,
			USFM:        normalize.USFM(reference),
			Translation: DefaultBibleID,
			Text:        "",
		}, nil
	}
	return passage, nil
}

func feedsFromEnvelope(env map[string]any, listKey string) []PodcastFeed {
	raw, _ := env[listKey].([]any)
	feeds := make([]PodcastFeed, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		feeds = append(feeds, feedFromMap(m))
	}
	return feeds
}

// feedFromMap extracts a typed feed from a decoded envelope entry. Shape
// surprises resolve to zero values, never errors.
func feedFromMap(m map[string]any) PodcastFeed {
	return PodcastFeed{
		ID:           asInt64(m["id"]),
		Title:        asString(m["title"]),
		URL:          asString(m["url"]),
		Description:  asString(m["description"]),
		Author:       asString(m["author"]),
		Image:        asString(m["image"]),
		Categories:   normalize.Categories(m["categories"]),
		EpisodeCount: int(asInt64(m["episodeCount"])),
	}
}

func episodesFromEnvelope(env map[string]any) []PodcastEpisode {
	raw, _ := env["items"].([]any)
	episodes := make([]PodcastEpisode, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		episodes = append(episodes, PodcastEpisode{
			ID:            asInt64(m["id"]),
			Title:         asString(m["title"]),
			Description:   asString(m["description"]),
			DatePublished: asInt64(m["datePublished"]),
			EnclosureURL:  asString(m["enclosureUrl"]),
			Duration:      int(asInt64(m["duration"])),
			Image:         asString(m["image"]),
		})
	}
	return episodes
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
