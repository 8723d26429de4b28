package gateway

import (
	"context"
	"time"
)

// CurrentWeather is the normalized current-conditions view, independent of
// which upstream produced it. Numeric fields are rounded at normalization
// time; cached values are display-ready.
type CurrentWeather struct {
	Time          string  `json:"time"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	Humidity      int     `json:"humidity"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"`
	Code          int     `json:"code"`
	Description   string  `json:"description"`
	Icon          string  `json:"icon"`
	IsDay         bool    `json:"isDay"`
}

// ForecastDay is one day of the daily forecast.
type ForecastDay struct {
	Date        string  `json:"date"`
	TempMax     float64 `json:"tempMax"`
	TempMin     float64 `json:"tempMin"`
	PrecipProb  int     `json:"precipProb"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// HourlyPoint is one hour of the short-range forecast.
type HourlyPoint struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	PrecipProb  int     `json:"precipProb"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// WeatherBundle is the aggregate weather response: current conditions plus
// daily and hourly forecasts, cached under three independent keys.
type WeatherBundle struct {
	Current  *CurrentWeather `json:"current"`
	Forecast []ForecastDay   `json:"forecast"`
	Hourly   []HourlyPoint   `json:"hourly"`
}

// AirQuality is the normalized air-quality snapshot.
type AirQuality struct {
	AQI  int     `json:"aqi"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
}

// HistoricalDay is a single day of archived weather.
type HistoricalDay struct {
	Date        string  `json:"date"`
	TempMax     float64 `json:"tempMax"`
	TempMin     float64 `json:"tempMin"`
	Precip      float64 `json:"precip"`
	Code        int     `json:"code"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// City is a geocoding result.
type City struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Admin1  string  `json:"admin1"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// StockQuote is the normalized Finnhub quote.
type StockQuote struct {
	Symbol        string  `json:"symbol"`
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
}

// CryptoPrice is one coin's normalized market data.
type CryptoPrice struct {
	ID        string  `json:"id"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	MarketCap float64 `json:"marketCap"`
}

// PodcastFeed is the normalized PodcastIndex feed. Categories is nil when
// the upstream omits it, never an undefined/missing field.
type PodcastFeed struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Description  string  `json:"description"`
	Author       string  `json:"author"`
	Image        string  `json:"image"`
	Categories   *string `json:"categories"`
	EpisodeCount int     `json:"episodeCount"`
}

// PodcastEpisode is one normalized feed episode.
type PodcastEpisode struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	DatePublished int64  `json:"datePublished"`
	EnclosureURL  string `json:"enclosureUrl"`
	Duration      int    `json:"duration"`
	Image         string `json:"image"`
}

// BibleVersion is one available translation.
type BibleVersion struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	Language     string `json:"language"`
}

// BiblePassage is the fetched text of a reference.
type BiblePassage struct {
	Reference   string `json:"reference"`
	USFM        string `json:"usfm"`
	Translation string `json:"translation"`
	Text        string `json:"text"`
}

// WeatherUpdate is what the subscription loop republishes per poll tick.
type WeatherUpdate struct {
	Lat     float64         `json:"lat"`
	Lon     float64         `json:"lon"`
	Current *CurrentWeather `json:"current"`
	At      time.Time       `json:"at"`
}

// WeatherClient abstracts the keyless Open-Meteo endpoints.
type WeatherClient interface {
	Current(ctx context.Context, lat, lon float64) (*CurrentWeather, error)
	Forecast(ctx context.Context, lat, lon float64) ([]ForecastDay, error)
	Hourly(ctx context.Context, lat, lon float64) ([]HourlyPoint, error)
	Historical(ctx context.Context, lat, lon float64, date string) (*HistoricalDay, error)
	SearchCities(ctx context.Context, query string, limit int) ([]City, error)
}

// AirClient abstracts the OpenWeather extras (air quality, reverse geocode).
type AirClient interface {
	AirQuality(ctx context.Context, lat, lon float64) (*AirQuality, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*City, error)
}

// StockClient abstracts Finnhub. Search, Profile and Candles return the
// decoded upstream payload untouched; the REST proxy forwards it verbatim.
type StockClient interface {
	Search(ctx context.Context, query string) (any, error)
	Quote(ctx context.Context, symbol string) (*StockQuote, error)
	Profile(ctx context.Context, symbol string) (any, error)
	Candles(ctx context.Context, symbol, resolution string, from, to int64) (any, error)
	CompanyNews(ctx context.Context, symbol, from, to string) ([]any, error)
}

// CryptoClient abstracts CoinGecko.
type CryptoClient interface {
	SimplePrices(ctx context.Context, ids []string, vsCurrency string) ([]CryptoPrice, error)
}

// PodcastClient abstracts PodcastIndex. Methods return the decoded upstream
// envelope with feed categories already normalized, so the REST proxy can
// forward it as-is and the GraphQL layer extracts typed feeds from it.
type PodcastClient interface {
	Search(ctx context.Context, query string) (map[string]any, error)
	Trending(ctx context.Context, max int) (map[string]any, error)
	Episodes(ctx context.Context, feedID string) (map[string]any, error)
	Feed(ctx context.Context, feedID string) (map[string]any, error)
}

// BibleClient abstracts the Bible API.
type BibleClient interface {
	Versions(ctx context.Context) ([]BibleVersion, error)
	Passage(ctx context.Context, translationID, usfm string) (string, string, error)
}
