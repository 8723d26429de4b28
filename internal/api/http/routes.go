package httpapi

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/pdash/dashboard-gateway/internal/cache"
	"github.com/pdash/dashboard-gateway/internal/gateway"
)

var validate = validator.New()

// ProxyDeps holds what the REST proxy needs: its own cache instances (the
// proxy duplicates the aggregation, it does not share GraphQL's caches) plus
// the upstream clients and the per-IP limiter.
type ProxyDeps struct {
	Stocks     gateway.StockClient
	Podcasts   gateway.PodcastClient
	StockCache *cache.Cache
	PodCache   *cache.Cache
	Limiter    *RateLimiter
}

// RegisterRoutes wires the REST proxy handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d ProxyDeps) {
	limited := app.Group("/", d.Limiter.Middleware())

	limited.Get("/stock/:route", func(c *fiber.Ctx) error {
		return handleStock(c, d)
	})
	limited.Get("/podcast/:route", func(c *fiber.Ctx) error {
		return handlePodcast(c, d)
	})
}

func handleStock(c *fiber.Ctx, d ProxyDeps) error {
	ctx := c.UserContext()

	switch c.Params("route") {
	case "search":
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
		key := "search:" + q
		if v, ok := d.StockCache.Get(key); ok {
			return c.JSON(v)
		}
		result, err := d.Stocks.Search(ctx, q)
		if err != nil {
			return upstreamError(err)
		}
		d.StockCache.Set(key, result)
		return c.JSON(result)

	case "quote":
		symbol := c.Query("symbol")
		if symbol == "" {
			return fiber.NewError(fiber.StatusBadRequest, "symbol query parameter is required")
		}
		key := "quote:" + symbol
		if v, ok := d.StockCache.Get(key); ok {
			return c.JSON(v)
		}
		quote, err := d.Stocks.Quote(ctx, symbol)
		if err != nil {
			return upstreamError(err)
		}
		d.StockCache.SetTTL(key, quote, gateway.QuoteTTL)
		return c.JSON(quote)

	case "profile":
		symbol := c.Query("symbol")
		if symbol == "" {
			return fiber.NewError(fiber.StatusBadRequest, "symbol query parameter is required")
		}
		key := "profile:" + symbol
		if v, ok := d.StockCache.Get(key); ok {
			return c.JSON(v)
		}
		profile, err := d.Stocks.Profile(ctx, symbol)
		if err != nil {
			return upstreamError(err)
		}
		d.StockCache.Set(key, profile)
		return c.JSON(profile)

	case "candles":
		var req candlesQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		key := fmt.Sprintf("candles:%s:%s:%d:%d", req.Symbol, req.Resolution, req.From, req.To)
		if v, ok := d.StockCache.Get(key); ok {
			return c.JSON(v)
		}
		candles, err := d.Stocks.Candles(ctx, req.Symbol, req.Resolution, req.From, req.To)
		if err != nil {
			return upstreamError(err)
		}
		d.StockCache.Set(key, candles)
		return c.JSON(candles)

	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown stock route")
	}
}

func handlePodcast(c *fiber.Ctx, d ProxyDeps) error {
	ctx := c.UserContext()

	switch c.Params("route") {
	case "search":
		q := c.Query("q")
		if q == "" {
			return fiber.NewError(fiber.StatusBadRequest, "q query parameter is required")
		}
		key := "search:" + q
		if v, ok := d.PodCache.Get(key); ok {
			return c.JSON(v)
		}
		envelope, err := d.Podcasts.Search(ctx, q)
		if err != nil {
			return upstreamError(err)
		}
		d.PodCache.Set(key, envelope)
		return c.JSON(envelope)

	case "trending":
		max := c.QueryInt("max", 10)
		key := "trending:" + strconv.Itoa(max)
		if v, ok := d.PodCache.Get(key); ok {
			return c.JSON(v)
		}
		envelope, err := d.Podcasts.Trending(ctx, max)
		if err != nil {
			return upstreamError(err)
		}
		d.PodCache.SetTTL(key, envelope, gateway.TrendingTTL)
		return c.JSON(envelope)

	case "episodes":
		feedID := c.Query("feedId")
		if feedID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "feedId query parameter is required")
		}
		key := "episodes:" + feedID
		if v, ok := d.PodCache.Get(key); ok {
			return c.JSON(v)
		}
		envelope, err := d.Podcasts.Episodes(ctx, feedID)
		if err != nil {
			return upstreamError(err)
		}
		d.PodCache.SetTTL(key, envelope, gateway.EpisodesTTL)
		return c.JSON(envelope)

	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown podcast route")
	}
}

// candlesQuery holds and validates the candles route parameters.
type candlesQuery struct {
	Symbol     string `validate:"required"`
	Resolution string `validate:"required"`
	From       int64  `validate:"required"`
	To         int64  `validate:"required,gtefield=From"`
}

func (q *candlesQuery) bind(c *fiber.Ctx) error {
	q.Symbol = c.Query("symbol")
	q.Resolution = c.Query("resolution", "D")

	var err error
	if from := c.Query("from"); from != "" {
		if q.From, err = strconv.ParseInt(from, 10, 64); err != nil {
			return fmt.Errorf("invalid from: %w", err)
		}
	}
	if to := c.Query("to"); to != "" {
		if q.To, err = strconv.ParseInt(to, 10, 64); err != nil {
			return fmt.Errorf("invalid to: %w", err)
		}
	}
	return nil
}
