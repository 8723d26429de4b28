package graphqlapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pdash/dashboard-gateway/internal/cache"
	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/pubsub"
	"github.com/pdash/dashboard-gateway/internal/subscription"
)

type fakeStocks struct{}

func (fakeStocks) Search(ctx context.Context, query string) (any, error) { return nil, nil }
func (fakeStocks) Quote(ctx context.Context, symbol string) (*gateway.StockQuote, error) {
	return &gateway.StockQuote{Symbol: symbol, Current: 189.84, PreviousClose: 188.82}, nil
}
func (fakeStocks) Profile(ctx context.Context, symbol string) (any, error) { return nil, nil }
func (fakeStocks) Candles(ctx context.Context, symbol, resolution string, from, to int64) (any, error) {
	return map[string]any{"s": "ok", "c": []any{1.0, 2.0}}, nil
}
func (fakeStocks) CompanyNews(ctx context.Context, symbol, from, to string) ([]any, error) {
	return nil, nil
}

type failingCrypto struct{}

func (failingCrypto) SimplePrices(ctx context.Context, ids []string, vsCurrency string) ([]gateway.CryptoPrice, error) {
	return nil, errors.New("provider unavailable")
}

func newTestHandler(t *testing.T) (*fiber.App, *Handler) {
	t.Helper()

	caches := gateway.Caches{
		Stock:   cache.New(5*time.Minute, time.Hour),
		Crypto:  cache.New(time.Minute, time.Hour),
		Podcast: cache.New(5*time.Minute, time.Hour),
		Weather: cache.New(10*time.Minute, time.Hour),
		Bible:   cache.New(time.Hour, time.Hour),
	}
	t.Cleanup(func() {
		for _, c := range []*cache.Cache{caches.Stock, caches.Crypto, caches.Podcast, caches.Weather, caches.Bible} {
			c.Stop()
		}
	})

	svc := gateway.NewService(gateway.Clients{
		Stocks: fakeStocks{},
		Crypto: failingCrypto{},
	}, caches)

	bus := pubsub.NewBus()
	poller := subscription.NewPoller(svc, bus, time.Hour)
	t.Cleanup(poller.Stop)

	handler, err := NewHandler(svc, poller, bus)
	if err != nil {
		t.Fatalf("failed to build handler: %v", err)
	}

	app := fiber.New()
	app.Post("/graphql", handler.Query)
	return app, handler
}

func postQuery(t *testing.T, app *fiber.App, body string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw, _ := io.ReadAll(resp.Body)
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return result
}

func TestQueryStockQuote(t *testing.T) {
	app, _ := newTestHandler(t)

	result := postQuery(t, app, `{"query":"{ stockQuote(symbol: \"AAPL\") { symbol current previousClose } }"}`)

	data, _ := result["data"].(map[string]any)
	quote, _ := data["stockQuote"].(map[string]any)
	if quote == nil {
		t.Fatalf("missing stockQuote in response: %v", result)
	}
	if quote["symbol"] != "AAPL" || quote["current"] != 189.84 {
		t.Fatalf("unexpected quote: %v", quote)
	}
}

func TestQueryVariables(t *testing.T) {
	app, _ := newTestHandler(t)

	result := postQuery(t, app, `{
		"query": "query Quote($s: String!) { stockQuote(symbol: $s) { symbol } }",
		"variables": {"s": "MSFT"}
	}`)

	data, _ := result["data"].(map[string]any)
	quote, _ := data["stockQuote"].(map[string]any)
	if quote == nil || quote["symbol"] != "MSFT" {
		t.Fatalf("unexpected response: %v", result)
	}
}

// TestFieldErrorIsolation verifies that one field failing leaves sibling
// fields resolved, with the failure reported in the errors list.
func TestFieldErrorIsolation(t *testing.T) {
	app, _ := newTestHandler(t)

	result := postQuery(t, app, `{"query":"{ stockQuote(symbol: \"AAPL\") { symbol } cryptoPrices(ids: [\"bitcoin\"]) { id } }"}`)

	data, _ := result["data"].(map[string]any)
	if quote, _ := data["stockQuote"].(map[string]any); quote == nil || quote["symbol"] != "AAPL" {
		t.Fatalf("expected the healthy sibling field to resolve: %v", result)
	}
	if data["cryptoPrices"] != nil {
		t.Fatalf("expected null for the failed field, got %v", data["cryptoPrices"])
	}

	errs, _ := result["errors"].([]any)
	if len(errs) == 0 {
		t.Fatalf("expected an errors entry for the failed field: %v", result)
	}
}

func TestQueryRejectsEmptyBody(t *testing.T) {
	app, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing query, got %d", resp.StatusCode)
	}
}

func TestJSONScalarPassthrough(t *testing.T) {
	app, _ := newTestHandler(t)

	result := postQuery(t, app, `{"query":"{ stockCandles(symbol: \"AAPL\", from: 100, to: 200) }"}`)

	data, _ := result["data"].(map[string]any)
	candles, _ := data["stockCandles"].(map[string]any)
	if candles == nil || candles["s"] != "ok" {
		t.Fatalf("expected the upstream payload forwarded untouched: %v", result)
	}
}
