package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pdash/dashboard-gateway/internal/cache"
	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/upstream"
)

type stubStockClient struct {
	quoteErr error
}

func (s *stubStockClient) Search(ctx context.Context, query string) (any, error) {
	return map[string]any{"count": 1, "result": []any{map[string]any{"symbol": "AAPL"}}}, nil
}

func (s *stubStockClient) Quote(ctx context.Context, symbol string) (*gateway.StockQuote, error) {
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	return &gateway.StockQuote{Symbol: symbol, Current: 100}, nil
}

func (s *stubStockClient) Profile(ctx context.Context, symbol string) (any, error) {
	return map[string]any{"name": "Apple Inc"}, nil
}

func (s *stubStockClient) Candles(ctx context.Context, symbol, resolution string, from, to int64) (any, error) {
	return map[string]any{"s": "ok"}, nil
}

func (s *stubStockClient) CompanyNews(ctx context.Context, symbol, from, to string) ([]any, error) {
	return nil, nil
}

type stubPodcastClient struct{}

func (s *stubPodcastClient) Search(ctx context.Context, query string) (map[string]any, error) {
	return map[string]any{"feeds": []any{map[string]any{"id": float64(7), "categories": "News, Tech"}}}, nil
}

func (s *stubPodcastClient) Trending(ctx context.Context, max int) (map[string]any, error) {
	return map[string]any{"feeds": []any{}}, nil
}

func (s *stubPodcastClient) Episodes(ctx context.Context, feedID string) (map[string]any, error) {
	return map[string]any{"items": []any{}}, nil
}

func (s *stubPodcastClient) Feed(ctx context.Context, feedID string) (map[string]any, error) {
	return map[string]any{"feed": map[string]any{}}, nil
}

func newTestApp(t *testing.T, max int, window time.Duration, stocks gateway.StockClient) (*fiber.App, *RateLimiter) {
	t.Helper()

	app := fiber.New()
	limiter := NewRateLimiter(max, window)
	stockCache := cache.New(5*time.Minute, time.Hour)
	podCache := cache.New(5*time.Minute, time.Hour)
	t.Cleanup(func() {
		limiter.Stop()
		stockCache.Stop()
		podCache.Stop()
	})

	RegisterRoutes(app, ProxyDeps{
		Stocks:     stocks,
		Podcasts:   &stubPodcastClient{},
		StockCache: stockCache,
		PodCache:   podCache,
		Limiter:    limiter,
	})
	return app, limiter
}

// TestRateLimitBoundary verifies the fixed-window limits: the 60th request
// in a window passes and the 61st is rejected with 429.
func TestRateLimitBoundary(t *testing.T) {
	app, _ := newTestApp(t, 60, time.Hour, &stubStockClient{})

	for i := 1; i <= 60; i++ {
		req := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("request 61: expected 429, got %d", resp.StatusCode)
	}
}

func TestRateLimitWindowRollover(t *testing.T) {
	app, _ := newTestApp(t, 1, 100*time.Millisecond, &stubStockClient{})

	req := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil))
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected second request rejected, got %d", resp.StatusCode)
	}

	time.Sleep(150 * time.Millisecond)

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected request after rollover to pass, got %d", resp.StatusCode)
	}
}

func TestRateLimitPerIP(t *testing.T) {
	app, _ := newTestApp(t, 1, time.Hour, &stubStockClient{})

	first := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
	first.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if resp, _ := app.Test(first); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for first client, got %d", resp.StatusCode)
	}

	// Same forwarded client is now over its window budget.
	again := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
	again.Header.Set("X-Forwarded-For", "203.0.113.9")
	if resp, _ := app.Test(again); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeated client, got %d", resp.StatusCode)
	}

	// A different forwarded client gets its own counter.
	other := httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil)
	other.Header.Set("X-Forwarded-For", "198.51.100.4")
	if resp, _ := app.Test(other); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for distinct client, got %d", resp.StatusCode)
	}
}

func TestStockRouteValidation(t *testing.T) {
	app, _ := newTestApp(t, 100, time.Hour, &stubStockClient{})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/stock/search", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing q, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/stock/candles?symbol=AAPL&from=200&to=100", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for to<from, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/stock/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route, got %d", resp.StatusCode)
	}
}

// TestMissingCredentialSurfacesAs500 verifies the proxy maps a configuration
// error to HTTP 500 with the named-variable message.
func TestMissingCredentialSurfacesAs500(t *testing.T) {
	stocks := &stubStockClient{quoteErr: &upstream.NotConfiguredError{Var: "FINNHUB_API_KEY"}}
	app, _ := newTestApp(t, 100, time.Hour, stocks)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestUpstreamStatusForwarded(t *testing.T) {
	stocks := &stubStockClient{quoteErr: &upstream.StatusError{Provider: "finnhub", Code: http.StatusNotFound}}
	app, _ := newTestApp(t, 100, time.Hour, stocks)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/stock/quote?symbol=AAPL", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected upstream 404 forwarded, got %d", resp.StatusCode)
	}
}

func TestPodcastSearchEnvelope(t *testing.T) {
	app, _ := newTestApp(t, 100, time.Hour, &stubStockClient{})

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/podcast/search?q=news", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if _, ok := envelope["feeds"]; !ok {
		t.Fatal("expected the upstream envelope to be forwarded")
	}
}
