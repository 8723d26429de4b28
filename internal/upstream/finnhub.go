package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

// Finnhub implements gateway.StockClient. Search, Profile and Candles hand
// back the decoded upstream payload untouched for verbatim proxying; Quote
// is normalized into the canonical shape.
type Finnhub struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewFinnhub(client *http.Client, apiKey, baseURL string) *Finnhub {
	return &Finnhub{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("finnhub"),
	}
}

func (p *Finnhub) header() http.Header {
	h := http.Header{}
	h.Set("X-Finnhub-Token", p.apiKey)
	return h
}

func (p *Finnhub) get(ctx context.Context, path string, values url.Values, out any) error {
	if p.apiKey == "" {
		return &NotConfiguredError{Var: "FINNHUB_API_KEY"}
	}
	return getJSON(ctx, p.client, p.circuit, "finnhub", p.baseURL+path+"?"+values.Encode(), p.header(), out)
}

func (p *Finnhub) Search(ctx context.Context, query string) (any, error) {
	values := url.Values{}
	values.Set("q", query)

	var payload any
	if err := p.get(ctx, "/search", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *Finnhub) Quote(ctx context.Context, symbol string) (*gateway.StockQuote, error) {
	values := url.Values{}
	values.Set("symbol", symbol)

	var payload struct {
		C  float64 `json:"c"`
		D  float64 `json:"d"`
		Dp float64 `json:"dp"`
		H  float64 `json:"h"`
		L  float64 `json:"l"`
		O  float64 `json:"o"`
		Pc float64 `json:"pc"`
	}
	if err := p.get(ctx, "/quote", values, &payload); err != nil {
		return nil, err
	}

	return &gateway.StockQuote{
		Symbol:        symbol,
		Current:       payload.C,
		Change:        payload.D,
		PercentChange: payload.Dp,
		High:          payload.H,
		Low:           payload.L,
		Open:          payload.O,
		PreviousClose: payload.Pc,
	}, nil
}

func (p *Finnhub) Profile(ctx context.Context, symbol string) (any, error) {
	values := url.Values{}
	values.Set("symbol", symbol)

	var payload any
	if err := p.get(ctx, "/stock/profile2", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *Finnhub) Candles(ctx context.Context, symbol, resolution string, from, to int64) (any, error) {
	values := url.Values{}
	values.Set("symbol", symbol)
	values.Set("resolution", resolution)
	values.Set("from", fmt.Sprintf("%d", from))
	values.Set("to", fmt.Sprintf("%d", to))

	var payload any
	if err := p.get(ctx, "/stock/candle", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (p *Finnhub) CompanyNews(ctx context.Context, symbol, from, to string) ([]any, error) {
	values := url.Values{}
	values.Set("symbol", symbol)
	values.Set("from", from)
	values.Set("to", to)

	var payload []any
	if err := p.get(ctx, "/company-news", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
