package upstream

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/gateway"
)

// CoinGecko implements gateway.CryptoClient against the keyless simple-price
// endpoint. Coin ids are sorted before joining so the upstream URL is as
// canonical as the cache key.
type CoinGecko struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewCoinGecko(client *http.Client, baseURL string) *CoinGecko {
	return &CoinGecko{
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("coingecko"),
	}
}

func (p *CoinGecko) SimplePrices(ctx context.Context, ids []string, vsCurrency string) ([]gateway.CryptoPrice, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	values := url.Values{}
	values.Set("ids", strings.Join(sorted, ","))
	values.Set("vs_currencies", vsCurrency)
	values.Set("include_24hr_change", "true")
	values.Set("include_market_cap", "true")

	var payload map[string]map[string]float64
	if err := getJSON(ctx, p.client, p.circuit, "coingecko", p.baseURL+"/simple/price?"+values.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	prices := make([]gateway.CryptoPrice, 0, len(sorted))
	for _, id := range sorted {
		coin, ok := payload[id]
		if !ok {
			continue
		}
		prices = append(prices, gateway.CryptoPrice{
			ID:        id,
			Price:     coin[vsCurrency],
			Change24h: coin[vsCurrency+"_24h_change"],
			MarketCap: coin[vsCurrency+"_market_cap"],
		})
	}
	return prices, nil
}
