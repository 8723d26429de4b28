package upstream

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/pdash/dashboard-gateway/internal/normalize"
)

const podcastUserAgent = "dashboard-gateway/1.0"

// PodcastIndex implements gateway.PodcastClient. Every request carries the
// provider's time-based auth headers; responses come back as the decoded
// upstream envelope with feed categories normalized in place.
type PodcastIndex struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
	now       func() time.Time
}

func NewPodcastIndex(client *http.Client, apiKey, apiSecret, baseURL string) *PodcastIndex {
	return &PodcastIndex{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		client:    client,
		circuit:   newBreaker("podcastindex"),
		now:       time.Now,
	}
}

// signAuth builds the PodcastIndex Authorization value: the hex SHA-1 digest
// of key+secret+timestamp. SHA-1 is what the provider mandates for request
// signing; it is not a security boundary here.
func signAuth(apiKey, apiSecret string, ts int64) string {
	sum := sha1.Sum([]byte(apiKey + apiSecret + strconv.FormatInt(ts, 10)))
	return fmt.Sprintf("%x", sum)
}

// authHeader builds the four auth headers with a fresh timestamp; timestamps
// are never reused across requests.
func (p *PodcastIndex) authHeader() http.Header {
	ts := p.now().Unix()
	h := http.Header{}
	h.Set("X-Auth-Key", p.apiKey)
	h.Set("X-Auth-Date", strconv.FormatInt(ts, 10))
	h.Set("Authorization", signAuth(p.apiKey, p.apiSecret, ts))
	h.Set("User-Agent", podcastUserAgent)
	return h
}

func (p *PodcastIndex) get(ctx context.Context, path string, values url.Values) (map[string]any, error) {
	if p.apiKey == "" {
		return nil, &NotConfiguredError{Var: "PODCASTINDEX_API_KEY"}
	}
	if p.apiSecret == "" {
		return nil, &NotConfiguredError{Var: "PODCASTINDEX_API_SECRET"}
	}

	var envelope map[string]any
	if err := getJSON(ctx, p.client, p.circuit, "podcastindex", p.baseURL+path+"?"+values.Encode(), p.authHeader(), &envelope); err != nil {
		return nil, err
	}
	normalizeCategories(envelope)
	return envelope, nil
}

func (p *PodcastIndex) Search(ctx context.Context, query string) (map[string]any, error) {
	values := url.Values{}
	values.Set("q", query)
	return p.get(ctx, "/search/byterm", values)
}

func (p *PodcastIndex) Trending(ctx context.Context, max int) (map[string]any, error) {
	values := url.Values{}
	values.Set("max", strconv.Itoa(max))
	return p.get(ctx, "/podcasts/trending", values)
}

func (p *PodcastIndex) Episodes(ctx context.Context, feedID string) (map[string]any, error) {
	values := url.Values{}
	values.Set("id", feedID)
	return p.get(ctx, "/episodes/byfeedid", values)
}

func (p *PodcastIndex) Feed(ctx context.Context, feedID string) (map[string]any, error) {
	values := url.Values{}
	values.Set("id", feedID)
	return p.get(ctx, "/podcasts/byfeedid", values)
}

// normalizeCategories rewrites the categories value of every feed in the
// envelope to the joined display string (or an explicit null), so both
// the GraphQL layer and the verbatim REST proxy see normalized data.
func normalizeCategories(envelope map[string]any) {
	rewrite := func(m map[string]any) {
		if cats := normalize.Categories(m["categories"]); cats != nil {
			m["categories"] = *cats
		} else {
			m["categories"] = nil
		}
	}

	for _, listKey := range []string{"feeds", "items"} {
		list, ok := envelope[listKey].([]any)
		if !ok {
			continue
		}
		for _, item := range list {
			if m, ok := item.(map[string]any); ok {
				if _, has := m["categories"]; has || listKey == "feeds" {
					rewrite(m)
				}
			}
		}
	}
	if feed, ok := envelope["feed"].(map[string]any); ok {
		rewrite(feed)
	}
}
