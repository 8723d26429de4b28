package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestFinnhubFailsFastWithoutKey verifies that a missing credential is
// reported before any network I/O happens.
func TestFinnhubFailsFastWithoutKey(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewFinnhub(server.Client(), "", server.URL)

	_, err := client.Search(context.Background(), "apple")
	if err == nil {
		t.Fatal("expected a configuration error")
	}
	var notConfigured *NotConfiguredError
	if !errors.As(err, &notConfigured) {
		t.Fatalf("expected NotConfiguredError, got %T: %v", err, err)
	}
	if err.Error() != "FINNHUB_API_KEY not configured" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if calls != 0 {
		t.Fatalf("expected zero HTTP calls, got %d", calls)
	}
}

func TestFinnhubQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Finnhub-Token") != "token" {
			t.Error("missing auth header")
		}
		if r.URL.Query().Get("symbol") != "AAPL" {
			t.Errorf("unexpected symbol %q", r.URL.Query().Get("symbol"))
		}
		w.Write([]byte(`{"c":189.84,"d":1.02,"dp":0.54,"h":190.1,"l":188.0,"o":188.5,"pc":188.82}`))
	}))
	defer server.Close()

	client := NewFinnhub(server.Client(), "token", server.URL)

	quote, err := client.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Symbol != "AAPL" || quote.Current != 189.84 || quote.PreviousClose != 188.82 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

// TestFinnhubStatusError verifies an upstream non-2xx surfaces with its
// original status code.
func TestFinnhubStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewFinnhub(server.Client(), "token", server.URL)

	_, err := client.Quote(context.Background(), "AAPL")
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if status.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", status.Code)
	}
}

func TestGetJSONContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewFinnhub(server.Client(), "token", server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := client.Quote(ctx, "AAPL"); err == nil {
		t.Fatal("expected a timeout error")
	}
}
