package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// NotConfiguredError reports a missing provider credential. It is returned
// before any network I/O so a misconfigured provider fails fast instead of
// answering with empty data.
type NotConfiguredError struct {
	Var string
}

func (e *NotConfiguredError) Error() string {
	return e.Var + " not configured"
}

// StatusError carries a non-2xx upstream status so the REST proxy can
// forward it as-is.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.Code)
}

var errCircuitOpen = errors.New("circuit breaker open")

// newBreaker builds a circuit breaker with the settings shared by every
// provider client.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// getJSON performs one GET through the circuit breaker and decodes the 2xx
// body into out. There are no retries: a failed call is a failed request.
func getJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, provider, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	_, err = cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Provider: provider, Code: resp.StatusCode}
		}
		if out == nil {
			return nil, nil
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %s", errCircuitOpen, provider)
		}
		return err
	}
	return nil
}
