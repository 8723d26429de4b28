package httpapi

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pdash/dashboard-gateway/internal/cache"
)

// RateLimiter is a fixed-window per-IP request counter for the REST proxy.
// Counters live in the limiter's own cache instance and expire with the
// window; incrementing never extends a window. The GraphQL entry point is
// deliberately not covered (separate state, see DESIGN.md).
type RateLimiter struct {
	store  *cache.Cache
	max    int
	window time.Duration
}

func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  cache.New(window, window),
		max:    max,
		window: window,
	}
}

// Middleware counts the request against the client IP's current window and
// rejects with 429 once the limit is exceeded. The count is taken in one
// atomic step so concurrent requests cannot slip past the limit.
func (rl *RateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.store.Increment(clientIP(c)) > rl.max {
			return fiber.NewError(fiber.StatusTooManyRequests, "too many requests, please try again later")
		}
		return c.Next()
	}
}

// Stop ends the limiter's cache janitor.
func (rl *RateLimiter) Stop() {
	rl.store.Stop()
}

// clientIP takes the first X-Forwarded-For entry when present, falling back
// to the transport-level peer address.
func clientIP(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	return c.IP()
}
