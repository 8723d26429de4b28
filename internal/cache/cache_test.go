package cache

import (
	"sync"
	"testing"
	"time"
)

// TestTTLRespect verifies that a value stored with a 30s TTL is served just
// before expiry and treated as absent just after.
func TestTTLRespect(t *testing.T) {
	c := New(30*time.Second, time.Hour)
	defer c.Stop()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("quote:AAPL", 42.5)

	c.now = func() time.Time { return base.Add(29 * time.Second) }
	v, ok := c.Get("quote:AAPL")
	if !ok {
		t.Fatal("expected hit at t+29s")
	}
	if v.(float64) != 42.5 {
		t.Fatalf("expected 42.5, got %v", v)
	}

	c.now = func() time.Time { return base.Add(31 * time.Second) }
	if _, ok := c.Get("quote:AAPL"); ok {
		t.Fatal("expected miss at t+31s")
	}
}

func TestSetTTLOverride(t *testing.T) {
	c := New(time.Second, time.Hour)
	defer c.Stop()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.SetTTL("versions", "kjv", 24*time.Hour)

	c.now = func() time.Time { return base.Add(12 * time.Hour) }
	if _, ok := c.Get("versions"); !ok {
		t.Fatal("expected hit well past the default TTL")
	}
}

// TestIncrementKeepsWindow verifies the counter semantics the rate limiter
// depends on: counting up never extends the entry's lifetime, and a fresh
// window starts at one once the old entry expires.
func TestIncrementKeepsWindow(t *testing.T) {
	c := New(10*time.Second, time.Hour)
	defer c.Stop()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	if n := c.Increment("ip:10.0.0.1"); n != 1 {
		t.Fatalf("expected first count 1, got %d", n)
	}

	c.now = func() time.Time { return base.Add(9 * time.Second) }
	if n := c.Increment("ip:10.0.0.1"); n != 2 {
		t.Fatalf("expected count 2, got %d", n)
	}

	c.now = func() time.Time { return base.Add(11 * time.Second) }
	if _, ok := c.Get("ip:10.0.0.1"); ok {
		t.Fatal("Increment must not push the expiry forward")
	}
	if n := c.Increment("ip:10.0.0.1"); n != 1 {
		t.Fatalf("expected a new window to start at 1, got %d", n)
	}
}

func TestIncrementConcurrent(t *testing.T) {
	c := New(time.Minute, time.Hour)
	defer c.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Increment("ip:10.0.0.1")
		}()
	}
	wg.Wait()

	v, ok := c.Get("ip:10.0.0.1")
	if !ok || v.(int) != 200 {
		t.Fatalf("expected 200 counted requests, got %v", v)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := New(time.Second, time.Hour)
	defer c.Stop()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	c.Set("a", 1)
	c.Set("b", 2)

	c.now = func() time.Time { return base.Add(2 * time.Second) }
	c.sweep()

	c.mu.Lock()
	n := len(c.entries)
	c.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected sweep to drop all expired entries, %d left", n)
	}
}
