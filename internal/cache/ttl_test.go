package cache

import (
	"testing"
	"time"

	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/clock"
)

func TestTTLCacheExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, int](clk)

	c.Set("a", 1, 10*time.Minute)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected fresh hit, got %v %v", v, ok)
	}

	clk.Advance(9 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit before expiry")
	}

	clk.Advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after expiry")
	}
	if c.Len() != 0 {
		t.Fatalf("expected stale entry dropped, len=%d", c.Len())
	}
}

func TestTTLCacheOverwriteRefreshesExpiry(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTLCacheWithClock[string, string](clk)

	c.Set("k", "old", time.Minute)
	clk.Advance(50 * time.Second)
	c.Set("k", "new", time.Minute)
	clk.Advance(30 * time.Second)

	v, ok := c.Get("k")
	if !ok || v != "new" {
		t.Fatalf("expected refreshed entry, got %q %v", v, ok)
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Minute)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLCacheZeroTTLIsNoop(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	if c.Len() != 0 {
		t.Fatal("expected zero-ttl set to be ignored")
	}
}
