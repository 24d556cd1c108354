package data

import (
	"testing"
	"time"

	"sma-forecast/internal/model"
)

func TestQuoteCacheExpiry(t *testing.T) {
	c := NewQuoteCache(time.Minute, 0)
	defer c.Close()
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := CacheKey(DailyParams{Symbol: "spy", OutputSize: "full"})
	c.Set(key, []model.PriceRecord{{Date: "2024-01-02", Close: 1}})
	if got, ok := c.Get(key); !ok || len(got) != 1 {
		t.Fatalf("expected hit, got %v %v", got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(key); ok {
		t.Fatalf("expected expired entry to miss")
	}
	c.evictExpired()
	if c.Len() != 0 {
		t.Fatalf("expected expired entry evicted, len=%d", c.Len())
	}
}

func TestQuoteCacheKeyIgnoresSymbolCase(t *testing.T) {
	a := CacheKey(DailyParams{Symbol: "spy", OutputSize: "full"})
	b := CacheKey(DailyParams{Symbol: "SPY", OutputSize: "full"})
	c := CacheKey(DailyParams{Symbol: "SPY", OutputSize: "compact"})
	if a != b {
		t.Fatalf("keys differ by case")
	}
	if a == c {
		t.Fatalf("output size not part of key")
	}
}

func TestNilQuoteCache(t *testing.T) {
	c := NewQuoteCache(0, 0)
	if c != nil {
		t.Fatalf("expected nil cache for zero ttl")
	}
	c.Set("k", nil)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("nil cache returned a hit")
	}
	c.Clear()
	c.Close()
}
