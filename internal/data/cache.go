package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"sma-forecast/internal/model"
)

// CacheEntry is one cached daily series.
type CacheEntry struct {
	Records   []model.PriceRecord
	ExpiresAt time.Time
}

// QuoteCache keeps daily series from the quote feed in memory. The free feed
// allows a handful of calls per minute and the series only changes once a
// day, so /data answers from here until the TTL runs out.
//
// A nil *QuoteCache is a valid, disabled cache.
type QuoteCache struct {
	mu    sync.RWMutex
	store map[string]*CacheEntry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewQuoteCache returns a cache with the given TTL, or nil when ttl <= 0.
// sweep > 0 starts a goroutine that drops expired entries; stop it with Close.
func NewQuoteCache(ttl, sweep time.Duration) *QuoteCache {
	if ttl <= 0 {
		return nil
	}
	c := &QuoteCache{
		store: make(map[string]*CacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if sweep > 0 {
		go c.cleanup(sweep)
	}
	return c
}

// Get retrieves a cached series if present and not expired.
func (c *QuoteCache) Get(key string) ([]model.PriceRecord, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.store[key]
	if !ok || c.now().After(entry.ExpiresAt) {
		return nil, false
	}
	return entry.Records, true
}

// Set stores a series.
func (c *QuoteCache) Set(key string, records []model.PriceRecord) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &CacheEntry{
		Records:   records,
		ExpiresAt: c.now().Add(c.ttl),
	}
}

// Clear removes all entries.
func (c *QuoteCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*CacheEntry)
}

// Len counts entries, expired ones included.
func (c *QuoteCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the sweeper. Safe to call more than once.
func (c *QuoteCache) Close() {
	if c == nil {
		return
	}
	c.once.Do(func() { close(c.stop) })
}

func (c *QuoteCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *QuoteCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.ExpiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey creates a cache key from query parameters.
func CacheKey(params DailyParams) string {
	keyStr := fmt.Sprintf("%s:%s", strings.ToUpper(params.Symbol), params.OutputSize)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}
