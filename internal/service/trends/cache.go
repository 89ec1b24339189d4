package trends

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

// Config contains trend cache tuning.
type Config struct {
	// Timeout is the hard budget for one upstream call.
	Timeout time.Duration

	// TTL is how long a cached snapshot stays fresh.
	TTL time.Duration

	// Cooldown is the process-wide backoff applied after the upstream
	// returns an empty (throttled) result.
	Cooldown time.Duration

	Region    string
	Timeframe string
}

type cacheEntry struct {
	snapshot signal.TrendSnapshot
	cachedAt time.Time
}

// Cache wraps a flaky, rate-limited trend source. Lookups never fail: timeout
// or upstream error degrades to a zero-valued snapshot. At most one upstream
// call is in flight at a time since the trend source does not tolerate
// concurrent queries.
type Cache struct {
	source signal.TrendSource
	config Config
	logger *zap.Logger

	mu               sync.Mutex
	entries          map[string]cacheEntry
	rateLimitedUntil time.Time

	// sem serializes upstream calls.
	sem chan struct{}
	now func() time.Time
}

// NewCache creates a trend cache around a source.
func NewCache(source signal.TrendSource, config Config, logger *zap.Logger) *Cache {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.TTL <= 0 {
		config.TTL = 6 * time.Hour
	}
	if config.Cooldown <= 0 {
		config.Cooldown = 60 * time.Second
	}
	if config.Region == "" {
		config.Region = "US"
	}
	if config.Timeframe == "" {
		config.Timeframe = "today 3-m"
	}

	return &Cache{
		source:  source,
		config:  config,
		logger:  logger,
		entries: make(map[string]cacheEntry),
		sem:     make(chan struct{}, 1),
		now:     time.Now,
	}
}

// WithClock overrides the cache's clock for deterministic TTL tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Lookup returns trend data for a keyword, serving from cache when fresh.
// It never returns an error; every failure path yields a default snapshot.
func (c *Cache) Lookup(ctx context.Context, keyword string) signal.TrendSnapshot {
	key := c.cacheKey(keyword)

	c.mu.Lock()
	entry, cached := c.entries[key]
	limited := c.now().Before(c.rateLimitedUntil)
	c.mu.Unlock()

	if cached && c.now().Sub(entry.cachedAt) < c.config.TTL {
		return entry.snapshot
	}

	// During the cooldown every keyword short-circuits, stale cache included.
	if limited {
		c.logger.Debug("trend source in cooldown, serving cached or default",
			zap.String("keyword", keyword))
		if cached {
			return entry.snapshot
		}
		return c.defaultSnapshot(keyword)
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return c.defaultSnapshot(keyword)
	}
	defer func() { <-c.sem }()

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	snapshot, err := c.source.Interest(callCtx, keyword, c.config.Timeframe, c.config.Region)
	if err != nil {
		c.logger.Warn("trend lookup failed, returning default",
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		return c.defaultSnapshot(keyword)
	}

	if snapshot.Empty() {
		c.mu.Lock()
		c.rateLimitedUntil = c.now().Add(c.config.Cooldown)
		c.mu.Unlock()
		c.logger.Info("trend source returned empty result, backing off",
			zap.String("keyword", keyword),
			zap.Duration("cooldown", c.config.Cooldown),
		)
	}

	snapshot.Keyword = keyword
	snapshot.Region = c.config.Region
	snapshot.Timeframe = c.config.Timeframe
	snapshot.ScrapedAt = c.now().UTC()

	c.mu.Lock()
	c.entries[key] = cacheEntry{snapshot: snapshot, cachedAt: c.now()}
	c.mu.Unlock()

	return snapshot
}

func (c *Cache) cacheKey(keyword string) string {
	return strings.ToLower(keyword) + ":" + c.config.Region + ":" + c.config.Timeframe
}

func (c *Cache) defaultSnapshot(keyword string) signal.TrendSnapshot {
	return signal.TrendSnapshot{
		Keyword:   keyword,
		Region:    c.config.Region,
		Timeframe: c.config.Timeframe,
	}
}
