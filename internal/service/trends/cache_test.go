package trends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospector/internal/domain/signal"
)

type stubTrendSource struct {
	snapshot signal.TrendSnapshot
	err      error
	calls    int
}

func (s *stubTrendSource) Interest(ctx context.Context, keyword, timeframe, region string) (signal.TrendSnapshot, error) {
	s.calls++
	if s.err != nil {
		return signal.TrendSnapshot{}, s.err
	}
	return s.snapshot, nil
}

func newTestCache(source signal.TrendSource, now *time.Time) *Cache {
	return NewCache(source, Config{}, zap.NewNop()).
		WithClock(func() time.Time { return *now })
}

func TestLookupCachesWithinTTL(t *testing.T) {
	source := &stubTrendSource{snapshot: signal.TrendSnapshot{InterestScore: 62, SampleCount: 12}}
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cache := newTestCache(source, &current)

	first := cache.Lookup(context.Background(), "notion templates")
	require.Equal(t, 62, first.InterestScore)
	require.Equal(t, 1, source.calls)

	current = current.Add(5*time.Hour + 59*time.Minute)
	second := cache.Lookup(context.Background(), "Notion Templates")
	assert.Equal(t, 62, second.InterestScore)
	assert.Equal(t, 1, source.calls, "fresh entry must be served from cache")

	current = current.Add(2 * time.Minute)
	cache.Lookup(context.Background(), "notion templates")
	assert.Equal(t, 2, source.calls, "entry past TTL must refetch")
}

func TestLookupErrorReturnsDefault(t *testing.T) {
	source := &stubTrendSource{err: errors.New("upstream down")}
	current := time.Now()
	cache := newTestCache(source, &current)

	snapshot := cache.Lookup(context.Background(), "chatgpt prompts")

	assert.Equal(t, 0, snapshot.InterestScore)
	assert.Equal(t, "chatgpt prompts", snapshot.Keyword)
	assert.Equal(t, "US", snapshot.Region)

	// Errors do not trigger the cooldown: the next lookup calls upstream again.
	cache.Lookup(context.Background(), "chatgpt prompts")
	assert.Equal(t, 2, source.calls)
}

func TestLookupEmptyResultStartsCooldown(t *testing.T) {
	source := &stubTrendSource{snapshot: signal.TrendSnapshot{}}
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cache := newTestCache(source, &current)

	cache.Lookup(context.Background(), "first keyword")
	require.Equal(t, 1, source.calls)

	// The cooldown is global: a different keyword is short-circuited too.
	snapshot := cache.Lookup(context.Background(), "second keyword")
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, 0, snapshot.InterestScore)
	assert.Equal(t, "second keyword", snapshot.Keyword)

	current = current.Add(61 * time.Second)
	cache.Lookup(context.Background(), "second keyword")
	assert.Equal(t, 2, source.calls)
}

func TestLookupCancelledContextReturnsDefault(t *testing.T) {
	source := &stubTrendSource{snapshot: signal.TrendSnapshot{InterestScore: 50, SampleCount: 5}}
	current := time.Now()
	cache := newTestCache(source, &current)

	// Occupy the single upstream slot so the lookup has to wait on ctx.
	cache.sem <- struct{}{}
	defer func() { <-cache.sem }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snapshot := cache.Lookup(ctx, "blocked keyword")
	assert.Equal(t, 0, snapshot.InterestScore)
	assert.Equal(t, 0, source.calls)
}

func TestLookupStampsMetadata(t *testing.T) {
	source := &stubTrendSource{snapshot: signal.TrendSnapshot{InterestScore: 41, SampleCount: 9}}
	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	cache := newTestCache(source, &current)

	snapshot := cache.Lookup(context.Background(), "keyword")
	assert.Equal(t, "keyword", snapshot.Keyword)
	assert.Equal(t, "US", snapshot.Region)
	assert.Equal(t, "today 3-m", snapshot.Timeframe)
	assert.Equal(t, current.UTC(), snapshot.ScrapedAt)
}
