package competition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/domain/signal"
)

type stubMarketplace struct {
	listings []signal.Listing
	err      error
	calls    int
}

func (s *stubMarketplace) Listings(ctx context.Context, keyword string, limit int) ([]signal.Listing, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

func listing(price int, rating float64, reviews int) signal.Listing {
	return signal.Listing{
		Title:       "Some Product",
		URL:         "https://gumroad.com/l/some-product",
		PriceCents:  price,
		Rating:      rating,
		ReviewCount: reviews,
	}
}

func repeat(l signal.Listing, n int) []signal.Listing {
	out := make([]signal.Listing, n)
	for i := range out {
		out[i] = l
	}
	return out
}

func TestAnalyzeClassification(t *testing.T) {
	cases := []struct {
		name     string
		listings []signal.Listing
		level    opportunity.CompetitionLevel
		penalty  int
	}{
		{
			name:     "no listings",
			listings: nil,
			level:    opportunity.CompetitionNone,
			penalty:  -10,
		},
		{
			name:     "low quality",
			listings: repeat(listing(900, 2.8, 10), 6),
			level:    opportunity.CompetitionLowQuality,
			penalty:  -3,
		},
		{
			name:     "saturated by volume",
			listings: repeat(listing(900, 4.0, 5), 8),
			level:    opportunity.CompetitionSaturated,
			penalty:  -20,
		},
		{
			name:     "saturated by strong ratings",
			listings: repeat(listing(900, 4.8, 30), 4),
			level:    opportunity.CompetitionSaturated,
			penalty:  -20,
		},
		{
			name:     "high",
			listings: repeat(listing(900, 4.0, 5), 5),
			level:    opportunity.CompetitionHigh,
			penalty:  -10,
		},
		{
			name:     "validated",
			listings: repeat(listing(900, 4.0, 5), 2),
			level:    opportunity.CompetitionValidated,
			penalty:  -5,
		},
		{
			// Unreviewed listings count toward volume but not toward the
			// rating average, so they cannot trip the low-quality branch.
			name:     "saturated with no reviews",
			listings: repeat(listing(900, 0, 0), 8),
			level:    opportunity.CompetitionSaturated,
			penalty:  -20,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Analyze("keyword", tc.listings)
			assert.Equal(t, tc.level, summary.Level)
			assert.Equal(t, tc.penalty, summary.Penalty)
			assert.Equal(t, len(tc.listings), summary.ProductCount)
		})
	}
}

func TestAnalyzeRatingAverageSkipsUnreviewed(t *testing.T) {
	listings := []signal.Listing{
		listing(900, 5.0, 10),
		listing(900, 3.0, 10),
		listing(900, 1.0, 0), // no reviews, must not drag the average down
	}

	summary := Analyze("keyword", listings)
	require.NotNil(t, summary.AvgRating)
	assert.InDelta(t, 4.0, *summary.AvgRating, 0.001)
	assert.Equal(t, 20, summary.TotalReviews)
}

func TestAnalyzeNoReviewsNilAverage(t *testing.T) {
	summary := Analyze("keyword", repeat(listing(900, 0, 0), 3))
	assert.Nil(t, summary.AvgRating)
}

func TestAnalyzePriceStats(t *testing.T) {
	listings := []signal.Listing{
		listing(500, 4.0, 3),
		listing(1500, 4.0, 3),
		listing(1000, 4.0, 3),
		listing(0, 4.0, 3), // free listing excluded from price stats
	}

	summary := Analyze("keyword", listings)
	assert.Equal(t, 500, summary.PriceRangeLow)
	assert.Equal(t, 1500, summary.PriceRangeHigh)
	assert.Equal(t, 1000, summary.AvgPriceCents)
}

func TestSummarizeCachesByNormalizedKeyword(t *testing.T) {
	scout := &stubMarketplace{listings: repeat(listing(900, 4.0, 5), 2)}
	analyzer := NewAnalyzer(scout, Config{}, zap.NewNop())

	first := analyzer.Summarize(context.Background(), "Notion Templates")
	second := analyzer.Summarize(context.Background(), "  notion templates ")

	assert.Equal(t, first.Level, second.Level)
	assert.Equal(t, 1, scout.calls)
}

func TestSummarizeCacheExpires(t *testing.T) {
	scout := &stubMarketplace{listings: repeat(listing(900, 4.0, 5), 2)}

	current := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	analyzer := NewAnalyzer(scout, Config{}, zap.NewNop()).
		WithClock(func() time.Time { return current })

	analyzer.Summarize(context.Background(), "keyword")
	require.Equal(t, 1, scout.calls)

	current = current.Add(23 * time.Hour)
	analyzer.Summarize(context.Background(), "keyword")
	assert.Equal(t, 1, scout.calls)

	current = current.Add(2 * time.Hour)
	analyzer.Summarize(context.Background(), "keyword")
	assert.Equal(t, 2, scout.calls)
}

func TestSummarizeErrorIsNeutralAndUncached(t *testing.T) {
	scout := &stubMarketplace{err: errors.New("blocked")}
	analyzer := NewAnalyzer(scout, Config{}, zap.NewNop())

	summary := analyzer.Summarize(context.Background(), "keyword")
	assert.Equal(t, opportunity.CompetitionUnknown, summary.Level)
	assert.Equal(t, -5, summary.Penalty)

	// Error summaries are not cached: the next call retries the scout.
	scout.err = nil
	scout.listings = repeat(listing(900, 4.0, 5), 2)
	summary = analyzer.Summarize(context.Background(), "keyword")
	assert.Equal(t, opportunity.CompetitionValidated, summary.Level)
	assert.Equal(t, 2, scout.calls)
}
