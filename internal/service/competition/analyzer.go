package competition

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"prospector/internal/domain/opportunity"
	"prospector/internal/domain/signal"
)

const (
	// cacheTTL bounds how long a keyword's summary is reused before the
	// marketplace is scraped again.
	cacheTTL = 24 * time.Hour

	defaultListingLimit = 20
)

// Config holds analyzer tuning.
type Config struct {
	// ListingLimit caps how many listings are fetched per keyword.
	ListingLimit int
}

// Analyzer turns marketplace listings into a competition classification and
// penalty. Summaries are cached per lowercased keyword; a fetch failure yields
// a neutral unknown summary so competition analysis never blocks scoring.
type Analyzer struct {
	scout  signal.MarketplaceScout
	config Config
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string]opportunity.CompetitionSummary
	now   func() time.Time
}

// NewAnalyzer creates a competition analyzer backed by a marketplace scout.
func NewAnalyzer(scout signal.MarketplaceScout, config Config, logger *zap.Logger) *Analyzer {
	if config.ListingLimit <= 0 {
		config.ListingLimit = defaultListingLimit
	}
	return &Analyzer{
		scout:  scout,
		config: config,
		logger: logger,
		cache:  make(map[string]opportunity.CompetitionSummary),
		now:    time.Now,
	}
}

// WithClock overrides the analyzer's clock. Used by tests to cross the cache
// TTL deterministically.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Summarize returns the competition summary for a keyword, consulting the
// cache first. Errors from the scout degrade to an unknown/-5 summary.
func (a *Analyzer) Summarize(ctx context.Context, keyword string) opportunity.CompetitionSummary {
	key := strings.ToLower(strings.TrimSpace(keyword))

	a.mu.Lock()
	cached, ok := a.cache[key]
	a.mu.Unlock()
	if ok && a.now().Sub(cached.ScrapedAt) < cacheTTL {
		return cached
	}

	listings, err := a.scout.Listings(ctx, keyword, a.config.ListingLimit)
	if err != nil {
		a.logger.Warn("marketplace lookup failed, using neutral competition",
			zap.String("keyword", keyword),
			zap.Error(err),
		)
		return opportunity.CompetitionSummary{
			Keyword:   keyword,
			Level:     opportunity.CompetitionUnknown,
			Penalty:   -5,
			ScrapedAt: a.now().UTC(),
		}
	}

	summary := Analyze(keyword, listings)
	summary.ScrapedAt = a.now().UTC()

	a.mu.Lock()
	a.cache[key] = summary
	a.mu.Unlock()

	return summary
}

// Analyze classifies competition from listings. The branches are evaluated in
// priority order; the first match wins:
//
//	0 listings                          -> none      (-10, unvalidated)
//	avg rating < 3.5                    -> low_quality (-3, underserved demand)
//	8+ listings, or 4+ rated above 4.5  -> saturated  (-20)
//	4+ listings                         -> high       (-10)
//	1-3 listings                        -> validated  (-5, proven demand)
//
// The rating average only counts listings with at least one review; unreviewed
// listings still count toward the product count.
func Analyze(keyword string, listings []signal.Listing) opportunity.CompetitionSummary {
	count := len(listings)

	var avgRating *float64
	rated := 0
	ratingSum := 0.0
	totalReviews := 0
	priceLow, priceHigh, priceSum, priced := 0, 0, 0, 0

	for _, l := range listings {
		totalReviews += l.ReviewCount
		if l.ReviewCount > 0 {
			rated++
			ratingSum += l.Rating
		}
		if l.PriceCents > 0 {
			if priced == 0 || l.PriceCents < priceLow {
				priceLow = l.PriceCents
			}
			if l.PriceCents > priceHigh {
				priceHigh = l.PriceCents
			}
			priceSum += l.PriceCents
			priced++
		}
	}
	if rated > 0 {
		avg := ratingSum / float64(rated)
		avgRating = &avg
	}

	var level opportunity.CompetitionLevel
	var penalty int
	switch {
	case count == 0:
		level, penalty = opportunity.CompetitionNone, -10
	case avgRating != nil && *avgRating < 3.5:
		level, penalty = opportunity.CompetitionLowQuality, -3
	case count >= 8 || (count >= 4 && avgRating != nil && *avgRating > 4.5):
		level, penalty = opportunity.CompetitionSaturated, -20
	case count >= 4:
		level, penalty = opportunity.CompetitionHigh, -10
	default:
		level, penalty = opportunity.CompetitionValidated, -5
	}

	summary := opportunity.CompetitionSummary{
		Keyword:      keyword,
		ProductCount: count,
		AvgRating:    avgRating,
		Level:        level,
		Penalty:      penalty,
		TotalReviews: totalReviews,
	}
	if priced > 0 {
		summary.PriceRangeLow = priceLow
		summary.PriceRangeHigh = priceHigh
		summary.AvgPriceCents = priceSum / priced
	}
	return summary
}
